package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

func writeSecretsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "totp_secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFileStore_Lookup(t *testing.T) {
	path := writeSecretsFile(t, `{"alice": "JBSWY3DPEHPK3PXP", "bob": ""}`)
	store, err := NewFileStore(path)
	require.NoError(t, err)

	secret, err := store.Lookup(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", secret)

	// Missing and blank enrollments are both not-found.
	_, err = store.Lookup(context.Background(), "mallory")
	assert.ErrorIs(t, err, ports.ErrNotFound)
	_, err = store.Lookup(context.Background(), "bob")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestNewFileStore_Errors(t *testing.T) {
	_, err := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := writeSecretsFile(t, `not json`)
	_, err = NewFileStore(path)
	assert.Error(t, err)
}
