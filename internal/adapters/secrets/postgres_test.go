package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henry-enterprise/portal-gateway/internal/ports"
	"github.com/henry-enterprise/portal-gateway/internal/testutil"
)

func TestPostgresStore_LookupAndEnroll(t *testing.T) {
	pool := testutil.SetupTestPostgres(t)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS totp_secrets (
			username TEXT PRIMARY KEY,
			secret   TEXT NOT NULL
		)
	`)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM totp_secrets`)
	})

	store := NewPostgresStore(pool)

	_, err = store.Lookup(ctx, "alice")
	assert.ErrorIs(t, err, ports.ErrNotFound)

	require.NoError(t, store.Enroll(ctx, "alice", "JBSWY3DPEHPK3PXP"))
	secret, err := store.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", secret)

	// Re-enrolling replaces the secret.
	require.NoError(t, store.Enroll(ctx, "alice", "NBSWY3DPEHPK3PXQ"))
	secret, err = store.Lookup(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "NBSWY3DPEHPK3PXQ", secret)
}
