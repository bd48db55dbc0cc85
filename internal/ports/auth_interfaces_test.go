package ports_test

import (
	"testing"

	mocks "github.com/henry-enterprise/portal-gateway/internal/mocks/auth"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// This test only verifies that our doubles conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.DirectoryClient = (*mocks.StubDirectory)(nil)
	var _ ports.SecretStore = (*mocks.StubSecretStore)(nil)
	var _ ports.CodeVerifier = (*mocks.StubCodeVerifier)(nil)
	var _ ports.PendingStore = (*mocks.MemoryPendingStore)(nil)
	var _ ports.SessionStore = (*mocks.MemorySessionStore)(nil)
	var _ ports.AuthProvider = (*mocks.MockAuthProvider)(nil)
	var _ ports.TokenVerifier = (*mocks.MockAuthProvider)(nil)
	var _ ports.AuditRecorder = (*mocks.RecordingAudit)(nil)
}
