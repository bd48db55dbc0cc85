package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/henry-enterprise/portal-gateway/internal/domain/routing"
	mocks "github.com/henry-enterprise/portal-gateway/internal/mocks/auth"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
	"github.com/henry-enterprise/portal-gateway/internal/service"
)

// captureForwarder records routing decisions instead of proxying.
type captureForwarder struct {
	decisions []service.RouteDecision
	// Err, when set, is returned instead of writing a response.
	Err error
}

func (f *captureForwarder) Forward(w http.ResponseWriter, r *http.Request, decision service.RouteDecision) error {
	if f.Err != nil {
		return f.Err
	}
	f.decisions = append(f.decisions, decision)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("backend response"))
	return nil
}

type routerFixture struct {
	handler   http.Handler
	login     *service.LoginService
	forwarder *captureForwarder
	provider  *mocks.MockAuthProvider
	audit     *mocks.RecordingAudit
	sessions  *mocks.MemorySessionStore
	pending   *mocks.MemoryPendingStore
}

func portalTable() *routing.Table {
	return routing.NewTable([]routing.Department{
		{Name: "HR", Group: "hr", Backend: "http://hr-dashboard:8501", DashboardPath: "/hr/dashboard"},
		{Name: "IT Support", Group: "it_support", Backend: "http://it-dashboard:8502", DashboardPath: "/it/dashboard"},
		{Name: "Sales", Group: "sales", Backend: "http://sales-dashboard:8503", DashboardPath: "/sales/dashboard"},
		{Name: "Admin", Group: "admins", Backend: "http://admin-dashboard:8504", DashboardPath: "/admin/dashboard"},
	})
}

func newRouterFixture(t *testing.T, trustedHeaders bool) *routerFixture {
	t.Helper()

	table := portalTable()
	audit := mocks.NewRecordingAudit()
	sessions := mocks.NewMemorySessionStore()
	pending := mocks.NewMemoryPendingStore()

	login := service.NewLoginService(service.LoginServiceOptions{
		Directory: &mocks.StubDirectory{
			Users: map[string]string{"alice": "hunter2", "bob": "swordfish"},
			Entries: map[string]ports.DirectoryEntry{
				"alice": {DisplayName: "Alice Archer", Email: "alice@henry-iam.internal", Groups: []string{"hr", "employees"}},
				"bob":   {DisplayName: "Bob Builder", Email: "bob@henry-iam.internal", Groups: []string{"sales"}},
			},
		},
		Secrets:  &mocks.StubSecretStore{Secrets: map[string]string{"alice": "JBSWY3DPEHPK3PXP"}},
		Codes:    &mocks.StubCodeVerifier{Valid: map[string]string{"JBSWY3DPEHPK3PXP": "123456"}},
		Pending:  pending,
		Sessions: sessions,
		Table:    table,
		Audit:    audit,
	})
	router := service.NewRouterService(service.RouterServiceOptions{
		Table:      table,
		Precedence: routing.Precedence{"admin", "hr", "it_support", "sales"},
		Audit:      audit,
	})

	forwarder := &captureForwarder{}
	provider := mocks.NewMockAuthProvider()

	handler, err := NewRouter(RouterServices{
		Login:               login,
		Router:              router,
		Forwarder:           forwarder,
		Provider:            provider,
		Verifier:            provider,
		TrustTrustedHeaders: trustedHeaders,
	})
	require.NoError(t, err)

	return &routerFixture{
		handler:   handler,
		login:     login,
		forwarder: forwarder,
		provider:  provider,
		audit:     audit,
		sessions:  sessions,
		pending:   pending,
	}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// namedCookie pulls a cookie by name from a recorded response.
func namedCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
