package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoints(t *testing.T) {
	f := newRouterFixture(t, false)

	for _, path := range []string{"/health", "/healthz", "/ready"} {
		rec := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String(), path)

		rec = f.do(httptest.NewRequest(http.MethodHead, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestMetricsEndpointMountedWhenConfigured(t *testing.T) {
	f := newRouterFixture(t, false)

	// The fixture does not mount metrics, so /metrics falls through to the
	// proxy and is rejected without evidence.
	rec := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOIDCLogin_RedirectsToProvider(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/sales/dashboard", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://mock-idp/auth"))

	state := namedCookie(rec, stateCookie)
	nonce := namedCookie(rec, nonceCookie)
	ret := namedCookie(rec, returnCookie)
	require.NotNil(t, state)
	require.NotNil(t, nonce)
	require.NotNil(t, ret)
	assert.Equal(t, "/sales/dashboard", ret.Value)
}

func TestOIDCCallback_EstablishesSession(t *testing.T) {
	f := newRouterFixture(t, false)

	login := f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	state := namedCookie(login, stateCookie)
	nonce := namedCookie(login, nonceCookie)
	require.NotNil(t, state)
	require.NotNil(t, nonce)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state="+state.Value, nil)
	req.AddCookie(state)
	req.AddCookie(nonce)

	rec := f.do(req)
	require.Equal(t, http.StatusFound, rec.Code)
	// The mock identity holds the sales role.
	assert.Equal(t, "/sales/dashboard", rec.Header().Get("Location"))

	session := namedCookie(rec, sessionCookie)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.Value)
}

func TestOIDCCallback_RejectsBadState(t *testing.T) {
	f := newRouterFixture(t, false)

	login := f.do(httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	state := namedCookie(login, stateCookie)
	nonce := namedCookie(login, nonceCookie)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc&state=tampered", nil)
	req.AddCookie(state)
	req.AddCookie(nonce)

	rec := f.do(req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, namedCookie(rec, sessionCookie))
}

func TestOIDCCallback_MissingParameters(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/auth/callback", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
