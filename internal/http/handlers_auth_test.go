package httpx

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postForm(path string, form url.Values, cookies ...*http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func TestLandingPage(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Employee Portal")
}

func TestLoginForm_ListsDepartments(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/employee/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, dept := range []string{"HR", "IT Support", "Sales", "Admin"} {
		assert.Contains(t, body, dept)
	}
}

func TestLogin_Success(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(postForm("/employee/login", url.Values{
		"username":   {"alice"},
		"password":   {"hunter2"},
		"department": {"HR"},
	}))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/employee/totp", rec.Header().Get("Location"))

	cookie := namedCookie(rec, pendingCookie)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	// No session yet: only a pending record.
	assert.Nil(t, namedCookie(rec, sessionCookie))
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(postForm("/employee/login", url.Values{
		"username":   {"alice"},
		"password":   {"wrong"},
		"department": {"HR"},
	}))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid username or password")
	// The form is redisplayed with the username preserved.
	assert.Contains(t, rec.Body.String(), `value="alice"`)
	assert.Nil(t, namedCookie(rec, pendingCookie))
}

func TestLogin_UnknownDepartment(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(postForm("/employee/login", url.Values{
		"username":   {"alice"},
		"password":   {"hunter2"},
		"department": {"Engineering"},
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid department")
}

func TestLogin_UnauthorizedDepartment(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(postForm("/employee/login", url.Values{
		"username":   {"bob"},
		"password":   {"swordfish"},
		"department": {"Admin"},
	}))

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "not authorized")
}

func TestVerifyForm_WithoutPendingRedirects(t *testing.T) {
	f := newRouterFixture(t, false)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/employee/totp", nil))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/employee/login", rec.Header().Get("Location"))
}

// loginAlice performs the first factor and returns the pending cookie.
func loginAlice(t *testing.T, f *routerFixture) *http.Cookie {
	t.Helper()
	rec := f.do(postForm("/employee/login", url.Values{
		"username":   {"alice"},
		"password":   {"hunter2"},
		"department": {"HR"},
	}))
	require.Equal(t, http.StatusFound, rec.Code)
	cookie := namedCookie(rec, pendingCookie)
	require.NotNil(t, cookie)
	return cookie
}

func TestVerify_Success(t *testing.T) {
	f := newRouterFixture(t, false)
	pending := loginAlice(t, f)

	rec := f.do(postForm("/employee/totp", url.Values{"code": {"123 456"}}, pending))

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/hr/dashboard", rec.Header().Get("Location"))

	session := namedCookie(rec, sessionCookie)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.Value)

	// The pending cookie is expired on the client.
	cleared := namedCookie(rec, pendingCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)
}

func TestVerify_WrongCodeKeepsPending(t *testing.T) {
	f := newRouterFixture(t, false)
	pending := loginAlice(t, f)

	rec := f.do(postForm("/employee/totp", url.Values{"code": {"654321"}}, pending))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "verification code")
	assert.Nil(t, namedCookie(rec, sessionCookie))

	// A correct retry with the same pending record still succeeds.
	rec = f.do(postForm("/employee/totp", url.Values{"code": {"123456"}}, pending))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/hr/dashboard", rec.Header().Get("Location"))
}

func TestVerify_ConsumedPendingRestartsFlow(t *testing.T) {
	f := newRouterFixture(t, false)
	pending := loginAlice(t, f)

	rec := f.do(postForm("/employee/totp", url.Values{"code": {"123456"}}, pending))
	require.Equal(t, http.StatusFound, rec.Code)

	// The same pending record cannot be promoted twice.
	rec = f.do(postForm("/employee/totp", url.Values{"code": {"123456"}}, pending))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/employee/login", rec.Header().Get("Location"))
}

func TestLogout_Idempotent(t *testing.T) {
	f := newRouterFixture(t, false)
	pending := loginAlice(t, f)

	rec := f.do(postForm("/employee/totp", url.Values{"code": {"123456"}}, pending))
	session := namedCookie(rec, sessionCookie)
	require.NotNil(t, session)

	rec = f.do(postForm("/logout", url.Values{}, session))
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	cleared := namedCookie(rec, sessionCookie)
	require.NotNil(t, cleared)
	assert.Equal(t, -1, cleared.MaxAge)

	// Logging out again, or without any cookie, is not an error.
	rec = f.do(postForm("/logout", url.Values{}, session))
	require.Equal(t, http.StatusFound, rec.Code)
	rec = f.do(postForm("/logout", url.Values{}))
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestLandingRedirectsAuthenticatedUser(t *testing.T) {
	f := newRouterFixture(t, false)
	pending := loginAlice(t, f)
	rec := f.do(postForm("/employee/totp", url.Values{"code": {"123456"}}, pending))
	session := namedCookie(rec, sessionCookie)
	require.NotNil(t, session)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(session)
	rec = f.do(req)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/hr/dashboard", rec.Header().Get("Location"))
}
