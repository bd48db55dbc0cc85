package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

type discoveryDoc struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
}

func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()
	var issuer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(discoveryDoc{
			Issuer:                issuer,
			AuthorizationEndpoint: "https://idp.example.com/auth",
			TokenEndpoint:         "https://idp.example.com/token",
			UserinfoEndpoint:      "https://idp.example.com/userinfo",
			JwksURI:               "https://idp.example.com/jwks",
		})
	}))
	t.Cleanup(server.Close)
	issuer = server.URL
	return server
}

func testConfig(discoveryURL string) ProviderConfig {
	return ProviderConfig{
		ClientID:     "portal-gateway",
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scope:        "openid profile email",
		DiscoveryURL: discoveryURL,
	}
}

func TestNewProvider_Success(t *testing.T) {
	server := newDiscoveryServer(t)

	provider, err := NewProvider(testConfig(server.URL))
	require.NoError(t, err)
	assert.Equal(t, "https://idp.example.com/auth", provider.config.Endpoint.AuthURL)
	assert.Equal(t, "https://idp.example.com/token", provider.config.Endpoint.TokenURL)
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name: "missing client ID",
			config: ProviderConfig{
				ClientSecret: "secret",
				RedirectURL:  "http://localhost/callback",
				DiscoveryURL: "http://example.com",
			},
			errMsg: "client ID is required",
		},
		{
			name: "missing client secret",
			config: ProviderConfig{
				ClientID:     "client",
				RedirectURL:  "http://localhost/callback",
				DiscoveryURL: "http://example.com",
			},
			errMsg: "client secret is required",
		},
		{
			name:   "missing redirect URL",
			config: ProviderConfig{ClientID: "client", ClientSecret: "secret", DiscoveryURL: "http://example.com"},
			errMsg: "redirect URL is required",
		},
		{
			name:   "missing discovery URL",
			config: ProviderConfig{ClientID: "client", ClientSecret: "secret", RedirectURL: "http://localhost/callback"},
			errMsg: "discovery URL is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBegin_GeneratesDistinctStateAndNonce(t *testing.T) {
	server := newDiscoveryServer(t)
	provider, err := NewProvider(testConfig(server.URL))
	require.NoError(t, err)

	authURL, state, nonce, err := provider.Begin(context.Background(), ports.BeginInput{
		RedirectURL: "http://localhost:8080/auth/callback",
	})
	require.NoError(t, err)
	assert.Len(t, state, 32)
	assert.Len(t, nonce, 32)
	assert.NotEqual(t, state, nonce)
	assert.Contains(t, authURL, "https://idp.example.com/auth")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "nonce="+nonce)

	_, state2, nonce2, err := provider.Begin(context.Background(), ports.BeginInput{
		RedirectURL: "http://localhost:8080/auth/callback",
	})
	require.NoError(t, err)
	assert.NotEqual(t, state, state2)
	assert.NotEqual(t, nonce, nonce2)
}

func TestBegin_RequiresRedirectURL(t *testing.T) {
	server := newDiscoveryServer(t)
	provider, err := NewProvider(testConfig(server.URL))
	require.NoError(t, err)

	_, _, _, err = provider.Begin(context.Background(), ports.BeginInput{})
	assert.Error(t, err)
}

func TestExchange_InputValidation(t *testing.T) {
	server := newDiscoveryServer(t)
	provider, err := NewProvider(testConfig(server.URL))
	require.NoError(t, err)

	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{State: "s", Nonce: "n"})
	assert.ErrorContains(t, err, "authorization code is required")

	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", Nonce: "n"})
	assert.ErrorContains(t, err, "state is required")

	_, err = provider.Exchange(context.Background(), ports.ExchangeInput{Code: "c", State: "s"})
	assert.ErrorContains(t, err, "nonce is required")
}

func TestMapIDTokenClaims_RolePrecedence(t *testing.T) {
	claims := idTokenClaims{
		Sub:               "u-123",
		PreferredUsername: "alice",
		Name:              "Alice Archer",
		Email:             "alice@henry.example",
		Roles:             []string{"HR", "Employee"},
		MemberOf:          []string{"hr", "employees"},
		ExpiresAt:         time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC).Unix(),
	}
	claims.RealmAccess.Roles = []string{"realm-hr"}

	got := mapIDTokenClaims(claims)
	assert.Equal(t, "alice", got.Identity.Username)
	assert.Equal(t, "Alice Archer", got.Identity.FullName)
	assert.Equal(t, "alice@henry.example", got.Identity.Email)
	// Top-level roles claim wins over realm_access and memberof.
	assert.Equal(t, []string{"HR", "Employee"}, got.Roles)
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), got.ExpiresAt.UTC())
}

func TestMapIDTokenClaims_Fallbacks(t *testing.T) {
	claims := idTokenClaims{Sub: "u-123"}
	claims.RealmAccess.Roles = []string{"sales"}

	got := mapIDTokenClaims(claims)
	assert.Equal(t, "u-123", got.Identity.Username)
	assert.Equal(t, []string{"sales"}, got.Roles)

	got = mapIDTokenClaims(idTokenClaims{Sub: "u-456", MemberOf: []string{"it_support"}})
	assert.Equal(t, []string{"it_support"}, got.Roles)
}

func TestVerifyIDToken_RequiresToken(t *testing.T) {
	server := newDiscoveryServer(t)
	provider, err := NewProvider(testConfig(server.URL))
	require.NoError(t, err)

	_, err = provider.VerifyIDToken(context.Background(), "")
	assert.Error(t, err)
}
