package devauth

// Package devauth provides a simple, config-driven AuthProvider for local
// development. It lets the provider login flow and bearer-token proxy
// evidence work without a running identity provider.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	domainauth "github.com/henry-enterprise/portal-gateway/internal/domain/auth"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// Config controls the dev auth provider behavior.
type Config struct {
	Username     string
	FullName     string
	Email        string
	Roles        []string
	AssertionTTL time.Duration // default 8h when zero
}

// Provider implements ports.AuthProvider and ports.TokenVerifier for local
// development. It short-circuits the provider flow by redirecting back to
// our own callback with locally generated state and nonce. Exchange ignores
// the code and returns the configured identity.
type Provider struct {
	identity     domainauth.Identity
	roles        []string
	assertionTTL time.Duration
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Username == "" {
		return nil, errors.New("dev auth: Username is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	fullName := cfg.FullName
	if fullName == "" {
		fullName = cfg.Username
	}
	ttl := cfg.AssertionTTL
	if ttl == 0 {
		ttl = 8 * time.Hour
	}
	return &Provider{
		identity: domainauth.Identity{
			Username: cfg.Username,
			FullName: fullName,
			Email:    cfg.Email,
			Groups:   append([]string(nil), cfg.Roles...),
		},
		roles:        append([]string(nil), cfg.Roles...),
		assertionTTL: ttl,
	}, nil
}

// Begin returns a local callback URL and cryptographically secure state and nonce.
func (p *Provider) Begin(_ context.Context, _ ports.BeginInput) (string, string, string, error) {
	state, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(24)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}
	// The standard callback handler expects GET /auth/callback?code=...&state=...
	authURL := "/auth/callback?code=dev&state=" + state
	return authURL, state, nonce, nil
}

// Exchange ignores the provided code (state and nonce validation is the
// handler's job) and returns the configured identity.
func (p *Provider) Exchange(_ context.Context, _ ports.ExchangeInput) (ports.ProviderIdentity, error) {
	return p.assert(), nil
}

// VerifyIDToken accepts any non-empty token and returns the configured
// identity, so bearer-token proxy evidence can be exercised locally.
func (p *Provider) VerifyIDToken(_ context.Context, rawToken string) (ports.ProviderIdentity, error) {
	if rawToken == "" {
		return ports.ProviderIdentity{}, errors.New("dev auth: empty token")
	}
	return p.assert(), nil
}

func (p *Provider) assert() ports.ProviderIdentity {
	return ports.ProviderIdentity{
		Identity:  p.identity,
		Roles:     append([]string(nil), p.roles...),
		ExpiresAt: time.Now().Add(p.assertionTTL),
	}
}

func randomString(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
