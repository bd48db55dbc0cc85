package oidc

// Package oidc provides the identity-provider adapter for token-based
// access to the portal. It implements both ports.AuthProvider (the
// browser login flow) and ports.TokenVerifier (bearer tokens presented
// directly as proxy evidence).

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	domainauth "github.com/henry-enterprise/portal-gateway/internal/domain/auth"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

// Provider implements ports.AuthProvider and ports.TokenVerifier using
// OIDC/OAuth2 against the enterprise identity provider.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier

	insecureSkipVerify bool
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a 30s-timeout client

	// InsecureSkipVerify disables cryptographic verification of ID tokens.
	// Claims are still parsed. Development only.
	InsecureSkipVerify bool
}

// NewProvider creates a new OIDC provider. It performs a single discovery
// fetch against DiscoveryURL.
func NewProvider(config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		httpClient:         httpClient,
		insecureSkipVerify: config.InsecureSkipVerify,
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	issuer = strings.TrimSuffix(issuer, ".well-known/openid-configuration")
	op, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op

	verifierCfg := &gooidc.Config{ClientID: config.ClientID}
	if config.InsecureSkipVerify {
		verifierCfg.InsecureSkipSignatureCheck = true
	}
	p.verifier = op.Verifier(verifierCfg)

	scopes := strings.Fields(config.Scope)
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scopes,
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}

	state, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateRandomString(32)
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
	)
	return authURL, state, nonce, nil
}

func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (ports.ProviderIdentity, error) {
	if in.Code == "" {
		return ports.ProviderIdentity{}, errors.New("authorization code is required")
	}
	if in.State == "" {
		return ports.ProviderIdentity{}, errors.New("state is required")
	}
	if in.Nonce == "" {
		return ports.ProviderIdentity{}, errors.New("nonce is required")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := p.config.Exchange(ctx, in.Code)
	if err != nil {
		return ports.ProviderIdentity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, err := getIDTokenFromToken(token)
	if err != nil {
		return ports.ProviderIdentity{}, err
	}

	identity, err := p.verifyAndMap(ctx, rawID, in.Nonce)
	if err != nil {
		return ports.ProviderIdentity{}, err
	}

	if identity.ExpiresAt.IsZero() {
		identity.ExpiresAt = time.Now().Add(time.Hour)
		if !token.Expiry.IsZero() {
			identity.ExpiresAt = token.Expiry
		}
	}
	return identity, nil
}

// VerifyIDToken validates a bearer ID token presented as proxy evidence.
func (p *Provider) VerifyIDToken(ctx context.Context, rawToken string) (ports.ProviderIdentity, error) {
	if rawToken == "" {
		return ports.ProviderIdentity{}, errors.New("token is required")
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return p.verifyAndMap(ctx, rawToken, "")
}

func (p *Provider) verifyAndMap(ctx context.Context, rawToken, expectedNonce string) (ports.ProviderIdentity, error) {
	idTok, err := p.verifier.Verify(ctx, rawToken)
	if err != nil {
		return ports.ProviderIdentity{}, fmt.Errorf("verify id_token: %w", err)
	}
	var claims idTokenClaims
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return ports.ProviderIdentity{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}
	if expectedNonce != "" && claims.Nonce != expectedNonce {
		return ports.ProviderIdentity{}, errors.New("invalid nonce")
	}
	return mapIDTokenClaims(claims), nil
}

// idTokenClaims is a superset of the claim shapes emitted by the identity
// providers the portal fronts (standard OIDC, Keycloak realm roles, and
// AD-style memberof).
type idTokenClaims struct {
	Sub               string   `json:"sub"`
	PreferredUsername string   `json:"preferred_username"`
	Name              string   `json:"name"`
	Email             string   `json:"email"`
	Roles             []string `json:"roles"`
	MemberOf          []string `json:"memberof"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"nonce"`
}

// mapIDTokenClaims maps raw id token claims into a ProviderIdentity using
// precedence rules: a top-level roles claim wins, then realm_access.roles,
// then memberof.
func mapIDTokenClaims(c idTokenClaims) ports.ProviderIdentity {
	roles := c.Roles
	if len(roles) == 0 {
		roles = c.RealmAccess.Roles
	}
	if len(roles) == 0 {
		roles = c.MemberOf
	}

	var expiresAt time.Time
	if c.ExpiresAt > 0 {
		expiresAt = time.Unix(c.ExpiresAt, 0)
	}

	return ports.ProviderIdentity{
		Identity: domainauth.Identity{
			Username: firstNonEmpty(c.PreferredUsername, c.Sub),
			FullName: c.Name,
			Email:    c.Email,
			Groups:   c.MemberOf,
		},
		Roles:     roles,
		ExpiresAt: expiresAt,
	}
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	nBytes := (length*3 + 3) / 4
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) < length {
		extra := make([]byte, 1)
		if _, err := rand.Read(extra); err != nil {
			return "", err
		}
		s += base64.RawURLEncoding.EncodeToString(extra)
	}
	return s[:length], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw := tok.Extra("id_token")
	s, ok := raw.(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
