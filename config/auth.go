package config

import (
	"fmt"
	"strings"
	"time"
)

// DirectoryConfig contains LDAP directory configuration.
type DirectoryConfig struct {
	URL         string        `env:"URL"          envDefault:"ldap://localhost:389"`
	UserBaseDN  string        `env:"USER_BASE_DN" envDefault:"ou=people,dc=henry,dc=internal"`
	EmailDomain string        `env:"EMAIL_DOMAIN" envDefault:"henry-iam.internal"`
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"10s"`
}

// SecretBackend selects where TOTP enrollment secrets live.
type SecretBackend string

const (
	// SecretBackendPostgres reads enrollment secrets from Postgres.
	SecretBackendPostgres SecretBackend = "postgres"
	// SecretBackendFile reads enrollment secrets from a JSON file
	// (development and small deployments).
	SecretBackendFile SecretBackend = "file"
)

// UnmarshalText implements encoding.TextUnmarshaler for SecretBackend.
func (s *SecretBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "postgres", "file":
		*s = SecretBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SecretBackend: %q (valid options: postgres, file)", v)
	}
}

// TOTPConfig contains second-factor configuration.
type TOTPConfig struct {
	// SecretBackend selects the enrollment-secret store.
	SecretBackend SecretBackend `env:"SECRET_BACKEND" envDefault:"postgres"`

	// SecretsFile is the JSON secrets file path (SecretBackend=file).
	SecretsFile string `env:"SECRETS_FILE" envDefault:"totp_secrets.json"`

	// Skew is the number of 30s steps of clock drift tolerated either side
	// of the current one.
	Skew uint `env:"SKEW" envDefault:"1"`
}

// OIDCConfig contains identity-provider configuration for the optional
// provider login flow and bearer-token proxy evidence.
type OIDCConfig struct {
	Enabled      bool   `env:"ENABLED"       envDefault:"false"`
	ClientID     string `env:"CLIENT_ID"     envDefault:"portal-gateway"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:""`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`

	// InsecureSkipVerify disables ID-token signature verification.
	// Development only; never enable in production.
	InsecureSkipVerify bool `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
}

// DevAuthConfig configures the development identity provider. It is only
// honored in dev mode, and only when OIDC is disabled.
type DevAuthConfig struct {
	Enabled  bool     `env:"ENABLED"   envDefault:"false"`
	Username string   `env:"USERNAME"  envDefault:"dev-user"`
	FullName string   `env:"FULL_NAME"`
	Email    string   `env:"EMAIL"     envDefault:"dev@henry-iam.internal"`
	Roles    []string `env:"ROLES"     envSeparator:";" envDefault:"sales"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	Directory DirectoryConfig `envPrefix:"DIRECTORY_"`
	TOTP      TOTPConfig      `envPrefix:"TOTP_"`
	OIDC      OIDCConfig      `envPrefix:"OIDC_"`
	DevAuth   DevAuthConfig   `envPrefix:"DEV_AUTH_"`

	// PendingTTL bounds how long a verified-credentials record waits for
	// its second factor.
	PendingTTL time.Duration `env:"AUTH_PENDING_TTL" envDefault:"5m"`

	// SessionTTL is the absolute session lifetime, independent of activity.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"8h"`
}

// Sanitize applies guardrails to authentication configuration values.
func (a *AuthConfig) Sanitize() {
	if a.PendingTTL <= 0 {
		a.PendingTTL = 5 * time.Minute
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 8 * time.Hour
	}
	if a.TOTP.Skew == 0 {
		a.TOTP.Skew = 1
	}
}
