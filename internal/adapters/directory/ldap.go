// Package directory authenticates employees against the corporate LDAP
// directory using a direct bind with their own credentials.
package directory

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
	"github.com/henry-enterprise/portal-gateway/internal/ports"
)

const defaultDialTimeout = 10 * time.Second

// LDAPClient implements ports.DirectoryClient against an LDAP server.
// Each Authenticate call opens a fresh connection, binds as the user and
// reads the user's entry, so a successful bind proves the password.
type LDAPClient struct {
	url         string
	userBaseDN  string
	emailDomain string
	dialTimeout time.Duration
	logger      *slog.Logger
}

// LDAPClientOptions configures an LDAPClient.
type LDAPClientOptions struct {
	// URL is the directory address, e.g. "ldap://iam.henry.internal:389".
	URL string
	// UserBaseDN is the subtree holding user entries, e.g. "ou=people,dc=henry,dc=internal".
	UserBaseDN string
	// EmailDomain is used to synthesize an address when the entry has no mail
	// attribute. Defaults to "henry-iam.internal".
	EmailDomain string
	DialTimeout time.Duration
	Logger      *slog.Logger
}

// NewLDAPClient creates a directory client.
func NewLDAPClient(opts LDAPClientOptions) (*LDAPClient, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("directory: URL is required")
	}
	if opts.UserBaseDN == "" {
		return nil, fmt.Errorf("directory: UserBaseDN is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	emailDomain := opts.EmailDomain
	if emailDomain == "" {
		emailDomain = "henry-iam.internal"
	}
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	return &LDAPClient{
		url:         opts.URL,
		userBaseDN:  opts.UserBaseDN,
		emailDomain: emailDomain,
		dialTimeout: dialTimeout,
		logger:      logger,
	}, nil
}

// Authenticate binds to the directory as the given user and returns the
// user's entry. A failed bind yields an invalid-credentials error; any
// transport or protocol failure yields a directory error.
func (c *LDAPClient) Authenticate(ctx context.Context, username, password string) (ports.DirectoryEntry, error) {
	conn, err := ldap.DialURL(c.url, ldap.DialWithDialer(&net.Dialer{Timeout: c.dialTimeout}))
	if err != nil {
		return ports.DirectoryEntry{}, apperrors.DirectoryError(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(deadline))
	} else {
		conn.SetTimeout(c.dialTimeout)
	}

	userDN := fmt.Sprintf("uid=%s,%s", ldap.EscapeDN(username), c.userBaseDN)
	if err := conn.Bind(userDN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return ports.DirectoryEntry{}, apperrors.InvalidCredentials()
		}
		return ports.DirectoryEntry{}, apperrors.DirectoryError(err)
	}

	entry, err := c.readUserEntry(conn, userDN, username)
	if err != nil {
		return ports.DirectoryEntry{}, apperrors.DirectoryError(err)
	}

	displayName := entry.GetAttributeValue("cn")
	if displayName == "" {
		displayName = username
	}
	email := entry.GetAttributeValue("mail")
	if email == "" {
		email = fmt.Sprintf("%s@%s", username, c.emailDomain)
	}

	return ports.DirectoryEntry{
		DisplayName: displayName,
		Email:       email,
		Groups:      groupNames(entry.GetAttributeValues("memberOf")),
	}, nil
}

func (c *LDAPClient) readUserEntry(conn *ldap.Conn, userDN, username string) (*ldap.Entry, error) {
	req := ldap.NewSearchRequest(
		userDN,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		1, // SizeLimit: the bind DN names a single entry
		0, // no TimeLimit beyond the connection timeout
		false,
		"(objectClass=*)",
		[]string{"uid", "cn", "mail", "memberOf"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("reading entry for %q: %w", username, err)
	}
	if len(res.Entries) == 0 {
		return nil, fmt.Errorf("no entry found for %q after successful bind", username)
	}
	return res.Entries[0], nil
}

// groupNames reduces memberOf DNs to their leaf RDN value, so
// "cn=hr,ou=groups,dc=henry,dc=internal" becomes "hr". Values that do not
// parse as DNs are kept verbatim.
func groupNames(memberOf []string) []string {
	groups := make([]string, 0, len(memberOf))
	for _, dn := range memberOf {
		parsed, err := ldap.ParseDN(dn)
		if err != nil || len(parsed.RDNs) == 0 || len(parsed.RDNs[0].Attributes) == 0 {
			if trimmed := strings.TrimSpace(dn); trimmed != "" {
				groups = append(groups, trimmed)
			}
			continue
		}
		groups = append(groups, parsed.RDNs[0].Attributes[0].Value)
	}
	return groups
}
