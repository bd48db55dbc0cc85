package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/henry-enterprise/portal-gateway/internal/domain/routing"
)

// defaultDepartments is the built-in department table, used when
// ROUTING_DEPARTMENTS is not set. Each entry is
// name|directory group|backend origin|dashboard path.
var defaultDepartments = []string{
	"HR|hr|http://hr-dashboard:8501|/hr/dashboard",
	"IT Support|it_support|http://it-dashboard:8502|/it/dashboard",
	"Sales|sales|http://sales-dashboard:8503|/sales/dashboard",
	"Admin|admins|http://admin-dashboard:8504|/admin/dashboard",
}

// RoutingConfig contains the department table, role precedence, and
// reverse-proxy configuration.
type RoutingConfig struct {
	// Departments is the department table, one entry per department in the
	// form "name|group|backend|dashboard path", entries separated by ";".
	Departments []string `env:"ROUTING_DEPARTMENTS" envSeparator:";"`

	// RolePrecedence orders roles from most to least specific; the first
	// role a subject holds decides where they are routed.
	RolePrecedence []string `env:"ROUTING_ROLE_PRECEDENCE" envSeparator:"," envDefault:"admin,hr,it_support,sales"`

	// TrustedHeadersEnabled accepts X-Auth-Request-* identity headers as
	// proxy evidence. Only enable behind an authenticating front proxy
	// that strips these headers from client traffic.
	TrustedHeadersEnabled bool `env:"ROUTING_TRUSTED_HEADERS_ENABLED" envDefault:"false"`

	// ProxyTimeout bounds each forwarded backend request.
	ProxyTimeout time.Duration `env:"ROUTING_PROXY_TIMEOUT" envDefault:"30s"`

	table      *routing.Table
	precedence routing.Precedence
}

// Sanitize parses the department entries and role precedence into their
// domain representations. It must be called before Table or Precedence.
func (r *RoutingConfig) Sanitize() error {
	if r.ProxyTimeout <= 0 {
		r.ProxyTimeout = 30 * time.Second
	}
	entries := r.Departments
	if len(entries) == 0 {
		entries = defaultDepartments
	}
	departments := make([]routing.Department, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		dep, err := parseDepartment(entry)
		if err != nil {
			return err
		}
		departments = append(departments, dep)
	}
	r.table = routing.NewTable(departments)
	r.precedence = routing.Precedence(routing.NormalizeRoles(r.RolePrecedence))
	return nil
}

// Table returns the parsed department table.
func (r *RoutingConfig) Table() *routing.Table { return r.table }

// Precedence returns the parsed role precedence.
func (r *RoutingConfig) Precedence() routing.Precedence { return r.precedence }

func parseDepartment(entry string) (routing.Department, error) {
	parts := strings.Split(entry, "|")
	if len(parts) != 4 {
		return routing.Department{}, fmt.Errorf("invalid department entry %q: want name|group|backend|dashboard", entry)
	}
	return routing.Department{
		Name:          strings.TrimSpace(parts[0]),
		Group:         strings.TrimSpace(parts[1]),
		Backend:       strings.TrimSpace(parts[2]),
		DashboardPath: strings.TrimSpace(parts[3]),
	}, nil
}
