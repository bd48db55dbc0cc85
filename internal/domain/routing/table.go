package routing

// Package routing holds the read-only routing configuration shared by the
// authentication flow and the reverse proxy: the department table and the
// role precedence order. Both are safe for unsynchronized concurrent reads.

import (
	"strings"
)

// Department describes one row of the department table. Every department has
// exactly one required group and exactly one dashboard target; the group name
// doubles as the role name used by the proxy.
type Department struct {
	// Name is the display name presented on the login form, e.g. "IT Support".
	Name string
	// Group is the directory group required for the department and the role
	// name routed by the proxy, e.g. "it_support".
	Group string
	// Backend is the dashboard service base URL, e.g. "http://it-dashboard:8502".
	Backend string
	// DashboardPath is the post-login redirect path, e.g. "/it/dashboard".
	DashboardPath string
}

// Table is the fixed bidirectional department/role mapping.
type Table struct {
	byName map[string]Department
	byRole map[string]Department
	names  []string
}

// NewTable builds a Table from department rows, preserving row order for
// DepartmentNames.
func NewTable(departments []Department) *Table {
	t := &Table{
		byName: make(map[string]Department, len(departments)),
		byRole: make(map[string]Department, len(departments)),
		names:  make([]string, 0, len(departments)),
	}
	for _, d := range departments {
		t.byName[d.Name] = d
		t.byRole[d.Group] = d
		t.names = append(t.names, d.Name)
	}
	return t
}

// ByName looks up a department by its display name.
func (t *Table) ByName(name string) (Department, bool) {
	d, ok := t.byName[name]
	return d, ok
}

// ByRole looks up a department by its group/role name.
func (t *Table) ByRole(role string) (Department, bool) {
	d, ok := t.byRole[role]
	return d, ok
}

// DepartmentNames returns the display names in table order, for rendering
// the login form's department list.
func (t *Table) DepartmentNames() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)
	return names
}

// Precedence is an ordered list of role names, highest priority first.
// Primary is a total, deterministic function from a subject's role set to
// its single primary role: when a subject holds multiple roles, the first
// matching precedence entry wins. The tie-break order is part of the
// contract, not an incidental loop.
type Precedence []string

// Primary selects the subject's primary role. It returns false when none of
// the subject's roles appear in the precedence list.
func (p Precedence) Primary(roles []string) (string, bool) {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	for _, candidate := range p {
		if _, ok := set[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

// NormalizeRoles trims and lower-cases role names, discarding empty entries.
// The result preserves first-occurrence order without duplicates.
func NormalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	seen := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
