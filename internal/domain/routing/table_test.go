package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTable() *Table {
	return NewTable([]Department{
		{Name: "HR", Group: "hr", Backend: "http://hr-dashboard:8501", DashboardPath: "/hr/dashboard"},
		{Name: "IT Support", Group: "it_support", Backend: "http://it-dashboard:8502", DashboardPath: "/it/dashboard"},
		{Name: "Sales", Group: "sales", Backend: "http://sales-dashboard:8503", DashboardPath: "/sales/dashboard"},
		{Name: "Admin", Group: "admins", Backend: "http://admin-dashboard:8504", DashboardPath: "/admin/dashboard"},
	})
}

func TestTable_ByName(t *testing.T) {
	table := testTable()

	d, ok := table.ByName("IT Support")
	require.True(t, ok)
	assert.Equal(t, "it_support", d.Group)
	assert.Equal(t, "http://it-dashboard:8502", d.Backend)

	_, ok = table.ByName("Engineering")
	assert.False(t, ok)
}

func TestTable_ByRole(t *testing.T) {
	table := testTable()

	d, ok := table.ByRole("admins")
	require.True(t, ok)
	assert.Equal(t, "Admin", d.Name)

	_, ok = table.ByRole("contractor")
	assert.False(t, ok)
}

func TestTable_DepartmentNames_PreservesOrder(t *testing.T) {
	table := testTable()
	assert.Equal(t, []string{"HR", "IT Support", "Sales", "Admin"}, table.DepartmentNames())
}

func TestPrecedence_Primary(t *testing.T) {
	precedence := Precedence{"admin", "hr", "it_support", "sales"}

	tests := []struct {
		name  string
		roles []string
		want  string
		found bool
	}{
		{"first precedence match wins", []string{"sales", "hr"}, "hr", true},
		{"single role", []string{"sales"}, "sales", true},
		{"admin outranks everything", []string{"sales", "admin", "hr"}, "admin", true},
		{"unmapped role", []string{"contractor"}, "", false},
		{"empty set", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := precedence.Primary(tt.roles)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrecedence_Primary_Deterministic(t *testing.T) {
	precedence := Precedence{"admin", "hr", "it_support", "sales"}
	// Input order must not influence the selection.
	a, _ := precedence.Primary([]string{"hr", "sales"})
	b, _ := precedence.Primary([]string{"sales", "hr"})
	assert.Equal(t, a, b)
	assert.Equal(t, "hr", a)
}

func TestNormalizeRoles(t *testing.T) {
	got := NormalizeRoles([]string{" Admin ", "SALES", "", "  ", "admin"})
	assert.Equal(t, []string{"admin", "sales"}, got)
}
