package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/henry-enterprise/portal-gateway/internal/domain/routing"
	apperrors "github.com/henry-enterprise/portal-gateway/internal/errors"
	mocks "github.com/henry-enterprise/portal-gateway/internal/mocks/auth"
)

func newRouterService(audit *mocks.RecordingAudit) *RouterService {
	return NewRouterService(RouterServiceOptions{
		Table:      testTable(),
		Precedence: routing.Precedence{"admin", "hr", "it_support", "sales"},
		Audit:      audit,
	})
}

func TestAuthorizeAndSelectTarget_PrecedenceSelectsHR(t *testing.T) {
	svc := newRouterService(mocks.NewRecordingAudit())

	decision, err := svc.AuthorizeAndSelectTarget(context.Background(), Subject{
		Username: "alice",
		Email:    "alice@henry-iam.internal",
		Roles:    []string{"sales", "hr"},
	})

	require.NoError(t, err)
	assert.Equal(t, "hr", decision.PrimaryRole)
	assert.Equal(t, "http://hr-dashboard:8501", decision.Target.Backend)
	assert.Equal(t, []string{"sales", "hr"}, decision.Roles)
}

func TestAuthorizeAndSelectTarget_NormalizesRoles(t *testing.T) {
	svc := newRouterService(mocks.NewRecordingAudit())

	decision, err := svc.AuthorizeAndSelectTarget(context.Background(), Subject{
		Username: "x",
		Email:    "x@y.com",
		Roles:    []string{" Admin ", "SALES"},
	})

	require.NoError(t, err)
	assert.Equal(t, "admin", decision.PrimaryRole)
	assert.Equal(t, []string{"admin", "sales"}, decision.Roles)
}

func TestAuthorizeAndSelectTarget_InvalidEvidence(t *testing.T) {
	svc := newRouterService(mocks.NewRecordingAudit())

	tests := []struct {
		name    string
		subject Subject
	}{
		{"missing username", Subject{Email: "x@y.com", Roles: []string{"hr"}}},
		{"missing email", Subject{Username: "x", Roles: []string{"hr"}}},
		{"email without at sign", Subject{Username: "x", Email: "not-an-email", Roles: []string{"hr"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AuthorizeAndSelectTarget(context.Background(), tt.subject)
			assert.True(t, apperrors.IsInvalidAuthEvidence(err))
		})
	}
}

func TestAuthorizeAndSelectTarget_NoRolesAssigned(t *testing.T) {
	svc := newRouterService(mocks.NewRecordingAudit())

	_, err := svc.AuthorizeAndSelectTarget(context.Background(), Subject{
		Username: "x", Email: "x@y.com", Roles: []string{"  ", ""},
	})

	assert.True(t, apperrors.IsNoRolesAssigned(err))
}

func TestAuthorizeAndSelectTarget_UnrecognizedRole(t *testing.T) {
	svc := newRouterService(mocks.NewRecordingAudit())

	_, err := svc.AuthorizeAndSelectTarget(context.Background(), Subject{
		Username: "x", Email: "x@y.com", Roles: []string{"contractor"},
	})

	// Distinct from NoRolesAssigned: roles exist but none is routable.
	require.True(t, apperrors.IsUnrecognizedRole(err))
	assert.False(t, apperrors.IsNoRolesAssigned(err))
}

func TestAuthorizeAndSelectTarget_RoutingMisconfiguration(t *testing.T) {
	// Precedence knows "finance" but the table has no backend for it.
	svc := NewRouterService(RouterServiceOptions{
		Table:      testTable(),
		Precedence: routing.Precedence{"finance"},
		Audit:      mocks.NewRecordingAudit(),
	})

	_, err := svc.AuthorizeAndSelectTarget(context.Background(), Subject{
		Username: "x", Email: "x@y.com", Roles: []string{"finance"},
	})

	assert.True(t, apperrors.IsRoutingMisconfiguration(err))
}

func TestAuthorizeAndSelectTarget_AuditOutcomes(t *testing.T) {
	audit := mocks.NewRecordingAudit()
	svc := newRouterService(audit)

	_, _ = svc.AuthorizeAndSelectTarget(context.Background(), Subject{
		Username: "x", Email: "x@y.com", Roles: []string{"sales"},
	})
	_, _ = svc.AuthorizeAndSelectTarget(context.Background(), Subject{
		Username: "x", Email: "x@y.com", Roles: []string{"contractor"},
	})

	events := audit.ByKind("proxy")
	require.Len(t, events, 2)
	assert.Equal(t, "routed", events[0].Status)
	assert.Equal(t, "sales", events[0].Role)
	assert.Equal(t, string(apperrors.ErrCodeUnrecognizedRole), events[1].Status)
}
