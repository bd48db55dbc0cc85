package auth

// Package auth contains domain-level types for the two-factor authentication
// flow and sessions. It is pure and free of framework/adapter concerns.

import (
	"slices"
	"time"
)

// Identity represents the principal as reported by the directory after a
// successful bind. Immutable once produced; Groups is the authoritative
// membership set used for authorization.
type Identity struct {
	Username string
	FullName string
	Email    string
	Groups   []string
}

// HasGroup reports whether the identity holds the given group membership.
func (i Identity) HasGroup(group string) bool {
	return slices.Contains(i.Groups, group)
}

// PendingAuthentication is the transient, single-use record between a
// successful primary authentication and second-factor verification. It is
// consumed exactly once: promoted into a Session on second-factor success,
// or discarded on expiry, logout, or a new login attempt.
type PendingAuthentication struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Groups     []string  `json:"groups"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the pending record is past its expiry at now.
func (p PendingAuthentication) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Session is the server-side record persisted for a fully authenticated
// user. Created only by promotion from PendingAuthentication. Lifetime is
// a fixed absolute expiry independent of activity.
type Session struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	Groups     []string  `json:"groups"`
	Permanent  bool      `json:"permanent"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the session is past its absolute expiry at now.
func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
