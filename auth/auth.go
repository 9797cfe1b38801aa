// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
)

var (
	ErrNoIdentity = errors.New("no caller identity")
	ErrNotAdmin   = errors.New("caller is not an admin")
)

// Identity is the authenticated caller as supplied by the upstream auth
// gateway. The server trusts these headers as-is; issuing and validating
// sessions happens outside this service.
type Identity struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool {
	return id.Role == "admin"
}

// CallerIdentity extracts the trusted identity headers from a request.
// X-User-ID is required; X-User-Role defaults to "member".
func CallerIdentity(r *http.Request) (Identity, error) {
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		return Identity{}, ErrNoIdentity
	}

	role := r.Header.Get("X-User-Role")
	if role == "" {
		role = "member"
	}

	return Identity{UserID: userID, Role: role}, nil
}

// RequireAdmin extracts the caller identity and rejects non-admins.
func RequireAdmin(r *http.Request) (Identity, error) {
	id, err := CallerIdentity(r)
	if err != nil {
		return Identity{}, err
	}
	if !id.IsAdmin() {
		return Identity{}, ErrNotAdmin
	}
	return id, nil
}

// NewID creates a random identifier for a stored entity
func NewID() string {
	return uuid.NewString()
}
