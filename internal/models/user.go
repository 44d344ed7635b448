package models

import (
	"strings"

	"github.com/google/uuid"
)

// User is a chat participant as seen by a session: either the local user
// created on login or a remote user learned from presence.
type User struct {
	ID       string `json:"id"`       // UUID generated by the owning session
	Username string `json:"username"` // Display name, unique only by convention
}

// NewUser creates a User with a freshly generated UUID.
func NewUser(username string) User {
	return User{
		ID:       uuid.NewString(),
		Username: strings.TrimSpace(username),
	}
}

// SameName reports whether two usernames denote the same identity.
// Comparison is case-insensitive, so "Bob" and "bob" collide.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
