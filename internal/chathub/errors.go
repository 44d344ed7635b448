package chathub

import "errors"

// Validation errors. Each is surfaced to the user as a destructive toast and
// leaves the session unchanged.
var (
	ErrUsernameRequired = errors.New("username required")
	ErrUsernameLength   = errors.New("username length out of range")
	ErrUsernameTaken    = errors.New("username taken")
	ErrAlreadyLoggedIn  = errors.New("already logged in")
	ErrNoTarget         = errors.New("no chat partner selected")
	ErrSelfTarget       = errors.New("cannot chat with yourself")
	ErrPartnerOffline   = errors.New("partner is not online")
)

// ErrNotConnected is returned when an operation needs a subscribed channel.
var ErrNotConnected = errors.New("realtime channel not connected")

// ErrSessionClosed is returned by operations issued after the dispatch loop stopped.
var ErrSessionClosed = errors.New("session closed")
