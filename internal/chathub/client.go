package chathub

// Client is one live browser connection registered with the ManagerService.
type Client interface {
	// GetID returns the connection id, unique per socket.
	GetID() string
	// GetClientID returns the browser identity the session's storage is scoped to.
	GetClientID() string

	// Run starts the session and the connection pumps.
	Run()
	// Close stops the session and releases the connection. It is idempotent.
	Close()
}
