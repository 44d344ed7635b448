package handler

import (
	"chatterbox/backend/internal/chathub"
	"chatterbox/backend/internal/storage"
)

// Handler holds what the HTTP routes need.
type Handler struct {
	Hub       *chathub.ManagerService
	Storage   storage.Storage
	JWTSecret []byte
}

func NewHandler(hub *chathub.ManagerService, s storage.Storage, jwtSecret string) *Handler {
	return &Handler{
		Hub:       hub,
		Storage:   s,
		JWTSecret: []byte(jwtSecret),
	}
}
