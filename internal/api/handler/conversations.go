package handler

import (
	"log"
	"net/http"

	"chatterbox/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// GetConversations returns the caller's stored conversation list.
func (h *Handler) GetConversations(c *gin.Context) {
	clientID := c.GetString(clientIDKey)

	convs, err := h.Storage.LoadConversations(c.Request.Context(), clientID)
	if err != nil {
		log.Printf("[api] failed to load conversations for %s: %v", clientID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load conversations"})
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}

	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
