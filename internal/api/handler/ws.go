package handler

import (
	"net/http"

	"chatterbox/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the deployed frontend origin once it is configurable.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the connection and starts a chat session for the
// client id set by RequireClient.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	clientID := c.GetString(clientIDKey)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, clientID, c.Query("lang"))
	if !h.Hub.Register(client) {
		// shutting down: the pumps never started, so nothing else owns conn
		conn.Close()
		return
	}
	client.Run()
}
