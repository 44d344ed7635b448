package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"chatterbox/backend/internal/config"
	"chatterbox/backend/internal/models"
	"chatterbox/backend/internal/view"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	closeTimeout   = 5 * time.Second
)

// Inbound command types.
const (
	CmdLogin              = "login"
	CmdCheckUsername      = "check_username"
	CmdStartChat          = "start_chat"
	CmdSwitchConversation = "switch_conversation"
	CmdSendMessage        = "send_message"
	CmdLogout             = "logout"
)

// Outbound frame types.
const (
	FrameToast        = "toast"
	FrameState        = "state"
	FrameAvailability = "availability"
)

// ClientCommand is a JSON command sent by the browser.
type ClientCommand struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Partner  string `json:"partner,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ServerFrame is a JSON frame pushed to the browser.
type ServerFrame struct {
	Type      string        `json:"type"`
	Toast     *models.Toast `json:"toast,omitempty"`
	View      *view.Page    `json:"view,omitempty"`
	Username  string        `json:"username,omitempty"`
	Available *bool         `json:"available,omitempty"`

	// SubmitDisabled tells the login form whether Join can be pressed for Username.
	SubmitDisabled *bool `json:"submitDisabled,omitempty"`
}

// WebSocketClient implements Client and Notifier for one browser socket.
type WebSocketClient struct {
	ID       string
	ClientID string
	Conn     *websocket.Conn
	Hub      *ManagerService
	Session  *Session
	Send     chan []byte

	ctx    context.Context
	cancel context.CancelFunc
	quit   chan struct{}
	once   sync.Once

	// cooldownUntil is a UnixNano deadline; zero when idle.
	cooldownUntil atomic.Int64
}

// NewWebSocketClient wraps conn and opens its session on hub.
func NewWebSocketClient(hub *ManagerService, conn *websocket.Conn, clientID, lang string) *WebSocketClient {
	ctx, cancel := context.WithCancel(context.Background())
	c := &WebSocketClient{
		ID:       uuid.NewString(),
		ClientID: clientID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, config.ClientSendQueueSize),
		ctx:      ctx,
		cancel:   cancel,
		quit:     make(chan struct{}),
	}
	c.Session = hub.OpenSession(clientID, c)
	c.Session.SetLanguage(lang)
	return c
}

func (c *WebSocketClient) GetID() string       { return c.ID }
func (c *WebSocketClient) GetClientID() string { return c.ClientID }

// Run starts the session, then the pumps. A failed subscription is already
// toasted to the browser, so the pumps start regardless.
func (c *WebSocketClient) Run() {
	if err := c.Session.Start(c.ctx); err != nil {
		log.Printf("[ws] session start failed for client %s: %v", c.ID, err)
	}
	go c.writePump()
	go c.readPump()
}

// Close stops the session and the write pump.
func (c *WebSocketClient) Close() {
	c.once.Do(func() {
		c.cancel()
		close(c.quit)

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		c.Session.Close(ctx)
	})
}

// Toast implements Notifier.
func (c *WebSocketClient) Toast(t models.Toast) {
	c.push(ServerFrame{Type: FrameToast, Toast: &t})
}

// StateChanged implements Notifier.
func (c *WebSocketClient) StateChanged(state models.SessionState) {
	page := view.Render(state, c.coolingDown())
	c.push(ServerFrame{Type: FrameState, View: &page})
}

func (c *WebSocketClient) push(frame ServerFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[ws] error encoding %s frame for client %s: %v", frame.Type, c.ID, err)
		return
	}

	select {
	case c.Send <- data:
	case <-c.quit:
	default:
		log.Printf("[ws] send queue full for client %s, dropping %s frame", c.ID, frame.Type)
	}
}

func (c *WebSocketClient) coolingDown() bool {
	return time.Now().UnixNano() < c.cooldownUntil.Load()
}

// startCooldown disables the input and re-renders once the cooldown ends.
func (c *WebSocketClient) startCooldown() {
	c.cooldownUntil.Store(time.Now().Add(config.SendCooldown).UnixNano())
	time.AfterFunc(config.SendCooldown, func() {
		c.cooldownUntil.Store(0)
		c.refresh()
	})
}

func (c *WebSocketClient) refresh() {
	state, err := c.Session.Snapshot(c.ctx)
	if err != nil {
		return
	}
	c.StateChanged(state)
}

func (c *WebSocketClient) handleCommand(cmd ClientCommand) {
	ctx := c.ctx
	var err error

	switch cmd.Type {
	case CmdLogin:
		err = c.Session.Join(ctx, cmd.Username)

	case CmdCheckUsername:
		var available bool
		available, err = c.Session.CheckUsernameAvailability(ctx, cmd.Username)
		if err == nil || errors.Is(err, ErrNotConnected) {
			disabled := !available || view.LoginSubmitDisabled(err == nil, cmd.Username)
			c.push(ServerFrame{
				Type:           FrameAvailability,
				Username:       cmd.Username,
				Available:      &available,
				SubmitDisabled: &disabled,
			})
		}

	case CmdStartChat:
		err = c.Session.SelectPartner(ctx, cmd.Partner)

	case CmdSwitchConversation:
		err = c.Session.SwitchConversation(ctx, cmd.Partner)

	case CmdSendMessage:
		if c.coolingDown() {
			return
		}
		var sent bool
		sent, err = c.Session.SendMessage(ctx, cmd.Text)
		if sent {
			c.startCooldown()
			c.refresh()
		}

	case CmdLogout:
		err = c.Session.Logout(ctx)

	default:
		log.Printf("[ws] unknown command %q from client %s", cmd.Type, c.ID)
		return
	}

	if err != nil {
		log.Printf("[ws] %s from client %s: %v", cmd.Type, c.ID, err)
	}
}

func (c *WebSocketClient) readPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] error reading message: %v", err)
			}
			break
		}

		var cmd ClientCommand
		if err := json.Unmarshal(message, &cmd); err != nil {
			log.Printf("[ws] error decoding command from client %s: %v", c.ID, err)
			continue
		}

		c.handleCommand(cmd)
	}
}

func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.quit:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
