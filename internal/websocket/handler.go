package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"relay-chat/internal/proxy"
	"relay-chat/internal/services"
	"relay-chat/internal/transport/httpdto"
	"relay-chat/pkg/events"
	"relay-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const readTimeout = 60 * time.Second

type Handler struct {
	auth   *services.AuthService
	access *proxy.AccessControl
	hub    *Hub
	logger *logger.Logger
}

func NewHandler(auth *services.AuthService, access *proxy.AccessControl, hub *Hub, l *logger.Logger) *Handler {
	return &Handler{auth: auth, access: access, hub: hub, logger: l}
}

// inboundFrame is a client-to-server message: join/leave a chat room or
// signal typing state.
type inboundFrame struct {
	Event  string `json:"event"`
	ChatID string `json:"chatId"`
}

type typingPayload struct {
	UserID string `json:"userId"`
}

// Connect upgrades the request to a WebSocket connection. The handshake
// requires the same bearer credential as the REST layer; a missing or
// invalid token refuses the connection.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = extractBearer(c.GetHeader("Authorization"))
	}

	claims, err := h.auth.ParseAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", ""))
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := NewClient(conn, claims.UserID)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h.hub.Register(client)
	go client.WriteLoop(ctx)

	if h.logger != nil {
		h.logger.Infof("websocket connected: user=%s client=%s", client.UserID, client.ID)
	}

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleFrame(ctx, client, data)
	}

	h.hub.Unregister(client)

	if h.logger != nil {
		h.logger.Infof("websocket disconnected: user=%s client=%s", client.UserID, client.ID)
	}
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil || frame.ChatID == "" {
		client.SendMessage(events.Event{Event: events.Error, Payload: "malformed frame"}.Marshal())
		return
	}

	room := events.ChatRoom(frame.ChatID)

	switch frame.Event {
	case events.ChatJoin:
		// Only participants may join a room and observe its live events.
		if err := h.access.EnsureParticipant(ctx, frame.ChatID, client.UserID); err != nil {
			client.SendMessage(events.Event{Event: events.Error, Payload: err.Error()}.Marshal())
			return
		}
		h.hub.Join(client, room)
	case events.ChatLeave:
		h.hub.Leave(client, room)
	case events.TypingStart, events.TypingStop:
		// Typing signals only flow inside rooms the sender has joined, the
		// same gate join itself is behind.
		if !client.InRoom(room) {
			client.SendMessage(events.Event{Event: events.Error, Payload: "not in room"}.Marshal())
			return
		}
		// Fire-and-forget to everyone else in the room; never persisted.
		h.hub.BroadcastExcept(room, client, events.Event{
			Event:   frame.Event,
			Payload: typingPayload{UserID: client.UserID},
		})
	default:
		client.SendMessage(events.Event{Event: events.Error, Payload: "unknown event"}.Marshal())
	}
}

func extractBearer(value string) string {
	parts := strings.SplitN(value, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
