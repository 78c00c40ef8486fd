package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/stitchnet/stitchnet-api/internal/realtime"
	"github.com/stitchnet/stitchnet-api/internal/utils"
)

// RealtimeHandler serves the websocket notification feed. The JWT
// middleware cannot run on an upgraded connection, so the token comes
// in as a query parameter.
type RealtimeHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func NewRealtimeHandler(hub *realtime.Hub, secret string) *RealtimeHandler {
	return &RealtimeHandler{Hub: hub, JWTSecret: secret}
}

func (h *RealtimeHandler) NotificationFeed(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, tokenStr)
	if err != nil {
		log.Println("ws: invalid token:", err)
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.Close()
		return
	}

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer h.Hub.UnregisterClient(client)

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	// Drain reads to keep the connection alive until the client goes
	// away.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}
