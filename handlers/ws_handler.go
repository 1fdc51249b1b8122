package handlers

import (
	"errors"
	"fmt"
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	config "github.com/jkamau717/farm_connect/configs"
	"github.com/jkamau717/farm_connect/websocket"
)

// RoomFrame is what connected clients send to subscribe or unsubscribe from a
// thread's room. Subscription carries no authorization; the thread store
// already gated the events at production time.
type RoomFrame struct {
	Action   string `json:"action"`
	ThreadID string `json:"thread_id"`
}

// ServeWs authenticates the socket with a first auth frame, registers the
// client with the fan-out hub and then processes join/leave frames until the
// connection drops.
func (h *ChatHandler) ServeWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		log.Printf("WebSocket auth failed: invalid or missing auth message: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid token: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	rawID, _ := claims["user_id"].(string)
	userID, err := uuid.Parse(rawID)
	if err != nil {
		log.Printf("WebSocket auth failed: invalid user_id: %v", err)
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	client := websocket.NewClient(userID, c)
	h.Hub.Register(client)
	go client.WritePump()
	defer func() {
		h.Hub.Unregister(client)
		c.Close()
	}()

	for {
		var frame RoomFrame
		if err := c.ReadJSON(&frame); err != nil {
			if websocketcontrib.IsCloseError(err, websocketcontrib.CloseGoingAway, websocketcontrib.CloseAbnormalClosure) {
				log.Printf("WebSocket closed for client %s: %v", userID, err)
			} else {
				log.Printf("WebSocket read error for client %s: %v", userID, err)
			}
			break
		}

		threadID, err := uuid.Parse(frame.ThreadID)
		if err != nil {
			_ = c.WriteJSON(fiber.Map{"error": "Invalid thread ID"})
			continue
		}

		switch frame.Action {
		case "join":
			h.Hub.Join(client, threadID)
		case "leave":
			h.Hub.Leave(client, threadID)
		default:
			_ = c.WriteJSON(fiber.Map{"error": "Unknown action"})
		}
	}
}

func parseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(config.Config("JWT_SECRET")), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
