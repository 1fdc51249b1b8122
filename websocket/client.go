package websocket

import (
	"log"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client is one connected socket. The send channel is written by the hub and
// drained by WritePump; it is closed by the hub on unregister.
type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
	send   chan []byte
}

func NewClient(userID uuid.UUID, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		send:   make(chan []byte, clientSendBuffer),
	}
}

// WritePump pushes hub events to the socket until the send channel closes.
func (c *Client) WritePump() {
	for data := range c.send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("fanout: write to client %s: %v", c.UserID, err)
			return
		}
	}
}
