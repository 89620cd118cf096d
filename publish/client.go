package publish

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// writeWait is how long to wait for a write to complete
	writeWait = 10 * time.Second
	// pongWait is how long to wait for a pong response
	pongWait = 60 * time.Second
	// pingPeriod must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	// maxMessageSize is the largest message accepted from a client
	maxMessageSize = 4096
	// sendBuffer is the number of messages queued per client
	sendBuffer = 64
)

// Client is a single websocket connection subscribed to a Hub
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// newClient creates a client and registers it with the hub, nil is returned
// if the hub has stopped
func newClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, sendBuffer),
	}

	if !hub.add(c) {
		return nil
	}

	return c
}

// run starts the write pump and blocks reading until the connection closes
func (c *Client) run() {
	go c.writePump()
	c.readPump()
}

// readPump reads from the connection to detect disconnection and receive
// pong responses
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}

// writePump is the only writer to the connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			wsType := websocket.TextMessage
			if msg.Type == BinaryMessage {
				wsType = websocket.BinaryMessage
			}

			if err := c.conn.WriteMessage(wsType, msg.Data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
