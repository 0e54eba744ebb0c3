package websocket

import (
	"log/slog"
	"sync"
	"time"

	"dareduel/pkg/realtime"

	"github.com/gorilla/websocket"
)

const ( // ping pong(2-way heartbeat) to keep connection alive
	WriteWait      = 10 * time.Second    // max time write a message to the peer
	PongWait       = 60 * time.Second    // max time to wait for pong from peer => no pong = no connection
	PingPeriod     = (PongWait * 9) / 10 // send ping before pong wait expires, slack for network jitter
	MaxMessageSize = 4096                // maximum message size allowed from peer
)

// Client is one websocket connection of one user. A user may hold several
// at once (phone plus browser), each with its own connection id.
type Client struct {
	ID          string          // unique connection ID
	UserID      string          // user ID from auth token (JWT claims)
	Username    string          // user name from auth token (JWT claims)
	Conn        *websocket.Conn // WebSocket connection
	SendChannel chan []byte     // channel for outbound messages
	Hub         *Hub            // reference to the central Hub

	sendMu     sync.Mutex // guards sendClosed and the close of SendChannel
	sendClosed bool
}

func NewClient(id, userID, username string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:          id,
		UserID:      userID,
		Username:    username,
		Conn:        conn,
		SendChannel: make(chan []byte, 64),
		Hub:         hub,
	}
}

// ReadPump drains inbound frames until the connection dies. Application
// heartbeat-pings get an immediate heartbeat-pong and refresh the user's
// presence TTL, challenge entity events are relayed to the other
// participant, everything else from clients is ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(PongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "user_id", c.UserID, "conn_id", c.ID, "error", err)
			}
			return
		}

		msg, err := realtime.MessageFromJSON(raw)
		if err != nil {
			slog.Warn("discarding malformed websocket message", "user_id", c.UserID, "error", err)
			continue
		}

		switch msg.Type {
		case realtime.TypeHeartbeatPing:
			c.Hub.heartbeat(c)
			pong, _ := realtime.NewHeartbeat(realtime.TypeHeartbeatPong).ToJSON()
			c.enqueue(pong)
		case realtime.TypeEntityCreated, realtime.TypeEntityUpdated:
			c.Hub.relay(c, msg)
		}
	}
}

// WritePump serializes all writes to the connection and keeps the
// protocol-level ping/pong going.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.SendChannel:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if !ok {
				// hub closed the channel
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue drops the message when the client's buffer is full rather than
// blocking the hub behind a slow reader. Once closeSend has run, messages
// are dropped silently; the read pump may still be racing the hub here.
func (c *Client) enqueue(message []byte) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return
	}
	select {
	case c.SendChannel <- message:
	default:
		slog.Warn("dropping message for slow websocket client", "user_id", c.UserID, "conn_id", c.ID)
	}
}

// closeSend closes the outbound channel exactly once, which ends WritePump.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.SendChannel)
	}
}
