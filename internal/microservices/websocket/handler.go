package websocket

import (
	"net/http"
	"time"

	"dareduel/internal/microservices/http-api/service"
	"dareduel/pkg/realtime"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// HTTP upgrade handler to WebSocket connections

// CloseInvalidToken is sent when the token query parameter is missing or
// rejected. Clients treat it as "re-authenticate", not "retry".
const CloseInvalidToken = 4001

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// allow all origins for development purpose; can restrict later
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSHandler upgrades GET /ws?token=<jwt> to a WebSocket connection.
// Browsers cannot set an Authorization header on a websocket dial, so the
// token travels as a query parameter and is validated after the upgrade;
// a bad token gets close code 4001 instead of an HTTP status.
func WSHandler(hub *Hub, authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upgrade to websocket"})
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			deadline := time.Now().Add(WriteWait)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(CloseInvalidToken, "invalid token"), deadline)
			conn.Close()
			return
		}

		client := NewClient(
			uuid.New().String(), // connection ID, unique per socket
			claims.UserID,
			claims.Username,
			conn,
			hub,
		)

		hub.Register <- client

		// session acknowledgment, the first frame every client sees
		if ack, err := realtime.NewMessage(realtime.TypeConnectionOpened,
			realtime.PeerPresence{UserID: claims.UserID}); err == nil {
			if raw, err := ack.ToJSON(); err == nil {
				client.enqueue(raw)
			}
		}

		go client.ReadPump()
		go client.WritePump()
	}
}
