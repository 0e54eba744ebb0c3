package realtime

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Transport is the underlying bidirectional connection. The client is its
// exclusive owner; nothing else reads or writes it.
type Transport interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer opens a transport to endpoint authenticated with token.
// Tests inject a fake; production uses DialWebSocket.
type Dialer func(endpoint, token string) (Transport, error)

const dialTimeout = 10 * time.Second

// DialWebSocket opens a gorilla websocket connection to endpoint with the
// token appended as a query credential, matching the backend /ws contract.
func DialWebSocket(endpoint, token string) (Transport, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket endpoint %q: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return &wsTransport{conn: conn}, nil
}

// wsTransport adapts *websocket.Conn to Transport. Gorilla connections allow
// only one concurrent writer, so writes are serialized here.
type wsTransport struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (t *wsTransport) ReadMessage() ([]byte, error) {
	_, data, err := t.conn.ReadMessage()
	return data, err
}

func (t *wsTransport) WriteMessage(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
