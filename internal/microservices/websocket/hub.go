package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/microservices/http-api/service"
	"dareduel/pkg/realtime"
)

// FriendLister is the slice of the friend layer the hub needs to fan
// presence changes out to the right people.
type FriendLister interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

// ChallengeSource resolves a challenge so inbound entity events can be
// relayed to its other participant. Optional; a nil source disables relay.
type ChallengeSource interface {
	FindByID(ctx context.Context, id string) (*models.Challenge, error)
}

// Hub tracks every open connection, keyed by user so one publish reaches
// all of a user's devices. Going from zero to one connection marks the user
// online and tells their friends; dropping back to zero does the reverse.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{} // closed when the event loop has shut down

	mu      sync.RWMutex
	clients map[string]map[string]*Client // userID -> connID -> client

	presence   service.PresenceService
	friends    FriendLister
	challenges ChallengeSource
	logger     *slog.Logger
}

func NewHub(presence service.PresenceService, friends FriendLister, challenges ChallengeSource, logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string]map[string]*Client),
		presence:   presence,
		friends:    friends,
		challenges: challenges,
		logger:     logger,
	}
}

// Run is the hub's event loop. It owns all mutation of the client map.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.add(ctx, client)
		case client := <-h.Unregister:
			h.remove(ctx, client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) add(ctx context.Context, client *Client) {
	h.mu.Lock()
	conns := h.clients[client.UserID]
	if conns == nil {
		conns = make(map[string]*Client)
		h.clients[client.UserID] = conns
	}
	first := len(conns) == 0
	conns[client.ID] = client
	h.mu.Unlock()

	h.logger.Info("websocket client connected", "user_id", client.UserID, "conn_id", client.ID, "first", first)

	if first {
		if err := h.presence.MarkOnline(ctx, client.UserID); err != nil {
			h.logger.Warn("could not mark user online", "user_id", client.UserID, "error", err)
		}
		h.notifyFriends(ctx, client.UserID, realtime.NewPeerPresence(realtime.TypePeerOnline, client.UserID))
	}
}

func (h *Hub) remove(ctx context.Context, client *Client) {
	h.mu.Lock()
	conns := h.clients[client.UserID]
	var last bool
	if conns != nil {
		if _, ok := conns[client.ID]; ok {
			delete(conns, client.ID)
			client.closeSend()
		}
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
			last = true
		}
	}
	h.mu.Unlock()

	h.logger.Info("websocket client disconnected", "user_id", client.UserID, "conn_id", client.ID, "last", last)

	if last {
		if err := h.presence.MarkOffline(ctx, client.UserID); err != nil {
			h.logger.Warn("could not mark user offline", "user_id", client.UserID, "error", err)
		}
		h.notifyFriends(ctx, client.UserID, realtime.NewPeerPresence(realtime.TypePeerOffline, client.UserID))
	}
}

func (h *Hub) closeAll() {
	var notice []byte
	if msg, err := realtime.NewMessage(realtime.TypeConnectionClosed, nil); err == nil {
		notice, _ = msg.ToJSON()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for _, client := range conns {
			if notice != nil {
				client.enqueue(notice)
			}
			client.closeSend()
		}
		delete(h.clients, userID)
	}
	close(h.done)
}

// unregister hands a client back to the event loop. Read pumps can outlive
// the loop during shutdown; once it is gone the hand-off is abandoned
// instead of blocking forever.
func (h *Hub) unregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// heartbeat refreshes the presence TTL for a live connection.
func (h *Hub) heartbeat(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.presence.Refresh(ctx, client.UserID); err != nil {
		h.logger.Warn("presence refresh failed", "user_id", client.UserID, "error", err)
	}
}

// relay forwards a client-sent entity event for a challenge to the other
// participant. Only participants may relay, and only challenge events are
// accepted; everything else from clients stays server-published.
func (h *Hub) relay(client *Client, msg *realtime.Message) {
	if h.challenges == nil {
		return
	}

	var event realtime.EntityEvent
	if err := msg.DecodeData(&event); err != nil {
		h.logger.Warn("discarding malformed entity event", "user_id", client.UserID, "error", err)
		return
	}
	if event.Entity != realtime.EntityChallenge || event.EntityID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	challenge, err := h.challenges.FindByID(ctx, event.EntityID)
	if err != nil {
		h.logger.Warn("could not resolve challenge for relay", "challenge_id", event.EntityID, "error", err)
		return
	}
	if !challenge.IsParticipant(client.UserID) {
		return
	}

	other := challenge.FromUserID
	if other == client.UserID {
		other = challenge.ToUserID
	}
	h.Publish(other, msg)
}

// notifyFriends fans a presence change out to the user's friends only.
func (h *Hub) notifyFriends(ctx context.Context, userID string, msg *realtime.Message) {
	friendIDs, err := h.friends.FriendIDs(ctx, userID)
	if err != nil {
		h.logger.Warn("could not resolve friends for presence fanout", "user_id", userID, "error", err)
		return
	}
	for _, friendID := range friendIDs {
		h.Publish(friendID, msg)
	}
}

// Publish delivers msg to every open connection of userID. Implements
// service.Publisher.
func (h *Hub) Publish(userID string, msg *realtime.Message) {
	raw, err := msg.ToJSON()
	if err != nil {
		h.logger.Warn("could not encode realtime message", "type", msg.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients[userID] {
		client.enqueue(raw)
	}
}

// PublishAll delivers msg to every connected user except those in exclude.
func (h *Hub) PublishAll(msg *realtime.Message, exclude ...string) {
	raw, err := msg.ToJSON()
	if err != nil {
		h.logger.Warn("could not encode realtime message", "type", msg.Type, "error", err)
		return
	}
	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for userID, conns := range h.clients {
		if skip[userID] {
			continue
		}
		for _, client := range conns {
			client.enqueue(raw)
		}
	}
}

// ConnectedUsers returns how many distinct users currently hold a connection.
func (h *Hub) ConnectedUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
