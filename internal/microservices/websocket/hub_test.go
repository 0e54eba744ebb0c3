package websocket

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"dareduel/internal/microservices/http-api/models"
	"dareduel/internal/shared"
	"dareduel/pkg/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakePresence records online/offline transitions in memory.
type fakePresence struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakePresence() *fakePresence {
	return &fakePresence{online: make(map[string]bool)}
}

func (p *fakePresence) MarkOnline(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = true
	return nil
}

func (p *fakePresence) MarkOffline(ctx context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, userID)
	return nil
}

func (p *fakePresence) Refresh(ctx context.Context, userID string) error { return nil }

func (p *fakePresence) IsOnline(ctx context.Context, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.online[userID]
}

func (p *fakePresence) Snapshot(ctx context.Context, userIDs []string) []shared.PresenceSnapshot {
	snaps := make([]shared.PresenceSnapshot, len(userIDs))
	for i, id := range userIDs {
		snaps[i] = shared.PresenceSnapshot{UserID: id, Online: p.IsOnline(ctx, id)}
	}
	return snaps
}

// fakeFriends answers FriendIDs from a static adjacency map.
type fakeFriends struct {
	friends map[string][]string
}

func (f *fakeFriends) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	return f.friends[userID], nil
}

// fakeChallenges serves a fixed set of challenges for relay tests.
type fakeChallenges struct {
	byID map[string]*models.Challenge
}

func (f *fakeChallenges) FindByID(ctx context.Context, id string) (*models.Challenge, error) {
	if ch, ok := f.byID[id]; ok {
		return ch, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func testHub(t *testing.T, friends map[string][]string) (*Hub, *fakePresence, context.CancelFunc) {
	t.Helper()
	presence := newFakePresence()
	hub := NewHub(presence, &fakeFriends{friends: friends}, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	return hub, presence, cancel
}

// testClient builds a client without a live connection; the pumps are never
// started so only the hub-side paths run.
func testClient(connID, userID string, hub *Hub) *Client {
	return NewClient(connID, userID, userID, nil, hub)
}

func waitForUsers(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.ConnectedUsers() == n },
		time.Second, 5*time.Millisecond)
}

func decode(t *testing.T, raw []byte) *realtime.Message {
	t.Helper()
	msg, err := realtime.MessageFromJSON(raw)
	require.NoError(t, err)
	return msg
}

func TestHub_FirstConnectionAnnouncesToFriends(t *testing.T) {
	hub, presence, cancel := testHub(t, map[string][]string{
		"alice": {"bob", "carol"},
	})
	defer cancel()

	bob := testClient("c-bob", "bob", hub)
	hub.Register <- bob
	waitForUsers(t, hub, 1)

	alice := testClient("c-alice", "alice", hub)
	hub.Register <- alice
	waitForUsers(t, hub, 2)

	assert.True(t, presence.IsOnline(context.Background(), "alice"))

	select {
	case raw := <-bob.SendChannel:
		msg := decode(t, raw)
		assert.Equal(t, realtime.TypePeerOnline, msg.Type)
		var p realtime.PeerPresence
		require.NoError(t, msg.DecodeData(&p))
		assert.Equal(t, "alice", p.UserID)
	case <-time.After(time.Second):
		t.Fatal("bob never received the peer-online event")
	}
}

func TestHub_SecondConnectionIsSilent(t *testing.T) {
	hub, _, cancel := testHub(t, map[string][]string{
		"alice": {"bob"},
	})
	defer cancel()

	bob := testClient("c-bob", "bob", hub)
	hub.Register <- bob
	waitForUsers(t, hub, 1)

	hub.Register <- testClient("phone", "alice", hub)
	waitForUsers(t, hub, 2)
	<-bob.SendChannel // peer-online for the first connection

	hub.Register <- testClient("laptop", "alice", hub)

	select {
	case raw := <-bob.SendChannel:
		t.Fatalf("unexpected fanout for a second connection: %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_LastDisconnectMarksOffline(t *testing.T) {
	hub, presence, cancel := testHub(t, map[string][]string{
		"alice": {"bob"},
	})
	defer cancel()

	bob := testClient("c-bob", "bob", hub)
	hub.Register <- bob
	waitForUsers(t, hub, 1)

	phone := testClient("phone", "alice", hub)
	laptop := testClient("laptop", "alice", hub)
	hub.Register <- phone
	hub.Register <- laptop
	waitForUsers(t, hub, 2)
	<-bob.SendChannel // peer-online

	hub.Unregister <- phone
	// still one connection left, alice stays online
	select {
	case <-bob.SendChannel:
		t.Fatal("offline announced while a connection was still open")
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, presence.IsOnline(context.Background(), "alice"))

	hub.Unregister <- laptop
	waitForUsers(t, hub, 1)

	select {
	case raw := <-bob.SendChannel:
		assert.Equal(t, realtime.TypePeerOffline, decode(t, raw).Type)
	case <-time.After(time.Second):
		t.Fatal("bob never received the peer-offline event")
	}
	assert.False(t, presence.IsOnline(context.Background(), "alice"))
}

func TestHub_PublishReachesAllConnectionsOfUser(t *testing.T) {
	hub, _, cancel := testHub(t, nil)
	defer cancel()

	phone := testClient("phone", "alice", hub)
	laptop := testClient("laptop", "alice", hub)
	hub.Register <- phone
	hub.Register <- laptop
	waitForUsers(t, hub, 1)

	msg, err := realtime.NewEntityEvent(realtime.TypeEntityCreated, realtime.EntityChallenge, "ch-1", nil)
	require.NoError(t, err)
	hub.Publish("alice", msg)

	for _, c := range []*Client{phone, laptop} {
		select {
		case raw := <-c.SendChannel:
			assert.Equal(t, realtime.TypeEntityCreated, decode(t, raw).Type)
		case <-time.After(time.Second):
			t.Fatalf("connection %s missed the publish", c.ID)
		}
	}
}

func TestHub_PublishToOfflineUserIsNoOp(t *testing.T) {
	hub, _, cancel := testHub(t, nil)
	defer cancel()

	msg, err := realtime.NewEntityEvent(realtime.TypeEntityCreated, realtime.EntityChallenge, "ch-1", nil)
	require.NoError(t, err)
	hub.Publish("ghost", msg) // must not panic or block
}

func TestHub_PublishAllHonorsExclusions(t *testing.T) {
	hub, _, cancel := testHub(t, nil)
	defer cancel()

	alice := testClient("c-alice", "alice", hub)
	bob := testClient("c-bob", "bob", hub)
	hub.Register <- alice
	hub.Register <- bob
	waitForUsers(t, hub, 2)

	msg, err := realtime.NewMessage(realtime.TypeEntityUpdated, map[string]string{"k": "v"})
	require.NoError(t, err)
	hub.PublishAll(msg, "alice")

	select {
	case <-bob.SendChannel:
	case <-time.After(time.Second):
		t.Fatal("bob missed the broadcast")
	}
	select {
	case <-alice.SendChannel:
		t.Fatal("excluded user received the broadcast")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RelayReachesOtherParticipant(t *testing.T) {
	hub, _, cancel := testHub(t, nil)
	defer cancel()
	hub.challenges = &fakeChallenges{byID: map[string]*models.Challenge{
		"ch-1": {ID: "ch-1", FromUserID: "alice", ToUserID: "bob"},
	}}

	alice := testClient("c-alice", "alice", hub)
	bob := testClient("c-bob", "bob", hub)
	hub.Register <- alice
	hub.Register <- bob
	waitForUsers(t, hub, 2)

	msg, err := realtime.NewEntityEvent(realtime.TypeEntityUpdated, realtime.EntityChallenge, "ch-1", nil)
	require.NoError(t, err)
	hub.relay(alice, msg)

	select {
	case raw := <-bob.SendChannel:
		assert.Equal(t, realtime.TypeEntityUpdated, decode(t, raw).Type)
	case <-time.After(time.Second):
		t.Fatal("bob never received the relayed event")
	}
	select {
	case <-alice.SendChannel:
		t.Fatal("relay echoed back to the sender")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RelayRejectsNonParticipants(t *testing.T) {
	hub, _, cancel := testHub(t, nil)
	defer cancel()
	hub.challenges = &fakeChallenges{byID: map[string]*models.Challenge{
		"ch-1": {ID: "ch-1", FromUserID: "alice", ToUserID: "bob"},
	}}

	bob := testClient("c-bob", "bob", hub)
	mallory := testClient("c-mallory", "mallory", hub)
	hub.Register <- bob
	hub.Register <- mallory
	waitForUsers(t, hub, 2)

	msg, err := realtime.NewEntityEvent(realtime.TypeEntityUpdated, realtime.EntityChallenge, "ch-1", nil)
	require.NoError(t, err)
	hub.relay(mallory, msg)

	select {
	case <-bob.SendChannel:
		t.Fatal("relay accepted an event from a non-participant")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_ShutdownToleratesLateClientActivity(t *testing.T) {
	hub, _, cancel := testHub(t, nil)

	alice := testClient("c-alice", "alice", hub)
	hub.Register <- alice
	waitForUsers(t, hub, 1)

	cancel()
	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not shut down")
	}

	// a read pump racing the shutdown must neither panic nor block
	assert.NotPanics(t, func() { alice.enqueue([]byte("late")) })

	finished := make(chan struct{})
	go func() {
		hub.unregister(alice)
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after hub shutdown")
	}
}

func TestHub_ShutdownSendsClosingNotice(t *testing.T) {
	hub, _, cancel := testHub(t, nil)

	alice := testClient("c-alice", "alice", hub)
	hub.Register <- alice
	waitForUsers(t, hub, 1)

	cancel()
	select {
	case <-hub.done:
	case <-time.After(time.Second):
		t.Fatal("hub did not shut down")
	}

	select {
	case raw := <-alice.SendChannel:
		assert.Equal(t, realtime.TypeConnectionClosed, decode(t, raw).Type)
	default:
		t.Fatal("no closing notice was queued")
	}

	// after the notice the channel is closed so WritePump can finish
	_, open := <-alice.SendChannel
	assert.False(t, open)
}
