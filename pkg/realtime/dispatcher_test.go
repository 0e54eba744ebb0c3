package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_ExactlyOncePerRegistration(t *testing.T) {
	d := NewDispatcher(nil)

	calls := 0
	d.On(TypeEntityCreated, func(msg *Message) { calls++ })

	msg, err := NewEntityEvent(TypeEntityCreated, EntityChallenge, "ch-1", nil)
	require.NoError(t, err)

	d.Dispatch(msg)
	assert.Equal(t, 1, calls)

	d.Dispatch(msg)
	assert.Equal(t, 2, calls)
}

func TestDispatcher_WildcardReceivesEveryMessage(t *testing.T) {
	d := NewDispatcher(nil)

	var exact, wildcard int
	d.On(TypeEntityUpdated, func(msg *Message) { exact++ })
	d.On(Wildcard, func(msg *Message) { wildcard++ })

	updated, _ := NewEntityEvent(TypeEntityUpdated, EntityChallenge, "ch-1", nil)
	d.Dispatch(updated)
	d.Dispatch(NewPeerPresence(TypePeerOffline, "user-1"))

	// Wildcard handlers fire in addition to, not instead of, exact matches.
	assert.Equal(t, 1, exact)
	assert.Equal(t, 2, wildcard)
}

func TestDispatcher_DisposerRemovesOnlyItsRegistration(t *testing.T) {
	d := NewDispatcher(nil)

	var first, second int
	dispose := d.On(TypePeerOnline, func(msg *Message) { first++ })
	d.On(TypePeerOnline, func(msg *Message) { second++ })

	dispose()
	d.Dispatch(NewPeerPresence(TypePeerOnline, "user-1"))

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)

	// Double dispose is a safe no-op.
	assert.NotPanics(t, func() { dispose() })
	assert.Equal(t, 1, d.Len())
}

func TestDispatcher_EmptySetIsDeleted(t *testing.T) {
	d := NewDispatcher(nil)

	dispose := d.On(TypeEntityRemoved, func(msg *Message) {})
	dispose()

	assert.Equal(t, 0, d.Len())
	assert.NotContains(t, d.handlers, TypeEntityRemoved)
}

func TestDispatcher_PanickingHandlerDoesNotStopDelivery(t *testing.T) {
	d := NewDispatcher(nil)

	var delivered int
	d.On(TypeEntityCreated, func(msg *Message) { panic("broken subscriber") })
	d.On(TypeEntityCreated, func(msg *Message) { delivered++ })
	d.On(Wildcard, func(msg *Message) { delivered++ })

	msg, _ := NewEntityEvent(TypeEntityCreated, EntityChallenge, "ch-1", nil)
	assert.NotPanics(t, func() { d.Dispatch(msg) })
	assert.Equal(t, 2, delivered)
}
