package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message protocol definitions shared by the server hub and the client.

// MessageType tags every frame crossing the wire.
type MessageType string

const ( // trigger when +
	TypeConnectionOpened MessageType = "connection-opened" // server acknowledged the session
	TypeConnectionClosed MessageType = "connection-closed" // server is about to drop the session
	TypeEntityCreated    MessageType = "entity-created"    // a domain entity was created (challenge, friend request, ...)
	TypeEntityUpdated    MessageType = "entity-updated"    // a domain entity changed state
	TypeEntityRemoved    MessageType = "entity-removed"    // a domain entity was deleted
	TypePeerOnline       MessageType = "peer-online"       // a user came online
	TypePeerOffline      MessageType = "peer-offline"      // a user went offline
	TypeHeartbeatPing    MessageType = "heartbeat-ping"    // client keep-alive
	TypeHeartbeatPong    MessageType = "heartbeat-pong"    // server keep-alive reply, never forwarded to subscribers
)

// Wildcard subscribes a handler to every message type.
const Wildcard MessageType = "*"

// Message is a single frame: a type tag plus a type-dependent payload.
// Messages are immutable once constructed and cross the wire as JSON text.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// PeerPresence is the payload of peer-online / peer-offline messages.
type PeerPresence struct {
	UserID string `json:"user_id"`
}

// Entity names accepted in EntityEvent payloads.
const (
	EntityChallenge     = "challenge"
	EntityFriendRequest = "friend_request"
	EntityNotification  = "notification"
)

// EntityEvent is the payload of entity-created / entity-updated / entity-removed
// messages. Payload carries the entity snapshot and is defined by the backend.
type EntityEvent struct {
	Entity    string          `json:"entity"`
	EntityID  string          `json:"entity_id"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// Unpack decodes the entity snapshot carried in Payload into v.
func (e *EntityEvent) Unpack(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("no payload for %s %s", e.Entity, e.EntityID)
	}
	return json.Unmarshal(e.Payload, v)
}

// NewMessage builds a message with the given payload marshaled into Data.
func NewMessage(msgType MessageType, payload any) (*Message, error) {
	msg := &Message{Type: msgType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", msgType, err)
		}
		msg.Data = data
	}
	return msg, nil
}

// NewEntityEvent builds an entity-* message for the given entity snapshot.
func NewEntityEvent(msgType MessageType, entity, entityID string, payload any) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s payload: %w", entity, err)
		}
		raw = data
	}
	return NewMessage(msgType, EntityEvent{
		Entity:    entity,
		EntityID:  entityID,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	})
}

// NewPeerPresence builds a peer-online or peer-offline message for userID.
func NewPeerPresence(msgType MessageType, userID string) *Message {
	msg, _ := NewMessage(msgType, PeerPresence{UserID: userID})
	return msg
}

// NewHeartbeat builds a heartbeat-ping or heartbeat-pong frame.
func NewHeartbeat(msgType MessageType) *Message {
	return &Message{Type: msgType}
}

// ToJSON: marshal Message struct to JSON
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON: unmarshal JSON data to Message struct
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("malformed message: missing type tag")
	}
	return &msg, nil
}

// DecodeData unmarshals the payload into v, narrowing it to the shape
// expected for the message's type tag.
func (m *Message) DecodeData(v any) error {
	if len(m.Data) == 0 {
		return fmt.Errorf("message %s has no payload", m.Type)
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", m.Type, err)
	}
	return nil
}
