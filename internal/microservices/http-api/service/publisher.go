package service

import "dareduel/pkg/realtime"

// Publisher pushes realtime messages to connected users. The websocket hub
// implements it; services depend on this interface so they never import the
// websocket package directly.
type Publisher interface {
	// Publish delivers msg to every open connection of userID. Offline users
	// are silently skipped.
	Publish(userID string, msg *realtime.Message)
	// PublishAll delivers msg to every connected user except those in exclude.
	PublishAll(msg *realtime.Message, exclude ...string)
}

// NoopPublisher discards everything. Used by the CLI and in tests where no
// hub is running.
type NoopPublisher struct{}

func (NoopPublisher) Publish(string, *realtime.Message)       {}
func (NoopPublisher) PublishAll(*realtime.Message, ...string) {}
