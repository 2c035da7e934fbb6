package pubsub

import (
	"context"
	"encoding/json"
)

// Topics published by the simulation host
const (
	TopicGrid   = "grid"   // static lines, one event per rebuild
	TopicFrames = "frames" // dynamic state, one event per tick
	TopicStatus = "status" // start/stop transitions
)

// Event types
const (
	EventLines  = "lines"
	EventFrame  = "frame"
	EventStatus = "status"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "grid", "frames")
	Type    string          `json:"type"`    // Event type (e.g., "lines", "frame")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// Status is the payload of TopicStatus events
type Status struct {
	Running bool   `json:"running"`
	Frame   uint64 `json:"frame"`
}
