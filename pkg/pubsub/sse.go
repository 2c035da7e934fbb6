package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/gridlights/pkg/logging"
)

// ErrClosed is returned by a publisher after Close
var ErrClosed = errors.New("publisher is closed")

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

// SubscriberBuffer is the per-subscription channel capacity. Slow readers
// drop events rather than stall the publisher.
const SubscriberBuffer = 64

// topic holds everything the publisher tracks for one topic name
type topic struct {
	config  TopicConfig
	subs    map[*sseSubscription]struct{}
	version int
	history []Event
	dropped int
}

// replay returns the events a new subscriber should see first
func (t *topic) replay() []Event {
	if t.config.ReplayAll || len(t.history) == 0 {
		return t.history
	}
	return t.history[len(t.history)-1:]
}

func (t *topic) record(e Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.history = append(t.history, e)
	if over := len(t.history) - t.config.BufferSize; over > 0 {
		t.history = append(t.history[:0], t.history[over:]...)
	}
}

// SSEPublisher implements Publisher for Server-Sent Event handlers
type SSEPublisher struct {
	mu     sync.RWMutex
	topics map[string]*topic
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topic)}
}

// topicLocked returns the state for name, creating it; callers hold mu
func (p *SSEPublisher) topicLocked(name string) *topic {
	t, ok := p.topics[name]
	if !ok {
		t = &topic{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(name string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topicLocked(name).config = config
}

// Subscribe creates a subscription that is closed when ctx is done. Buffered
// events are queued before the subscription becomes visible to Publish, so a
// replayed event never arrives after a newer live one.
func (p *SSEPublisher) Subscribe(ctx context.Context, name string) (Subscription, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}

	t := p.topicLocked(name)
	sub := &sseSubscription{
		topic:     name,
		events:    make(chan Event, SubscriberBuffer),
		publisher: p,
	}

	replayed := 0
	for _, event := range t.replay() {
		select {
		case sub.events <- event:
			replayed++
		default:
			logging.Warn("could not replay event to new subscriber", "topic", name, "version", event.Version)
		}
	}
	t.subs[sub] = struct{}{}
	count := len(t.subs)
	p.mu.Unlock()

	logging.Debug("subscribed", "topic", name, "replayed", replayed, "subscribers", count)

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish encodes data once and fans it out without blocking
func (p *SSEPublisher) Publish(name string, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", name, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topicLocked(name)
	t.version++
	event := Event{Topic: name, Type: eventType, Data: payload, Version: t.version}
	t.record(event)

	for sub := range t.subs {
		select {
		case sub.events <- event:
		default:
			// Frames arrive at tick rate; log the first drop and then every hundredth
			t.dropped++
			if t.dropped == 1 || t.dropped%100 == 0 {
				logging.Warn("subscription channel full, dropping events", "topic", name, "dropped", t.dropped)
			}
		}
	}
	return nil
}

// Subscribers returns the number of live subscriptions to a topic
func (p *SSEPublisher) Subscribers(name string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if t, ok := p.topics[name]; ok {
		return len(t.subs)
	}
	return 0
}

// Close ends every subscription; their event channels are closed
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			close(sub.events)
		}
		clear(t.subs)
	}
	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.topics[sub.topic]; ok {
		delete(t.subs, sub)
	}
}

type sseSubscription struct {
	topic     string
	events    chan Event
	publisher *SSEPublisher

	once sync.Once
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.once.Do(func() { s.publisher.unsubscribe(s) })
	return nil
}

// WriteSSE writes one event as a named SSE message:
// "event: <type>\ndata: {json}\n\n"
func WriteSSE(w io.Writer, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
	return err
}
