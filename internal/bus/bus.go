package bus

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nidhogg/vivarium/internal/interaction"
	"github.com/nidhogg/vivarium/internal/relation"
	"go.uber.org/zap"
)

// EventKind categorizes ecosystem events.
type EventKind string

const (
	EventInteraction EventKind = "interaction"
	EventRejection   EventKind = "rejection"
)

// Event is one item on an ecosystem's live stream.
type Event struct {
	ID           string              `json:"id"`
	EcosystemID  string              `json:"ecosystem_id"`
	Kind         EventKind           `json:"kind"`
	Interaction  *interaction.Record `json:"interaction,omitempty"`
	Relationship *relation.Snapshot  `json:"relationship,omitempty"`
	Timestamp    time.Time           `json:"timestamp"`
}

// ErrBufferOverrun reports that a subscriber was evicted because its
// buffer filled. It surfaces on the subscription, never to the
// publisher.
var ErrBufferOverrun = errors.New("subscriber buffer overrun")

// ErrClosed reports that the bus was shut down.
var ErrClosed = errors.New("bus closed")

// DefaultBufferSize is the per-subscriber event buffer.
const DefaultBufferSize = 32

// Subscription is one attached observer of an ecosystem's stream. The
// channel closes on unsubscribe, eviction, or bus shutdown; Err tells
// the three apart.
type Subscription struct {
	id          string
	ecosystemID string
	ch          chan Event

	mu  sync.Mutex
	err error
}

// Events returns the subscriber's ordered event channel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// EcosystemID returns the ecosystem this subscription watches.
func (s *Subscription) EcosystemID() string { return s.ecosystemID }

// Err returns why the channel closed: ErrBufferOverrun, ErrClosed, or
// nil for a plain unsubscribe.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// Bus fans interaction events out to subscribers grouped by ecosystem.
// Publish never blocks: a subscriber that cannot keep up is evicted
// with ErrBufferOverrun. For a single ecosystem every surviving
// subscriber sees events in publish order.
type Bus struct {
	subscribers map[string]map[string]*Subscription // ecosystemID -> subID -> sub
	bufferSize  int
	closed      bool
	mu          sync.Mutex
	logger      *zap.Logger
}

// New creates a bus with the given per-subscriber buffer size; size <= 0
// means DefaultBufferSize.
func New(bufferSize int, logger *zap.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Bus{
		subscribers: make(map[string]map[string]*Subscription),
		bufferSize:  bufferSize,
		logger:      logger,
	}
}

// Subscribe attaches a new observer to an ecosystem's stream. There is
// no replay: the stream starts with the next published event.
func (b *Bus) Subscribe(ecosystemID string) *Subscription {
	sub := &Subscription{
		id:          uuid.New().String(),
		ecosystemID: ecosystemID,
		ch:          make(chan Event, b.bufferSize),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		sub.fail(ErrClosed)
		close(sub.ch)
		return sub
	}
	subs, ok := b.subscribers[ecosystemID]
	if !ok {
		subs = make(map[string]*Subscription)
		b.subscribers[ecosystemID] = subs
	}
	subs[sub.id] = sub

	b.logger.Debug("subscriber attached",
		zap.String("ecosystem", ecosystemID),
		zap.String("subscription", sub.id))
	return sub
}

// Unsubscribe detaches a subscription and closes its channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.remove(sub, nil)
}

// Publish delivers the event to every live subscriber of the ecosystem.
// Sends are serialized under the bus lock, so each subscriber channel
// receives events in the exact publish order.
func (b *Bus) Publish(ecosystemID string, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ev.EcosystemID = ecosystemID

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, sub := range b.subscribers[ecosystemID] {
		select {
		case sub.ch <- ev:
		default:
			// Slow subscriber: evict rather than block the publisher.
			b.remove(sub, ErrBufferOverrun)
			b.logger.Warn("subscriber evicted on buffer overrun",
				zap.String("ecosystem", ecosystemID),
				zap.String("subscription", sub.id))
		}
	}
}

// SubscriberCount returns the number of live subscribers for an
// ecosystem.
func (b *Bus) SubscriberCount(ecosystemID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[ecosystemID])
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, subs := range b.subscribers {
		for _, sub := range subs {
			sub.fail(ErrClosed)
			close(sub.ch)
		}
	}
	b.subscribers = nil
}

// remove detaches and closes a subscription (caller holds lock).
func (b *Bus) remove(sub *Subscription, reason error) {
	subs, ok := b.subscribers[sub.ecosystemID]
	if !ok {
		return
	}
	if _, ok := subs[sub.id]; !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(b.subscribers, sub.ecosystemID)
	}
	if reason != nil {
		sub.fail(reason)
	}
	close(sub.ch)
}
