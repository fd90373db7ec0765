package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// changesTopic is the watermill topic every change is mirrored to.
const changesTopic = "store.changes"

type subscriberEntry struct {
	id uint64
	fn Subscriber
}

// Bus fans store changes out to direct subscribers and to a watermill
// gochannel for stream consumers.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	subscribers map[Collection][]subscriberEntry
	global      []subscriberEntry

	nextID uint64
	closed bool
}

// NewBus creates a bus with an in-process watermill gochannel.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
		subscribers: make(map[Collection][]subscriberEntry),
	}
}

func (b *Bus) newID() uint64 {
	return atomic.AddUint64(&b.nextID, 1)
}

// Subscribe registers fn for changes to one collection.
// Returns an unsubscribe function; calling it more than once is harmless.
func (b *Bus) Subscribe(c Collection, fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.subscribers[c] = append(b.subscribers[c], subscriberEntry{id: id, fn: fn})

	return func() {
		b.unsubscribe(c, id)
	}
}

// SubscribeAll registers fn for changes to every collection.
func (b *Bus) SubscribeAll(fn Subscriber) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return func() {}
	}

	id := b.newID()
	b.global = append(b.global, subscriberEntry{id: id, fn: fn})

	return func() {
		b.unsubscribeGlobal(id)
	}
}

func (b *Bus) unsubscribe(c Collection, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[c]
	for i, entry := range subs {
		if entry.id == id {
			b.subscribers[c] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

func (b *Bus) unsubscribeGlobal(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, entry := range b.global {
		if entry.id == id {
			b.global = append(b.global[:i:i], b.global[i+1:]...)
			break
		}
	}
}

// Publish delivers c to every matching subscriber synchronously, then mirrors
// it onto the watermill topic.
func (b *Bus) Publish(c Change) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil
	}
	subs := make([]Subscriber, 0, len(b.subscribers[c.Collection])+len(b.global))
	for _, entry := range b.subscribers[c.Collection] {
		subs = append(subs, entry.fn)
	}
	for _, entry := range b.global {
		subs = append(subs, entry.fn)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub(c)
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding change: %w", err)
	}
	if err := b.pubsub.Publish(changesTopic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		return fmt.Errorf("publishing change: %w", err)
	}
	return nil
}

// Stream returns changes published after the call until ctx is done or the
// bus is closed. Messages are acknowledged as they are decoded.
func (b *Bus) Stream(ctx context.Context) (<-chan Change, error) {
	msgs, err := b.pubsub.Subscribe(ctx, changesTopic)
	if err != nil {
		return nil, fmt.Errorf("subscribing to changes: %w", err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		for msg := range msgs {
			var c Change
			err := json.Unmarshal(msg.Payload, &c)
			msg.Ack()
			if err != nil {
				continue
			}
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close drops every subscriber and closes the watermill channel.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.subscribers = make(map[Collection][]subscriberEntry)
	b.global = nil
	b.mu.Unlock()

	return b.pubsub.Close()
}
