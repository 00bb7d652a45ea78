package event

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"sync/atomic"
)

// Handler receives a published event. The payload type is topic-specific;
// handlers are expected to type-assert what they need.
type Handler func(topic Topic, payload any)

// Bus is a synchronous publish/subscribe bus. Publish delivers to every
// matching subscription, in subscription order, before returning. Handler
// panics are isolated so one misbehaving subscriber cannot take down the
// publisher.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription

	published     atomic.Uint64
	delivered     atomic.Uint64
	handlerPanics atomic.Uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for every topic matching the pattern.
// The returned subscription stays active until Cancel is called.
func (b *Bus) Subscribe(pattern Topic, fn Handler) (*Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() && pattern != "**" {
		return nil, ErrInvalidTopic
	}

	sub := &Subscription{
		id:      generateID(),
		pattern: pattern,
		fn:      fn,
		bus:     b,
	}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	return sub, nil
}

// Publish delivers payload to every subscription whose pattern matches topic.
func (b *Bus) Publish(topic Topic, payload any) error {
	if !topic.IsValid() {
		return ErrInvalidTopic
	}

	b.mu.RLock()
	matched := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if !sub.cancelled.Load() && topic.Match(sub.pattern) {
			matched = append(matched, sub)
		}
	}
	b.mu.RUnlock()

	b.published.Add(1)

	for _, sub := range matched {
		b.dispatch(sub, topic, payload)
	}
	return nil
}

func (b *Bus) dispatch(sub *Subscription, topic Topic, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
		}
	}()

	sub.fn(topic, payload)
	b.delivered.Add(1)
}

// Stats reports cumulative bus counters.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	active := 0
	for _, sub := range b.subs {
		if !sub.cancelled.Load() {
			active++
		}
	}
	b.mu.RUnlock()

	return Stats{
		Published:     b.published.Load(),
		Delivered:     b.delivered.Load(),
		HandlerPanics: b.handlerPanics.Load(),
		ActiveSubs:    active,
	}
}

// Stats contains bus counters.
type Stats struct {
	// Published is the number of Publish calls accepted.
	Published uint64

	// Delivered is the number of successful handler invocations.
	Delivered uint64

	// HandlerPanics is the number of handler panics recovered.
	HandlerPanics uint64

	// ActiveSubs is the number of non-cancelled subscriptions.
	ActiveSubs int
}

// Subscription is an active registration on a bus.
type Subscription struct {
	id        string
	pattern   Topic
	fn        Handler
	bus       *Bus
	cancelled atomic.Bool
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Pattern returns the subscribed topic pattern.
func (s *Subscription) Pattern() Topic { return s.pattern }

// IsActive reports whether the subscription can still receive events.
func (s *Subscription) IsActive() bool { return !s.cancelled.Load() }

// Cancel permanently removes the subscription from its bus. It is safe to
// call more than once.
func (s *Subscription) Cancel() {
	if s.cancelled.Swap(true) {
		return
	}

	s.bus.mu.Lock()
	for i, sub := range s.bus.subs {
		if sub == s {
			s.bus.subs = append(s.bus.subs[:i], s.bus.subs[i+1:]...)
			break
		}
	}
	s.bus.mu.Unlock()
}

// generateID creates a random hex identifier for a subscription.
func generateID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "sub-unknown"
	}
	return hex.EncodeToString(buf)
}
