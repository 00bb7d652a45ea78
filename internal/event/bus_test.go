package event

import (
	"testing"
)

func TestTopicMatch(t *testing.T) {
	tests := []struct {
		name     string
		topic    Topic
		pattern  Topic
		expected bool
	}{
		{name: "exact match", topic: "debug.entity.created", pattern: "debug.entity.created", expected: true},
		{name: "exact mismatch", topic: "debug.entity.created", pattern: "debug.entity.disposed", expected: false},
		{name: "single wildcard", topic: "debug.entity.created", pattern: "debug.entity.*", expected: true},
		{name: "single wildcard wrong depth", topic: "debug.entity.created", pattern: "debug.*", expected: false},
		{name: "double wildcard tail", topic: "debug.entity.created", pattern: "debug.**", expected: true},
		{name: "double wildcard zero segments", topic: "debug.entity", pattern: "debug.entity.**", expected: true},
		{name: "double wildcard everything", topic: "config.reloaded", pattern: "**", expected: true},
		{name: "wildcard middle", topic: "debug.entity.field", pattern: "debug.*.field", expected: true},
		{name: "shorter topic", topic: "debug", pattern: "debug.entity", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.topic.Match(tt.pattern); got != tt.expected {
				t.Errorf("Match(%q, %q) = %v, expected %v", tt.topic, tt.pattern, got, tt.expected)
			}
		})
	}
}

func TestBusPublishDelivers(t *testing.T) {
	bus := NewBus()

	var got []Topic
	sub, err := bus.Subscribe("debug.entity.*", func(topic Topic, payload any) {
		got = append(got, topic)
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	defer sub.Cancel()

	if err := bus.Publish(TopicEntityCreated, nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if err := bus.Publish(TopicFocusChanged, nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	if len(got) != 1 || got[0] != TopicEntityCreated {
		t.Errorf("delivered topics = %v, expected [debug.entity.created]", got)
	}
}

func TestBusSubscribeValidation(t *testing.T) {
	bus := NewBus()

	if _, err := bus.Subscribe("a.b", nil); err != ErrNilHandler {
		t.Errorf("Subscribe(nil handler) error = %v, expected ErrNilHandler", err)
	}
	if _, err := bus.Subscribe("", func(Topic, any) {}); err != ErrInvalidTopic {
		t.Errorf("Subscribe(empty pattern) error = %v, expected ErrInvalidTopic", err)
	}
	if _, err := bus.Subscribe("a..b", func(Topic, any) {}); err != ErrInvalidTopic {
		t.Errorf("Subscribe(empty segment) error = %v, expected ErrInvalidTopic", err)
	}
}

func TestBusCancelStopsDelivery(t *testing.T) {
	bus := NewBus()

	count := 0
	sub, err := bus.Subscribe("**", func(Topic, any) { count++ })
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	bus.Publish(TopicEntityCreated, nil)
	sub.Cancel()
	sub.Cancel() // idempotent
	bus.Publish(TopicEntityCreated, nil)

	if count != 1 {
		t.Errorf("handler ran %d times, expected 1", count)
	}
	if sub.IsActive() {
		t.Error("IsActive() = true after Cancel")
	}
}

func TestBusPanicIsolation(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("debug.**", func(Topic, any) { panic("boom") })

	ran := false
	bus.Subscribe("debug.**", func(Topic, any) { ran = true })

	if err := bus.Publish(TopicEntityDisposed, nil); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !ran {
		t.Error("second handler did not run after first panicked")
	}
	if stats := bus.Stats(); stats.HandlerPanics != 1 {
		t.Errorf("HandlerPanics = %d, expected 1", stats.HandlerPanics)
	}
}

func TestBusSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		bus.Subscribe("debug.focus.changed", func(Topic, any) {
			order = append(order, i)
		})
	}

	bus.Publish(TopicFocusChanged, nil)

	if len(order) != 3 || order[0] != 0 || order[1] != 1 || order[2] != 2 {
		t.Errorf("delivery order = %v, expected [0 1 2]", order)
	}
}
