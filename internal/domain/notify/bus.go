package notify

import (
	evbus "github.com/asaskevich/EventBus"
)

// Bus is the process-wide notification service. It is constructed once at
// startup and injected into producers and observers; consumers must
// unsubscribe on teardown.
type Bus struct {
	bus evbus.Bus
}

// New creates an empty notification bus.
func New() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish delivers an event synchronously to all subscribers.
func (b *Bus) Publish(topic string, args ...interface{}) {
	b.bus.Publish(topic, args...)
}

// Subscribe registers a callback for a topic.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

// SubscribeAsync registers a callback invoked on its own goroutine.
func (b *Bus) SubscribeAsync(topic string, fn interface{}) error {
	return b.bus.SubscribeAsync(topic, fn, false)
}

// Unsubscribe removes a previously registered callback.
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}

// WaitAsync blocks until all async callbacks have completed.
func (b *Bus) WaitAsync() {
	b.bus.WaitAsync()
}
