// Package event is a small pub/sub bus for run and connection lifecycle
// events, built on watermill's gochannel transport.
package event

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Type identifies an event.
type Type string

const (
	ServerConnected Type = "mcp.server.connected"
	ServerFailed    Type = "mcp.server.failed"
	RunStarted      Type = "agent.run.started"
	RunFinished     Type = "agent.run.finished"
)

// ServerData is the payload of MCP server lifecycle events.
type ServerData struct {
	Server string `json:"server"`
	Tools  int    `json:"tools,omitempty"`
	Err    string `json:"error,omitempty"`
}

// RunData is the payload of agent run events.
type RunData struct {
	RunID string `json:"runId"`
	Agent string `json:"agent"`
	Err   string `json:"error,omitempty"`
}

// Event is one published event with its decoded payload.
type Event struct {
	Type    Type
	Payload json.RawMessage
}

// Bus fans events out to subscribers. Each event type maps to one watermill
// topic; subscribers receive events on their own goroutine.
type Bus struct {
	pubsub *gochannel.GoChannel

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// NewBus creates an independent bus, mainly for tests.
func NewBus() *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			watermill.NopLogger{},
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

var defaultBus = NewBus()

// Publish sends an event on the default bus.
func Publish(t Type, payload any) {
	defaultBus.Publish(t, payload)
}

// Subscribe registers a handler for one event type on the default bus and
// returns an unsubscribe function.
func Subscribe(t Type, fn func(Event)) func() {
	return defaultBus.Subscribe(t, fn)
}

// Publish sends an event. Payloads are JSON-encoded; events with payloads
// that cannot be encoded are dropped.
func (b *Bus) Publish(t Type, payload any) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	_ = b.pubsub.Publish(string(t), msg)
}

// Subscribe registers a handler for one event type. The handler runs on a
// bus goroutine; it must not block indefinitely.
func (b *Bus) Subscribe(t Type, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}

	ctx, cancel := context.WithCancel(b.ctx)
	messages, err := b.pubsub.Subscribe(ctx, string(t))
	if err != nil {
		cancel()
		return func() {}
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for msg := range messages {
			fn(Event{Type: t, Payload: json.RawMessage(msg.Payload)})
			msg.Ack()
		}
	}()

	return cancel
}

// Close shuts the bus down and waits for subscriber goroutines to drain.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	_ = b.pubsub.Close()
	b.wg.Wait()
}
