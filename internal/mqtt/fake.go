package mqtt

import (
	"errors"

	"github.com/sweeney/backlight-controller/internal/logic"
)

// ErrClosed is returned by FakePublisher after Close.
var ErrClosed = errors.New("publisher closed")

// Message is one publish as the broker would receive it.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// FakePublisher keeps everything a unit would have sent to the broker, on the
// same topics and with the same QoS as RealPublisher.
type FakePublisher struct {
	// Events holds the backlight events in publish order.
	Events []logic.Event

	// SystemEvents holds the lifecycle events in publish order.
	SystemEvents []SystemEvent

	// Messages holds every formatted publish, events and lifecycle interleaved.
	Messages []Message

	// PublishError and PublishSystemError, when set, fail the matching call
	// without recording anything.
	PublishError       error
	PublishSystemError error

	// Connected is returned by IsConnected.
	Connected bool

	unit   string
	closed bool
}

// NewFakePublisher returns a publisher that records under unit's topics.
func NewFakePublisher(unit string) *FakePublisher {
	return &FakePublisher{unit: unit}
}

// Publish records a backlight event.
func (f *FakePublisher) Publish(event logic.Event) error {
	if f.closed {
		return ErrClosed
	}
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Messages = append(f.Messages, Message{Topic: EventTopic(f.unit), QoS: EventQoS, Payload: payload})
	return nil
}

// PublishSystem records a lifecycle event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.closed {
		return ErrClosed
	}
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.Messages = append(f.Messages, Message{
		Topic:    SystemTopic(f.unit),
		QoS:      SystemQoS,
		Retained: event.Retained,
		Payload:  payload,
	})
	return nil
}

// Close makes later publishes fail with ErrClosed.
func (f *FakePublisher) Close() error {
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakePublisher) Closed() bool {
	return f.closed
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Types returns the type of each recorded backlight event, in order.
func (f *FakePublisher) Types() []logic.EventType {
	out := make([]logic.EventType, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Type
	}
	return out
}

// Count returns how many backlight events of type t were recorded.
func (f *FakePublisher) Count(t logic.EventType) int {
	n := 0
	for _, e := range f.Events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// System returns the recorded lifecycle events named name, e.g. "HEARTBEAT".
func (f *FakePublisher) System(name string) []SystemEvent {
	var out []SystemEvent
	for _, e := range f.SystemEvents {
		if e.Event == name {
			out = append(out, e)
		}
	}
	return out
}

// OnTopic returns the payloads published to topic, in order.
func (f *FakePublisher) OnTopic(topic string) [][]byte {
	var out [][]byte
	for _, m := range f.Messages {
		if m.Topic == topic {
			out = append(out, m.Payload)
		}
	}
	return out
}
