package broker

import (
	"context"
	"encoding/json"
)

// Envelope is the wire format for realtime events mirrored across server
// instances. A dispatch that happens on one instance is published so the
// instances holding the recipient's connections can deliver it locally.
type Envelope struct {
	ServerID string          `json:"server_id"` // originating instance
	Room     string          `json:"room"`      // empty for a broadcast to all connections
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
}

// MarshalBinary implements encoding.BinaryMarshaler so the envelope can be
// published directly through the Redis client.
func (e Envelope) MarshalBinary() ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (e *Envelope) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, e)
}

// MessageBroker fans realtime events out to every server instance.
type MessageBroker interface {
	// Publish sends an envelope to the specified channel.
	Publish(ctx context.Context, channel string, envelope Envelope) error
	// Subscribe starts listening for envelopes on the specified channel.
	Subscribe(ctx context.Context, channel string) (<-chan Envelope, error)
	// Close cleans up broker resources.
	Close() error
	// Type returns the broker implementation name for metrics labels.
	Type() string
}
