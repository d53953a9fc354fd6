package presence

import (
	"context"
	"time"
)

// Record holds metadata about one live websocket connection. It is stored in
// a shared store with a TTL so operators (and other instances) can see which
// server currently holds a user's connections. A record expiring does not
// tear the connection down; it only means the instance stopped refreshing it.
type Record struct {
	ConnectionID string    `json:"connection_id"`
	UserID       int64     `json:"user_id"`
	ServerID     string    `json:"server_id"` // ID of the instance handling the connection
	ConnectedAt  time.Time `json:"connected_at"`
}

// Store defines the interface for presence tracking.
type Store interface {
	// Create stores a new presence record.
	Create(ctx context.Context, record *Record) error
	// Get retrieves a presence record by connection ID.
	Get(ctx context.Context, connectionID string) (*Record, error)
	// Delete removes a presence record.
	Delete(ctx context.Context, connectionID string) error
	// RefreshTTL extends the record's lifetime in the store.
	RefreshTTL(ctx context.Context, connectionID string) error
}
