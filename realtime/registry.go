package realtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/menprac-cloud/menPrac-backend/metrics"
	"github.com/menprac-cloud/menPrac-backend/presence"
)

// Registry tracks every live connection and the rooms it belongs to. It is
// constructed once in main and handed to whatever needs to dispatch; there is
// no package-level instance.
//
// The mutex guards only the membership maps. It is never held across a
// network write; dispatch snapshots the member set first and pushes after
// releasing the lock.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client            // connection ID -> client
	rooms   map[string]map[string]*Client // room name -> connection ID -> client

	presenceStore presence.Store
	serverID      string
}

// NewRegistry creates an empty registry. The presence store may be nil when
// shared presence tracking is not wanted (tests, single-box setups).
func NewRegistry(store presence.Store, serverID string) *Registry {
	return &Registry{
		clients:       make(map[string]*Client),
		rooms:         make(map[string]map[string]*Client),
		presenceStore: store,
		serverID:      serverID,
	}
}

// Add registers a newly connected client and records its presence.
func (r *Registry) Add(ctx context.Context, client *Client) error {
	if r.presenceStore != nil {
		record := &presence.Record{
			ConnectionID: client.ID,
			UserID:       client.UserID,
			ServerID:     r.serverID,
			ConnectedAt:  time.Now(),
		}
		if err := r.presenceStore.Create(ctx, record); err != nil {
			log.Printf("Failed to create presence record for connection %s: %v", client.ID, err)
			return err
		}
	}

	r.mu.Lock()
	r.clients[client.ID] = client
	r.mu.Unlock()

	metrics.ActiveConnections.Inc()
	metrics.TotalConnections.Inc()
	return nil
}

// Remove leaves every room the client is in and forgets the connection.
// It is idempotent and never fails; disconnect cleanup is best-effort.
func (r *Registry) Remove(client *Client) {
	r.mu.Lock()
	_, known := r.clients[client.ID]
	if known {
		delete(r.clients, client.ID)
		for name, members := range r.rooms {
			if _, ok := members[client.ID]; ok {
				delete(members, client.ID)
				if len(members) == 0 {
					delete(r.rooms, name)
				}
			}
		}
	}
	r.mu.Unlock()

	if !known {
		return
	}

	if r.presenceStore != nil {
		// Use a background context as the original request context may be cancelled.
		if err := r.presenceStore.Delete(context.Background(), client.ID); err != nil {
			log.Printf("Failed to delete presence record for connection %s: %v", client.ID, err)
		}
	}
	metrics.ActiveConnections.Dec()
}

// Join adds the client to a room. Joining a room twice has no additional
// effect, so a member never receives the same dispatch more than once.
func (r *Registry) Join(client *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[client.ID]; !ok {
		// A client that already disconnected cannot join.
		return
	}

	members, ok := r.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		r.rooms[room] = members
	}
	members[client.ID] = client
}

// Leave removes the client from one room. Leaving a room it is not in is a
// no-op.
func (r *Registry) Leave(client *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, client.ID)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

// MembersOf returns a snapshot of the room's current members. A room nobody
// joined is simply empty.
func (r *Registry) MembersOf(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	out := make([]*Client, 0, len(members))
	for _, c := range members {
		out = append(out, c)
	}
	return out
}

// All returns a snapshot of every connected client, including ones that are
// in no room.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// RoomsOf returns the names of the rooms the client is currently in.
func (r *Registry) RoomsOf(client *Client) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for name, members := range r.rooms {
		if _, ok := members[client.ID]; ok {
			out = append(out, name)
		}
	}
	return out
}

// RefreshPresence extends the client's presence record TTL.
func (r *Registry) RefreshPresence(ctx context.Context, client *Client) {
	if r.presenceStore == nil {
		return
	}
	if err := r.presenceStore.RefreshTTL(ctx, client.ID); err != nil {
		// Might be a transient Redis issue; not worth disconnecting over.
		log.Printf("Failed to refresh presence TTL for connection %s: %v", client.ID, err)
	}
}

// CloseAll sends close messages to all clients and removes them.
func (r *Registry) CloseAll(reason string) {
	for _, client := range r.All() {
		log.Printf("Closing connection %s: %s", client.ID, reason)
		client.Close(websocket.CloseGoingAway, reason)
		r.Remove(client)
	}
}
