package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/menprac-cloud/menPrac-backend/broker"
	"github.com/menprac-cloud/menPrac-backend/config"
	"github.com/menprac-cloud/menPrac-backend/presence"
)

// fakeConn is an in-memory Conn that records every event written to it.
type fakeConn struct {
	mu         sync.Mutex
	events     []Event
	failWrites bool
	closed     bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("broken pipe")
	}
	if ev, ok := v.(Event); ok {
		f.events = append(f.events, ev)
	}
	return nil
}

func (f *fakeConn) WriteControl(messageType int, data []byte, deadline time.Time) error {
	return nil
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	return 0, nil, errors.New("not implemented")
}

func (f *fakeConn) SetReadLimit(limit int64)                    {}
func (f *fakeConn) SetPongHandler(h func(appData string) error) {}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func (f *fakeConn) eventNames() []string {
	var names []string
	for _, ev := range f.received() {
		names = append(names, ev.Name)
	}
	return names
}

func testWSConfig() *config.WebSocketConfig {
	return &config.WebSocketConfig{
		MessageSizeLimit: 4096,
		PingInterval:     30,
		ActivityTimeout:  300,
		WriteTimeout:     5,
		PresenceTTL:      600,
	}
}

func newTestClient(id string, userID int64) (*Client, *fakeConn) {
	conn := &fakeConn{}
	return NewClient(id, userID, conn, testWSConfig()), conn
}

// fakePresenceStore is an in-memory presence.Store tracking refresh counts.
type fakePresenceStore struct {
	mu        sync.Mutex
	records   map[string]*presence.Record
	refreshes map[string]int

	createErr  error
	refreshErr error
}

func newFakePresenceStore() *fakePresenceStore {
	return &fakePresenceStore{
		records:   make(map[string]*presence.Record),
		refreshes: make(map[string]int),
	}
}

func (s *fakePresenceStore) Create(ctx context.Context, record *presence.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.records[record.ConnectionID] = record
	return nil
}

func (s *fakePresenceStore) Get(ctx context.Context, connectionID string) (*presence.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[connectionID], nil
}

func (s *fakePresenceStore) Delete(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, connectionID)
	return nil
}

func (s *fakePresenceStore) RefreshTTL(ctx context.Context, connectionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.refreshes[connectionID]++
	return nil
}

func (s *fakePresenceStore) record(connectionID string) *presence.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[connectionID]
}

func (s *fakePresenceStore) refreshCount(connectionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes[connectionID]
}

// fakeBroker records published envelopes and lets tests inject remote ones.
type fakeBroker struct {
	mu        sync.Mutex
	published []broker.Envelope
	incoming  chan broker.Envelope
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{incoming: make(chan broker.Envelope, 16)}
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, envelope broker.Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, envelope)
	return nil
}

func (b *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan broker.Envelope, error) {
	return b.incoming, nil
}

func (b *fakeBroker) Close() error { return nil }
func (b *fakeBroker) Type() string { return "fake" }

func (b *fakeBroker) publishedEnvelopes() []broker.Envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]broker.Envelope, len(b.published))
	copy(out, b.published)
	return out
}
