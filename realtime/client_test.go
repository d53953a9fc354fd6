package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEvent(t *testing.T) {
	client, conn := newTestClient("c1", 42)

	require.NoError(t, client.WriteEvent(Event{Name: EventConnected, Payload: "ok"}))

	events := conn.received()
	require.Len(t, events, 1)
	assert.Equal(t, EventConnected, events[0].Name)
}

func TestWriteEventFailsOnBrokenConn(t *testing.T) {
	conn := &fakeConn{failWrites: true}
	client := NewClient("c1", 42, conn, testWSConfig())

	assert.Error(t, client.WriteEvent(Event{Name: EventConnected}))
}

func TestWriteEventConcurrent(t *testing.T) {
	client, conn := newTestClient("c1", 42)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.WriteEvent(Event{Name: EventLiveActivity}))
		}()
	}
	wg.Wait()

	assert.Len(t, conn.received(), 20)
}

func TestCloseIsIdempotent(t *testing.T) {
	client, conn := newTestClient("c1", 42)

	require.NoError(t, client.Close(1000, "bye"))
	require.NoError(t, client.Close(1000, "bye again"))
	assert.True(t, conn.closed)

	select {
	case <-client.Done():
	default:
		t.Fatal("context not cancelled after Close")
	}
}

func TestUpdateLastSeen(t *testing.T) {
	client, _ := newTestClient("c1", 42)
	before := client.LastActivityTime()

	time.Sleep(1100 * time.Millisecond)
	client.UpdateLastSeen()

	assert.True(t, client.LastActivityTime().After(before))
}
