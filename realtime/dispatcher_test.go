package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menprac-cloud/menPrac-backend/broker"
)

func TestEmitToRoomReachesOnlyMembers(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	d := NewDispatcher(reg, nil, "events", "server-1")

	member, memberConn := newTestClient("c1", 42)
	outsider, outsiderConn := newTestClient("c2", 43)
	require.NoError(t, reg.Add(context.Background(), member))
	require.NoError(t, reg.Add(context.Background(), outsider))
	reg.Join(member, RoomForUser(42))
	reg.Join(outsider, RoomForUser(43))

	d.EmitToRoom(context.Background(), RoomForUser(42), Event{Name: EventReceiveMessage, Payload: "hi"})

	require.Len(t, memberConn.received(), 1)
	assert.Equal(t, EventReceiveMessage, memberConn.received()[0].Name)
	assert.Empty(t, outsiderConn.received())
}

func TestEmitToEmptyRoomIsNoop(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	d := NewDispatcher(reg, nil, "events", "server-1")

	client, conn := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))

	d.EmitToRoom(context.Background(), "user_999", Event{Name: EventReceiveMessage})

	assert.Empty(t, conn.received())
}

func TestEmitToAllReachesRoomlessClients(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	d := NewDispatcher(reg, nil, "events", "server-1")

	inRoom, inRoomConn := newTestClient("c1", 42)
	roomless, roomlessConn := newTestClient("c2", 43)
	require.NoError(t, reg.Add(context.Background(), inRoom))
	require.NoError(t, reg.Add(context.Background(), roomless))
	reg.Join(inRoom, RoomForUser(42))

	d.EmitToAll(context.Background(), Event{Name: EventLiveActivity, Payload: "note ready"})

	assert.Len(t, inRoomConn.received(), 1)
	assert.Len(t, roomlessConn.received(), 1)
}

func TestBrokenMemberIsDroppedOthersStillDelivered(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	d := NewDispatcher(reg, nil, "events", "server-1")

	healthy, healthyConn := newTestClient("c1", 42)
	brokenConn := &fakeConn{failWrites: true}
	broken := NewClient("c2", 42, brokenConn, testWSConfig())
	require.NoError(t, reg.Add(context.Background(), healthy))
	require.NoError(t, reg.Add(context.Background(), broken))
	room := RoomForUser(42)
	reg.Join(healthy, room)
	reg.Join(broken, room)

	d.EmitToRoom(context.Background(), room, Event{Name: EventReceiveMessage, Payload: "hi"})

	// The healthy member got the event; the broken one was cleaned up.
	assert.Len(t, healthyConn.received(), 1)
	assert.True(t, brokenConn.closed)
	members := reg.MembersOf(room)
	require.Len(t, members, 1)
	assert.Equal(t, "c1", members[0].ID)
}

func TestDeliveryOrderPerMember(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	d := NewDispatcher(reg, nil, "events", "server-1")

	client, conn := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))
	reg.Join(client, RoomForUser(42))

	for i := 0; i < 5; i++ {
		d.EmitToRoom(context.Background(), RoomForUser(42), Event{Name: EventReceiveMessage, Payload: i})
	}

	received := conn.received()
	require.Len(t, received, 5)
	for i, ev := range received {
		assert.Equal(t, i, ev.Payload)
	}
}

// Two connections for the same user, one disconnects, dispatch continues to
// the survivor; a broadcast then reaches every remaining connection.
func TestRoomLifecycleAcrossDisconnect(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	d := NewDispatcher(reg, nil, "events", "server-1")

	c1, conn1 := newTestClient("c1", 42)
	c2, conn2 := newTestClient("c2", 42)
	other, otherConn := newTestClient("c3", 7)
	for _, c := range []*Client{c1, c2, other} {
		require.NoError(t, reg.Add(context.Background(), c))
	}
	reg.Join(c1, RoomForUser(42))
	reg.Join(c2, RoomForUser(42))
	reg.Join(other, RoomForUser(7))

	d.EmitToRoom(context.Background(), RoomForUser(42), Event{Name: EventReceiveMessage, Payload: "first"})
	assert.Len(t, conn1.received(), 1)
	assert.Len(t, conn2.received(), 1)
	assert.Empty(t, otherConn.received())

	reg.Remove(c2)

	d.EmitToRoom(context.Background(), RoomForUser(42), Event{Name: EventReceiveMessage, Payload: "second"})
	assert.Len(t, conn1.received(), 2)
	assert.Len(t, conn2.received(), 1)

	d.EmitToAll(context.Background(), Event{Name: EventLiveActivity, Payload: "broadcast"})
	assert.Len(t, conn1.received(), 3)
	assert.Len(t, otherConn.received(), 1)
}

func TestEmitMirrorsToBroker(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	fb := newFakeBroker()
	d := NewDispatcher(reg, fb, "events", "server-1")

	d.EmitToRoom(context.Background(), "user_42", Event{Name: EventReceiveMessage, Payload: map[string]string{"text": "hi"}})
	d.EmitToAll(context.Background(), Event{Name: EventLiveActivity, Payload: "x"})

	published := fb.publishedEnvelopes()
	require.Len(t, published, 2)
	assert.Equal(t, "server-1", published[0].ServerID)
	assert.Equal(t, "user_42", published[0].Room)
	assert.Equal(t, EventReceiveMessage, published[0].Event)
	assert.Equal(t, "", published[1].Room)
}

func TestRemoteEventsSkipOwnServer(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	fb := newFakeBroker()
	d := NewDispatcher(reg, fb, "events", "server-1")

	client, conn := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))
	reg.Join(client, RoomForUser(42))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.ListenForRemoteEvents(ctx)
		close(done)
	}()

	payload, _ := json.Marshal(map[string]string{"text": "remote"})
	fb.incoming <- broker.Envelope{ServerID: "server-1", Room: "user_42", Event: EventReceiveMessage, Payload: payload}
	fb.incoming <- broker.Envelope{ServerID: "server-2", Room: "user_42", Event: EventReceiveMessage, Payload: payload}

	require.Eventually(t, func() bool {
		return len(conn.received()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Only the envelope from the other instance was delivered.
	received := conn.received()
	require.Len(t, received, 1)
	assert.Equal(t, EventReceiveMessage, received[0].Name)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not stop on context cancel")
	}
}
