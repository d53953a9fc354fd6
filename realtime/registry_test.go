package realtime

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinIsIdempotent(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	client, conn := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))

	room := RoomForUser(42)
	reg.Join(client, room)
	reg.Join(client, room)

	assert.Len(t, reg.MembersOf(room), 1)

	// A double join must not turn into a double delivery.
	d := NewDispatcher(reg, nil, "events", "server-1")
	d.EmitToRoom(context.Background(), room, Event{Name: EventReceiveMessage})
	assert.Len(t, conn.received(), 1)
}

func TestJoinUnknownClientIsNoop(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	client, _ := newTestClient("ghost", 42)

	reg.Join(client, "user_42")

	assert.Empty(t, reg.MembersOf("user_42"))
}

func TestRemoveLeavesEveryRoom(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	client, _ := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))
	reg.Join(client, "user_42")
	reg.Join(client, "announcements")

	reg.Remove(client)

	assert.Empty(t, reg.MembersOf("user_42"))
	assert.Empty(t, reg.MembersOf("announcements"))
	assert.Empty(t, reg.All())
	assert.Empty(t, reg.RoomsOf(client))
}

func TestRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	client, _ := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))

	reg.Remove(client)
	reg.Remove(client) // second removal must not panic or fail

	assert.Empty(t, reg.All())
}

func TestLeaveNonMemberIsNoop(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	member, _ := newTestClient("c1", 42)
	outsider, _ := newTestClient("c2", 43)
	require.NoError(t, reg.Add(context.Background(), member))
	require.NoError(t, reg.Add(context.Background(), outsider))
	reg.Join(member, "user_42")

	reg.Leave(outsider, "user_42")
	reg.Leave(outsider, "no_such_room")

	assert.Len(t, reg.MembersOf("user_42"), 1)
}

func TestAddCreatesPresenceRecord(t *testing.T) {
	ps := newFakePresenceStore()
	reg := NewRegistry(ps, "server-1")
	client, _ := newTestClient("c1", 42)

	require.NoError(t, reg.Add(context.Background(), client))

	rec := ps.record("c1")
	require.NotNil(t, rec)
	assert.Equal(t, int64(42), rec.UserID)
	assert.Equal(t, "server-1", rec.ServerID)
	assert.False(t, rec.ConnectedAt.IsZero())
}

func TestAddFailsWhenPresenceCreateFails(t *testing.T) {
	ps := newFakePresenceStore()
	ps.createErr = errors.New("redis down")
	reg := NewRegistry(ps, "server-1")
	client, _ := newTestClient("c1", 42)

	require.Error(t, reg.Add(context.Background(), client))
	assert.Empty(t, reg.All())
}

func TestRemoveDeletesPresenceRecord(t *testing.T) {
	ps := newFakePresenceStore()
	reg := NewRegistry(ps, "server-1")
	client, _ := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))

	reg.Remove(client)

	assert.Nil(t, ps.record("c1"))
}

func TestRefreshPresenceExtendsRecord(t *testing.T) {
	ps := newFakePresenceStore()
	reg := NewRegistry(ps, "server-1")
	client, _ := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))

	reg.RefreshPresence(context.Background(), client)
	reg.RefreshPresence(context.Background(), client)

	assert.Equal(t, 2, ps.refreshCount("c1"))
}

func TestRefreshPresenceFailureKeepsConnection(t *testing.T) {
	ps := newFakePresenceStore()
	reg := NewRegistry(ps, "server-1")
	client, _ := newTestClient("c1", 42)
	require.NoError(t, reg.Add(context.Background(), client))
	reg.Join(client, RoomForUser(42))

	// A transient store failure must not evict the live connection.
	ps.refreshErr = errors.New("redis timeout")
	reg.RefreshPresence(context.Background(), client)

	assert.Len(t, reg.All(), 1)
	assert.Len(t, reg.MembersOf(RoomForUser(42)), 1)
}

func TestMembersOfUnknownRoomIsEmpty(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	assert.Empty(t, reg.MembersOf("user_999"))
}

func TestAllIncludesRoomlessClients(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	inRoom, _ := newTestClient("c1", 42)
	roomless, _ := newTestClient("c2", 43)
	require.NoError(t, reg.Add(context.Background(), inRoom))
	require.NoError(t, reg.Add(context.Background(), roomless))
	reg.Join(inRoom, "user_42")

	assert.Len(t, reg.All(), 2)
}

func TestSameUserMultipleConnections(t *testing.T) {
	reg := NewRegistry(nil, "server-1")
	c1, _ := newTestClient("c1", 42)
	c2, _ := newTestClient("c2", 42)
	require.NoError(t, reg.Add(context.Background(), c1))
	require.NoError(t, reg.Add(context.Background(), c2))

	room := RoomForUser(42)
	reg.Join(c1, room)
	reg.Join(c2, room)
	assert.Len(t, reg.MembersOf(room), 2)

	// One tab closing must not evict the other.
	reg.Remove(c2)
	members := reg.MembersOf(room)
	require.Len(t, members, 1)
	assert.Equal(t, "c1", members[0].ID)
}
