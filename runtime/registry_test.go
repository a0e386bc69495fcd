package runtime

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"room-relay/domain"
	"room-relay/errors"
)

type recordingSink struct {
	frames []domain.Frame
	fail   bool
}

func (s *recordingSink) Consume(_ context.Context, f domain.Frame) error {
	if s.fail {
		return errors.ErrSinkClosed
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *recordingSink) Close() {}

func TestRegistry_Join_One_Room_One_Participant(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	roomID := domain.RoomID("general")
	sink := &recordingSink{}

	// Given no room exists
	req.Empty(registry.Snapshot())

	// When a participant joins with room creation allowed
	err := registry.Join(connID, "alice", roomID, sink, true)

	// Then
	req.NoError(err)
	infos := registry.Snapshot()
	req.Len(infos, 1)
	req.Equal(roomID, infos[0].ID)
	req.Equal([]domain.Participant{{ConnID: connID, Name: "alice"}}, infos[0].Members)
}

func TestRegistry_Join_Unknown_Room_Without_Create(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// When a participant joins a room nobody created
	err := registry.Join(uuid.NewString(), "alice", "ghost", &recordingSink{}, false)

	// Then the join is refused and no room appears
	req.ErrorIs(err, errors.ErrRoomNotFound)
	req.Empty(registry.Snapshot())
}

func TestRegistry_Join_Existing_Room_Without_Create(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("general")
	registry.EnsureRoom(roomID)

	// When a participant joins the pre-created room
	err := registry.Join(uuid.NewString(), "alice", roomID, &recordingSink{}, false)

	// Then
	req.NoError(err)
	req.Len(registry.Snapshot(), 1)
}

func TestRegistry_EnsureRoom_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	roomID := domain.RoomID("general")

	registry.EnsureRoom(roomID)
	registry.EnsureRoom(roomID)

	req.Len(registry.Snapshot(), 1)
}

func TestRegistry_Leave_Last_Participant_Deletes_Room(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	roomID := domain.RoomID("general")

	// Given a room with one participant
	req.NoError(registry.Join(connID, "alice", roomID, &recordingSink{}, true))

	// When the participant leaves
	registry.Leave(connID, roomID)

	// Then the room doesn't exist anymore
	req.Empty(registry.Snapshot())
	_, err := registry.Broadcast(context.Background(), roomID, "", domain.ChatFrame{})
	req.ErrorIs(err, errors.ErrRoomNotFound)
}

func TestRegistry_Leave_Keeps_Other_Participants(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID1 := uuid.NewString()
	connID2 := uuid.NewString()
	roomID := domain.RoomID("general")

	req.NoError(registry.Join(connID1, "alice", roomID, &recordingSink{}, true))
	req.NoError(registry.Join(connID2, "bob", roomID, &recordingSink{}, true))

	// When one of them leaves
	registry.Leave(connID1, roomID)

	// Then the room survives with the other member
	infos := registry.Snapshot()
	req.Len(infos, 1)
	req.Equal([]domain.Participant{{ConnID: connID2, Name: "bob"}}, infos[0].Members)
}

func TestRegistry_Disconnect_Removes_From_All_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	other := uuid.NewString()
	sink := &recordingSink{}

	// Given one connection present in two rooms, one shared
	req.NoError(registry.Join(connID, "alice", "general", sink, true))
	req.NoError(registry.Join(connID, "alice", "random", sink, true))
	req.NoError(registry.Join(other, "bob", "general", &recordingSink{}, true))

	// When the connection drops
	registry.Disconnect(connID)

	// Then only the shared room survives, with the other member
	infos := registry.Snapshot()
	req.Len(infos, 1)
	req.Equal(domain.RoomID("general"), infos[0].ID)
	req.Equal([]domain.Participant{{ConnID: other, Name: "bob"}}, infos[0].Members)
}

func TestRegistry_Broadcast_Excludes_Sender(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	author := uuid.NewString()
	authorSink := &recordingSink{}
	bobSink := &recordingSink{}
	carolSink := &recordingSink{}
	roomID := domain.RoomID("general")

	req.NoError(registry.Join(author, "alice", roomID, authorSink, true))
	req.NoError(registry.Join(uuid.NewString(), "bob", roomID, bobSink, true))
	req.NoError(registry.Join(uuid.NewString(), "carol", roomID, carolSink, true))

	// When the author broadcasts
	f := domain.ChatFrame{Message: "hi", SenderName: "alice"}
	delivered, err := registry.Broadcast(context.Background(), roomID, author, f)

	// Then everyone but the author receives exactly one copy
	req.NoError(err)
	req.Equal(2, delivered)
	req.Empty(authorSink.frames)
	req.Equal([]domain.Frame{f}, bobSink.frames)
	req.Equal([]domain.Frame{f}, carolSink.frames)
}

func TestRegistry_Broadcast_Without_Exclusion(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	sink1 := &recordingSink{}
	sink2 := &recordingSink{}
	roomID := domain.RoomID("general")

	req.NoError(registry.Join(uuid.NewString(), "alice", roomID, sink1, true))
	req.NoError(registry.Join(uuid.NewString(), "bob", roomID, sink2, true))

	// When broadcasting with no exclusion, relay style
	delivered, err := registry.Broadcast(context.Background(), roomID, "", domain.ChatFrame{Message: "hi"})

	// Then every member receives it
	req.NoError(err)
	req.Equal(2, delivered)
	req.Len(sink1.frames, 1)
	req.Len(sink2.frames, 1)
}

func TestRegistry_Broadcast_Skips_Failing_Sink(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	healthy := &recordingSink{}
	broken := &recordingSink{fail: true}
	roomID := domain.RoomID("general")

	req.NoError(registry.Join(uuid.NewString(), "alice", roomID, healthy, true))
	req.NoError(registry.Join(uuid.NewString(), "bob", roomID, broken, true))

	delivered, err := registry.Broadcast(context.Background(), roomID, "", domain.ChatFrame{Message: "hi"})

	// Then the failure costs only that participant's copy
	req.NoError(err)
	req.Equal(1, delivered)
	req.Len(healthy.frames, 1)
}

func TestRegistry_Broadcast_Does_Not_Cross_Rooms(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	general := &recordingSink{}
	random := &recordingSink{}

	req.NoError(registry.Join(uuid.NewString(), "alice", "general", general, true))
	req.NoError(registry.Join(uuid.NewString(), "bob", "random", random, true))

	delivered, err := registry.Broadcast(context.Background(), "general", "", domain.ChatFrame{Message: "hi"})

	req.NoError(err)
	req.Equal(1, delivered)
	req.Len(general.frames, 1)
	req.Empty(random.frames)
}

func TestRegistry_MemberName_Returns_Most_Recent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	connID := uuid.NewString()
	roomID := domain.RoomID("general")
	sink := &recordingSink{}

	// Given a connection that joined twice under different names
	req.NoError(registry.Join(connID, "alice", roomID, sink, true))
	req.NoError(registry.Join(connID, "alice2", roomID, sink, true))

	name, ok := registry.MemberName(roomID, connID)
	req.True(ok)
	req.Equal("alice2", name)

	_, ok = registry.MemberName(roomID, uuid.NewString())
	req.False(ok)
}
