// Package runtime owns the process-wide mutable state of one gateway:
// the mapping from room ids to connected participants. It contains no
// transport logic; delivery goes through the sinks registered with it.
package runtime

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"room-relay/contract"
	"room-relay/domain"
	"room-relay/errors"
)

type member struct {
	connID string
	name   string
	sink   contract.EventSink
}

// Registry maps room ids to their ordered member lists.
//
// Rooms are created lazily and deleted the moment their member list becomes
// empty: an empty room never survives a Leave or Disconnect call. Member
// order is insertion order; broadcast makes no ordering promise toward
// recipients. All methods are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID][]member
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[domain.RoomID][]member)}
}

// EnsureRoom creates the room if it is unknown. Idempotent.
func (r *Registry) EnsureRoom(roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[roomID]; !ok {
		r.rooms[roomID] = []member{}
	}
}

// Join appends a participant to the room's member list. With createIfAbsent
// the room is created first; otherwise an unknown room is a recoverable
// error. Duplicate names are allowed, the connection is the identity.
func (r *Registry) Join(connID, name string, roomID domain.RoomID, sink contract.EventSink, createIfAbsent bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[roomID]; !ok {
		if !createIfAbsent {
			return errors.ErrRoomNotFound
		}
		r.rooms[roomID] = []member{}
	}
	r.rooms[roomID] = append(r.rooms[roomID], member{connID: connID, name: name, sink: sink})
	return nil
}

// Leave removes every membership of the connection in one room.
func (r *Registry) Leave(connID string, roomID domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeLocked(connID, roomID)
}

// Disconnect removes every membership of the connection across all rooms.
// Must be called exactly once per connection, on close or fatal error.
func (r *Registry) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID := range r.rooms {
		r.removeLocked(connID, roomID)
	}
}

func (r *Registry) removeLocked(connID string, roomID domain.RoomID) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}
	remaining := members[:0]
	for _, m := range members {
		if m.connID != connID {
			remaining = append(remaining, m)
		}
	}
	if len(remaining) == 0 {
		delete(r.rooms, roomID)
		return
	}
	r.rooms[roomID] = remaining
}

// Broadcast delivers the frame to every member of the room except the
// connection named by exceptConnID (empty string excludes nobody).
// The member list is snapshotted before delivery, so a participant removed
// mid-broadcast cannot corrupt the iteration. A sink that refuses the frame
// only loses it for that participant. Returns the number of deliveries.
func (r *Registry) Broadcast(ctx context.Context, roomID domain.RoomID, exceptConnID string, f domain.Frame) (int, error) {
	r.mu.RLock()
	members, ok := r.rooms[roomID]
	if !ok {
		r.mu.RUnlock()
		return 0, errors.ErrRoomNotFound
	}
	targets := make([]member, 0, len(members))
	for _, m := range members {
		if exceptConnID == "" || m.connID != exceptConnID {
			targets = append(targets, m)
		}
	}
	r.mu.RUnlock()

	delivered := 0
	for _, m := range targets {
		if err := m.sink.Consume(ctx, f); err != nil {
			continue
		}
		delivered++
	}
	return delivered, nil
}

// MemberName returns the display name under which a connection joined the
// room. When the same connection joined several times, the most recent
// name wins.
func (r *Registry) MemberName(roomID domain.RoomID, connID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name := ""
	found := false
	for _, m := range r.rooms[roomID] {
		if m.connID == connID {
			name = m.name
			found = true
		}
	}
	return name, found
}

// Snapshot returns a copy of the current membership for observability.
func (r *Registry) Snapshot() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]domain.RoomInfo, 0, len(r.rooms))
	for roomID, members := range r.rooms {
		infos = append(infos, domain.RoomInfo{
			ID: roomID,
			Members: lo.Map(members, func(m member, _ int) domain.Participant {
				return domain.Participant{ConnID: m.connID, Name: m.name}
			}),
		})
	}
	return infos
}
