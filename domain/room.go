// Package domain contains core concepts of the relay system.
// No runtime, network, or UI logic should be added here.
package domain

// RoomID is an opaque, externally supplied room identifier.
// Two ids are the same room iff the strings are equal.
type RoomID string

// Participant is a live connection bound to a display name inside one room.
// Identity is the connection itself, there is no stable user id, and two
// participants of the same room may share a name.
type Participant struct {
	ConnID string
	Name   string
}

// RoomInfo is a read-only membership snapshot used by observability.
type RoomInfo struct {
	ID      RoomID
	Members []Participant
}
