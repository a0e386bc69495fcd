//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"room-relay/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink delivers outbound frames to exactly one connected participant.
// Consume must not block the broadcaster beyond the sink's delivery budget.
type EventSink interface {
	Consume(ctx context.Context, f domain.Frame) error
	Close()
}

// IRegistry owns room membership for one gateway process.
type IRegistry interface {
	EnsureRoom(roomID domain.RoomID)
	Join(connID, name string, roomID domain.RoomID, sink EventSink, createIfAbsent bool) error
	Leave(connID string, roomID domain.RoomID)
	Disconnect(connID string)
	Broadcast(ctx context.Context, roomID domain.RoomID, exceptConnID string, f domain.Frame) (int, error)
	MemberName(roomID domain.RoomID, connID string) (string, bool)
	Snapshot() []domain.RoomInfo
}

// Forwarder pushes chat envelopes toward the relay node.
type Forwarder interface {
	Forward(env domain.Envelope) error
	State() string
}
