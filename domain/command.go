package domain

// CommandType tags the inbound frame variants accepted at the boundary.
type CommandType string

const (
	CommandCreate CommandType = "create"
	CommandJoin   CommandType = "join"
	CommandChat   CommandType = "chat"
	CommandLeave  CommandType = "leave"
)

// Command is one validated inbound frame. Dispatch is exhaustive over the
// concrete types below; unknown tags never make it past the validator.
type Command interface {
	Type() CommandType
	RoomID() RoomID
}

type CreateRoomCommand struct {
	Room       RoomID
	SenderName string
}

func (c CreateRoomCommand) Type() CommandType { return CommandCreate }
func (c CreateRoomCommand) RoomID() RoomID    { return c.Room }

type JoinRoomCommand struct {
	Room       RoomID
	SenderName string
}

func (c JoinRoomCommand) Type() CommandType { return CommandJoin }
func (c JoinRoomCommand) RoomID() RoomID    { return c.Room }

type ChatCommand struct {
	Room       RoomID
	Message    string
	SenderName string
}

func (c ChatCommand) Type() CommandType { return CommandChat }
func (c ChatCommand) RoomID() RoomID    { return c.Room }

type LeaveRoomCommand struct {
	Room RoomID
}

func (c LeaveRoomCommand) Type() CommandType { return CommandLeave }
func (c LeaveRoomCommand) RoomID() RoomID    { return c.Room }
