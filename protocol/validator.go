// Package protocol validates raw client frames at the process boundary.
// Validation is a pure function: same bytes in, same result out, no side
// effects, no panics. Rejection reasons are part of the wire protocol.
package protocol

import (
	"encoding/json"

	"room-relay/domain"
	"room-relay/errors"
)

type rawFrame struct {
	Type    any             `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type rawPayload struct {
	RoomID     any `json:"roomId"`
	Message    any `json:"message"`
	SenderName any `json:"senderName"`
}

// Validate parses one inbound frame into a typed Command.
// Any malformed input is answered with one of the fixed rejection reasons,
// never with a crash; a nil error guarantees a non-nil Command.
func Validate(raw []byte) (domain.Command, error) {
	var frame rawFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, errors.ErrInvalidFormat
	}

	if frame.Type == nil || len(frame.Payload) == 0 || string(frame.Payload) == "null" {
		return nil, errors.ErrMissingTypePayload
	}

	frameType, ok := frame.Type.(string)
	if !ok {
		return nil, errors.ErrUnknownType
	}

	commandType := domain.CommandType(frameType)
	switch commandType {
	case domain.CommandCreate, domain.CommandJoin, domain.CommandChat, domain.CommandLeave:
	default:
		return nil, errors.ErrUnknownType
	}

	var payload rawPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		// A payload that is not an object cannot carry a room id.
		return nil, errors.ErrRoomNotString
	}

	roomID, ok := payload.RoomID.(string)
	if !ok || roomID == "" {
		return nil, errors.ErrRoomNotString
	}

	senderName, _ := payload.SenderName.(string)

	switch commandType {
	case domain.CommandCreate:
		return domain.CreateRoomCommand{Room: domain.RoomID(roomID), SenderName: senderName}, nil
	case domain.CommandJoin:
		return domain.JoinRoomCommand{Room: domain.RoomID(roomID), SenderName: senderName}, nil
	case domain.CommandChat:
		message, ok := payload.Message.(string)
		if !ok || message == "" {
			return nil, errors.ErrChatMessageInvalid
		}
		return domain.ChatCommand{Room: domain.RoomID(roomID), Message: message, SenderName: senderName}, nil
	default:
		return domain.LeaveRoomCommand{Room: domain.RoomID(roomID)}, nil
	}
}
