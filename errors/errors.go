package errors

import "fmt"

// Rejection reasons surfaced to clients inside an error frame.
// The exact wording is part of the wire protocol, do not edit casually.
var (
	ErrInvalidFormat      = fmt.Errorf("Invalid format")
	ErrMissingTypePayload = fmt.Errorf("Missing type or payload")
	ErrUnknownType        = fmt.Errorf("Type is not correct")
	ErrRoomNotString      = fmt.Errorf("Room is not present or is not of string")
	ErrChatMessageInvalid = fmt.Errorf("Payload message is not of correct type")
	ErrUsernameMissing    = fmt.Errorf("Username is not defined")
	ErrRoomNotFound       = fmt.Errorf("Room does not exist")
	ErrRelayUnavailable   = fmt.Errorf("Relay unavailable, message not delivered")
)

// Internal failures, never sent on the wire.
var (
	ErrWorkerPanic  = fmt.Errorf("worker panic")
	ErrBridgeClosed = fmt.Errorf("relay bridge closed")
	ErrSinkClosed   = fmt.Errorf("sink closed")
	ErrEmptyWords   = fmt.Errorf("no censored words have been found")
	ErrSlowConsumer = fmt.Errorf("consumer too slow, frame dropped")
	ErrMissingRelay = fmt.Errorf("relay address is not configured")
)
