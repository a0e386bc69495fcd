package domain

import "encoding/json"

// Frame is one outbound message toward a client connection.
// The wire shape is fixed: chat frames carry a nested payload without the
// room id, error frames carry a flat human-readable message.
type Frame interface {
	MarshalWire() ([]byte, error)
}

type ChatFrame struct {
	Message    string
	SenderName string
}

type chatFrameWire struct {
	Type    string          `json:"type"`
	Payload chatPayloadWire `json:"payload"`
}

type chatPayloadWire struct {
	Message    string `json:"message"`
	SenderName string `json:"senderName"`
}

func (f ChatFrame) MarshalWire() ([]byte, error) {
	return json.Marshal(chatFrameWire{
		Type:    "chat",
		Payload: chatPayloadWire{Message: f.Message, SenderName: f.SenderName},
	})
}

type ErrorFrame struct {
	Message string
}

type errorFrameWire struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (f ErrorFrame) MarshalWire() ([]byte, error) {
	return json.Marshal(errorFrameWire{Type: "error", Message: f.Message})
}
