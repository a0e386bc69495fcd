package domain

// EnvelopeChat is the only envelope type the bridge interprets today.
const EnvelopeChat = "chat"

// Envelope is the gateway-to-gateway wire shape carried through the relay
// node. Unlike the client-facing chat frame it keeps the room id, so the
// receiving gateway can route it; the relay node itself never inspects it.
type Envelope struct {
	Type    string          `json:"type"`
	Payload EnvelopePayload `json:"payload"`
}

type EnvelopePayload struct {
	RoomID     string `json:"roomId"`
	Message    string `json:"message"`
	SenderName string `json:"senderName"`
}
