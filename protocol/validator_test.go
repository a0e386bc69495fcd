package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"room-relay/domain"
	"room-relay/errors"
)

func TestValidate_Chat_Frame(t *testing.T) {
	req := require.New(t)

	cmd, err := Validate([]byte(`{"type":"chat","payload":{"roomId":"general","message":"hi there","senderName":"alice"}}`))

	req.NoError(err)
	req.Equal(domain.ChatCommand{Room: "general", Message: "hi there", SenderName: "alice"}, cmd)
}

func TestValidate_Create_And_Join_Frames(t *testing.T) {
	req := require.New(t)

	cmd, err := Validate([]byte(`{"type":"create","payload":{"roomId":"general","senderName":"alice"}}`))
	req.NoError(err)
	req.Equal(domain.CreateRoomCommand{Room: "general", SenderName: "alice"}, cmd)

	cmd, err = Validate([]byte(`{"type":"join","payload":{"roomId":"general","senderName":"bob"}}`))
	req.NoError(err)
	req.Equal(domain.JoinRoomCommand{Room: "general", SenderName: "bob"}, cmd)
}

func TestValidate_Leave_Frame_Ignores_Extra_Fields(t *testing.T) {
	req := require.New(t)

	cmd, err := Validate([]byte(`{"type":"leave","payload":{"roomId":"general","message":42,"color":"blue"}}`))

	req.NoError(err)
	req.Equal(domain.LeaveRoomCommand{Room: "general"}, cmd)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want error
	}{
		{"not json at all", `not json`, errors.ErrInvalidFormat},
		{"truncated object", `{"type":"chat"`, errors.ErrInvalidFormat},
		{"empty object", `{}`, errors.ErrMissingTypePayload},
		{"missing payload", `{"type":"chat"}`, errors.ErrMissingTypePayload},
		{"missing type", `{"payload":{"roomId":"r"}}`, errors.ErrMissingTypePayload},
		{"null payload", `{"type":"chat","payload":null}`, errors.ErrMissingTypePayload},
		{"numeric type", `{"type":7,"payload":{"roomId":"r"}}`, errors.ErrUnknownType},
		{"unknown type", `{"type":"shout","payload":{"roomId":"r"}}`, errors.ErrUnknownType},
		{"payload not an object", `{"type":"chat","payload":"hello"}`, errors.ErrRoomNotString},
		{"roomId missing", `{"type":"chat","payload":{"message":"hi"}}`, errors.ErrRoomNotString},
		{"roomId numeric", `{"type":"chat","payload":{"roomId":12,"message":"hi"}}`, errors.ErrRoomNotString},
		{"roomId empty", `{"type":"chat","payload":{"roomId":"","message":"hi"}}`, errors.ErrRoomNotString},
		{"chat message missing", `{"type":"chat","payload":{"roomId":"r"}}`, errors.ErrChatMessageInvalid},
		{"chat message numeric", `{"type":"chat","payload":{"roomId":"r","message":42}}`, errors.ErrChatMessageInvalid},
		{"chat message empty", `{"type":"chat","payload":{"roomId":"r","message":""}}`, errors.ErrChatMessageInvalid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)

			cmd, err := Validate([]byte(tc.raw))

			req.ErrorIs(err, tc.want)
			req.Nil(cmd)
		})
	}
}

func TestValidate_Is_Deterministic(t *testing.T) {
	req := require.New(t)
	raw := []byte(`{"type":"chat","payload":{"roomId":"general","message":"hi","senderName":"alice"}}`)

	first, err1 := Validate(raw)
	second, err2 := Validate(raw)

	req.NoError(err1)
	req.NoError(err2)
	req.Equal(first, second)
}

func TestValidate_SenderName_Is_Optional_For_Chat(t *testing.T) {
	req := require.New(t)

	cmd, err := Validate([]byte(`{"type":"chat","payload":{"roomId":"general","message":"hi"}}`))

	req.NoError(err)
	req.Equal(domain.ChatCommand{Room: "general", Message: "hi"}, cmd)
}
