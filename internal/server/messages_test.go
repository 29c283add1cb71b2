package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_recipients(t *testing.T) {
	tcases := []struct {
		name      string
		data      string
		senderId  string
		memberIds []string
		err       bool
	}{
		{
			name:      "bare id strings",
			data:      `{"sender":{"_id":"u1","username":"one"},"content":"hi","chat":{"_id":"c1","chatName":"c","users":["u1","u2","u3"]}}`,
			senderId:  "u1",
			memberIds: []string{"u1", "u2", "u3"},
		},
		{
			name:      "populated user objects",
			data:      `{"sender":{"_id":"u1"},"chat":{"users":[{"_id":"u1","username":"one"},{"_id":"u2"}]}}`,
			senderId:  "u1",
			memberIds: []string{"u1", "u2"},
		},
		{
			name:      "malformed members are skipped",
			data:      `{"sender":{"_id":"u1"},"chat":{"users":["u2",42,null,{"name":"x"},"",{"_id":"u3"}]}}`,
			senderId:  "u1",
			memberIds: []string{"u2", "u3"},
		},
		{
			name:      "missing sender",
			data:      `{"chat":{"users":["u2"]}}`,
			memberIds: []string{"u2"},
		},
		{
			name: "missing users",
			data: `{"sender":{"_id":"u1"},"chat":{"_id":"c1"}}`,
			err:  true,
		},
		{
			name: "null users",
			data: `{"sender":{"_id":"u1"},"chat":{"users":null}}`,
			err:  true,
		},
		{
			name: "users not an array",
			data: `{"sender":{"_id":"u1"},"chat":{"users":"u2"}}`,
			err:  true,
		},
		{
			name: "missing chat",
			data: `{"sender":{"_id":"u1"}}`,
			err:  true,
		},
		{
			name: "not an object",
			data: `"hello"`,
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			senderId, members, err := recipients(json.RawMessage(tc.data))
			if tc.err {
				assert.Error(t, err, "expected an error")
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.senderId, senderId)
			assert.Equal(t, tc.memberIds, members)
		})
	}
}

func Test_decodeId(t *testing.T) {
	id, err := decodeId(json.RawMessage(`"chat1"`))
	assert.NoError(t, err)
	assert.Equal(t, "chat1", id)

	_, err = decodeId(json.RawMessage(`""`))
	assert.ErrorIs(t, err, errEmptyId)

	_, err = decodeId(json.RawMessage(`{"id":"chat1"}`))
	assert.Error(t, err)

	_, err = decodeId(nil)
	assert.Error(t, err)
}

func Test_serializeMessage(t *testing.T) {
	t.Run("no payload", func(t *testing.T) {
		msg, err := newServerMessage(EventTyping, nil)
		assert.NoError(t, err)

		bytes, err := serializeMessage(msg)
		assert.NoError(t, err)
		assert.Equal(t, `{"event":"typing"}`, string(bytes))
	})

	t.Run("raw payload is relayed", func(t *testing.T) {
		raw := json.RawMessage(`{"content":"hi","chat":{"users":["u2"]}}`)
		msg, err := newServerMessage(EventReceiveMessage, raw)
		assert.NoError(t, err)

		bytes, err := serializeMessage(msg)
		assert.NoError(t, err)
		assert.Equal(t, `{"event":"receive-message","data":{"content":"hi","chat":{"users":["u2"]}}}`, string(bytes))
	})

	t.Run("presence entries", func(t *testing.T) {
		msg, err := newServerMessage(EventGetOnlineUsers, []PresenceEntry{{UserId: "u1", ConnectionId: "c1"}})
		assert.NoError(t, err)

		bytes, err := serializeMessage(msg)
		assert.NoError(t, err)
		assert.Equal(t, `{"event":"get-online-users","data":[{"userId":"u1","connectionId":"c1"}]}`, string(bytes))
	})
}
