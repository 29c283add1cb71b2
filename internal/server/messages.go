package server

import (
	"bytes"
	"encoding/json"
	"errors"
)

const (
	EventJoin             = "join"
	EventJoinConversation = "join-conversation"
	EventSendMessage      = "send-message"
	EventReceiveMessage   = "receive-message"
	EventTyping           = "typing"
	EventStopTyping       = "stop-typing"
	EventGetOnlineUsers   = "get-online-users"
)

var (
	errNoChatUsers = errors.New("chat users missing")
	errEmptyId     = errors.New("empty id")
)

// ClientMessage is an inbound frame: {"event": name, "data": payload}.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is an outbound frame. Data is left out for events that carry
// no payload, such as typing indicators.
type ServerMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newServerMessage(event string, payload any) (*ServerMessage, error) {
	msg := &ServerMessage{Event: event}
	switch p := payload.(type) {
	case nil:
	case json.RawMessage:
		msg.Data = p
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}

	return msg, nil
}

func serializeMessage(msg *ServerMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// decodeId reads a string id payload such as the user id of join or the
// chat id of typing.
func decodeId(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", err
	}
	if id == "" {
		return "", errEmptyId
	}

	return id, nil
}

type memberRef struct {
	Id string `json:"_id"`
}

// memberId accepts a bare id string or an object carrying _id.
func memberId(raw json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return id, id != ""
	}

	var ref memberRef
	if err := json.Unmarshal(raw, &ref); err == nil {
		return ref.Id, ref.Id != ""
	}

	return "", false
}

// relayedMessage holds the only fields of a chat message the router reads.
// The payload itself is relayed untouched.
type relayedMessage struct {
	Sender json.RawMessage `json:"sender"`
	Chat   *struct {
		Users json.RawMessage `json:"users"`
	} `json:"chat"`
}

// recipients returns the sender id and the chat members, in payload order.
func recipients(data json.RawMessage) (string, []string, error) {
	var msg relayedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return "", nil, err
	}

	if msg.Chat == nil {
		return "", nil, errNoChatUsers
	}

	users := bytes.TrimSpace(msg.Chat.Users)
	if len(users) == 0 || bytes.Equal(users, []byte("null")) {
		return "", nil, errNoChatUsers
	}

	var members []json.RawMessage
	if err := json.Unmarshal(users, &members); err != nil {
		return "", nil, err
	}

	ids := make([]string, 0, len(members))
	for _, raw := range members {
		if id, ok := memberId(raw); ok {
			ids = append(ids, id)
		}
	}

	var senderId string
	if len(msg.Sender) > 0 {
		senderId, _ = memberId(msg.Sender)
	}

	return senderId, ids, nil
}
