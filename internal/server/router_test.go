package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouter_join(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")
	other := newTestClient(cs, "u2")

	route(cs, a, EventJoin, `"u1"`)

	assert.True(t, cs.rooms.IsMember(InboxRoom("u1"), a), "expected client in its inbox room")
	assert.Equal(t, []PresenceEntry{{UserId: "u1", ConnectionId: a.id}}, cs.presence.Entries())
	// joining does not broadcast the online list
	assertNoMessage(t, a)
	assertNoMessage(t, other)
}

func TestRouter_joinOtherUsersInbox(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")

	route(cs, a, EventJoin, `"u2"`)

	assert.Empty(t, cs.rooms.MembersOf(InboxRoom("u2")), "expected join for another user to be ignored")
	assert.Empty(t, cs.presence.Entries())
}

func TestRouter_joinInvalidPayload(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")

	assert.NotPanics(t, func() {
		route(cs, a, EventJoin, "")
		route(cs, a, EventJoin, `{"user":"u1"}`)
		route(cs, a, EventJoinConversation, `""`)
		route(cs, a, "no-such-event", `"x"`)
	})

	assert.Equal(t, 0, cs.rooms.Len())
}

func TestRouter_joinConversationMembership(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")
	b := newTestClient(cs, "u2")
	c := newTestClient(cs, "u3")

	route(cs, a, EventJoinConversation, `"chat1"`)
	route(cs, b, EventJoinConversation, `"chat1"`)
	route(cs, b, EventJoinConversation, `"chat1"`)
	route(cs, c, EventJoinConversation, `"chat2"`)

	assert.ElementsMatch(t, []*Client{a, b}, cs.rooms.MembersOf(ChatRoom("chat1")))

	cs.router.Disconnect(a)
	assert.ElementsMatch(t, []*Client{b}, cs.rooms.MembersOf(ChatRoom("chat1")), "expected disconnected client to be gone")
	assert.ElementsMatch(t, []*Client{c}, cs.rooms.MembersOf(ChatRoom("chat2")))
}

func TestRouter_sendMessage(t *testing.T) {
	cs := newTestChatServer(t)
	sender := newTestClient(cs, "u1")
	u2 := newTestClient(cs, "u2")
	u3 := newTestClient(cs, "u3")
	outsider := newTestClient(cs, "u4")

	for _, c := range []*Client{sender, u2, u3, outsider} {
		route(cs, c, EventJoin, `"`+c.user.Id+`"`)
	}

	payload := `{"sender":{"_id":"u1","username":"one"},"content":"hello","chat":{"_id":"chat1","chatName":"group","users":["u1","u2","u3"]}}`
	route(cs, sender, EventSendMessage, payload)

	for _, c := range []*Client{u2, u3} {
		msg := receive(t, c)
		assert.Equal(t, EventReceiveMessage, msg.Event)
		assert.JSONEq(t, payload, string(msg.Data), "expected payload to be relayed unchanged")
		assertNoMessage(t, c)
	}

	assertNoMessage(t, sender)
	assertNoMessage(t, outsider)
}

func TestRouter_sendMessageDuplicatesAndDevices(t *testing.T) {
	cs := newTestChatServer(t)
	sender := newTestClient(cs, "u1")
	phone := newTestClient(cs, "u2")
	laptop := newTestClient(cs, "u2")

	route(cs, phone, EventJoin, `"u2"`)
	route(cs, laptop, EventJoin, `"u2"`)

	payload := `{"sender":{"_id":"u1"},"content":"hi","chat":{"users":[{"_id":"u1"},{"_id":"u2"},{"_id":"u2"}]}}`
	route(cs, sender, EventSendMessage, payload)

	for _, c := range []*Client{phone, laptop} {
		assert.Equal(t, EventReceiveMessage, receive(t, c).Event)
		assertNoMessage(t, c)
	}
}

func TestRouter_sendMessageWithoutUsers(t *testing.T) {
	cs := newTestChatServer(t)
	sender := newTestClient(cs, "u1")
	u2 := newTestClient(cs, "u2")
	route(cs, u2, EventJoin, `"u2"`)

	payloads := []string{
		`{"sender":{"_id":"u1"},"content":"hi","chat":{"_id":"chat1"}}`,
		`{"sender":{"_id":"u1"},"content":"hi","chat":{"_id":"chat1","users":null}}`,
		`{"sender":{"_id":"u1"},"content":"hi"}`,
		`"not a message"`,
		``,
	}

	for _, p := range payloads {
		assert.NotPanics(t, func() {
			route(cs, sender, EventSendMessage, p)
		})
	}

	assertNoMessage(t, u2)
}

func TestRouter_typing(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")
	b := newTestClient(cs, "u2")
	c := newTestClient(cs, "u3")

	route(cs, a, EventJoinConversation, `"chat1"`)
	route(cs, b, EventJoinConversation, `"chat1"`)
	route(cs, c, EventJoinConversation, `"chat2"`)

	route(cs, a, EventTyping, `"chat1"`)
	msg := receive(t, b)
	assert.Equal(t, EventTyping, msg.Event)
	assert.Empty(t, msg.Data, "expected typing to carry no payload")

	route(cs, a, EventStopTyping, `"chat1"`)
	msg = receive(t, b)
	assert.Equal(t, EventStopTyping, msg.Event)
	assert.Empty(t, msg.Data)

	// the origin is excluded; ignoring its own indicator is left to the client
	assertNoMessage(t, a)
	assertNoMessage(t, c)
}

func TestRouter_typingEmptyRoom(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")

	assert.NotPanics(t, func() {
		route(cs, a, EventTyping, `"nobody-here"`)
	})
	assertNoMessage(t, a)
}

func TestRouter_Disconnect(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")
	b := newTestClient(cs, "u2")

	route(cs, a, EventJoin, `"u1"`)
	route(cs, a, EventJoinConversation, `"chat1"`)
	route(cs, b, EventJoin, `"u2"`)
	route(cs, b, EventJoinConversation, `"chat1"`)

	cs.removeClient(a)

	assert.Empty(t, cs.rooms.RoomsOf(a), "expected disconnected client to leave all rooms")
	assert.False(t, cs.presence.IsOnline("u1"))
	assert.ElementsMatch(t, []RoomKey{InboxRoom("u2"), ChatRoom("chat1")}, cs.rooms.RoomsOf(b), "expected other subscriptions to be untouched")

	msg := receive(t, b)
	assert.Equal(t, EventGetOnlineUsers, msg.Event)
	var entries []PresenceEntry
	require.NoError(t, json.Unmarshal(msg.Data, &entries))
	assert.Equal(t, []PresenceEntry{{UserId: "u2", ConnectionId: b.id}}, entries)
	assertNoMessage(t, a)
}

func TestRouter_DisconnectMultiDevice(t *testing.T) {
	cs := newTestChatServer(t)
	phone := newTestClient(cs, "u1")
	laptop := newTestClient(cs, "u1")

	route(cs, phone, EventJoin, `"u1"`)
	route(cs, laptop, EventJoin, `"u1"`)

	cs.removeClient(phone)

	assert.True(t, cs.presence.IsOnline("u1"), "expected user to remain present via the other connection")
	assert.Equal(t, []PresenceEntry{{UserId: "u1", ConnectionId: laptop.id}}, cs.presence.Entries())
	assert.Equal(t, []*Client{laptop}, cs.rooms.MembersOf(InboxRoom("u1")))

	msg := receive(t, laptop)
	assert.Equal(t, EventGetOnlineUsers, msg.Event)
}

func TestRouter_DisconnectLastConnection(t *testing.T) {
	cs := newTestChatServer(t)
	a := newTestClient(cs, "u1")
	route(cs, a, EventJoin, `"u1"`)

	cs.removeClient(a)

	assert.Empty(t, cs.Clients())
	assert.Empty(t, cs.OnlineUsers())
	assert.Equal(t, 0, cs.rooms.Len())
}
