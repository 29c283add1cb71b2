package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceTracker_MarkOnline(t *testing.T) {
	p := NewPresenceTracker()

	assert.True(t, p.MarkOnline("u1", "c1"))
	assert.False(t, p.MarkOnline("u1", "c1"), "expected duplicate pair to be ignored")
	assert.True(t, p.MarkOnline("u1", "c2"), "expected a second device to be tracked")
	assert.True(t, p.MarkOnline("u2", "c3"))

	assert.Equal(t, []PresenceEntry{
		{UserId: "u1", ConnectionId: "c1"},
		{UserId: "u1", ConnectionId: "c2"},
		{UserId: "u2", ConnectionId: "c3"},
	}, p.Entries())
	assert.Equal(t, []string{"u1", "u2"}, p.OnlineUsers())
}

func TestPresenceTracker_MultiDevice(t *testing.T) {
	p := NewPresenceTracker()
	p.MarkOnline("u1", "c1")
	p.MarkOnline("u1", "c2")

	assert.True(t, p.MarkOffline("c1"))
	assert.True(t, p.IsOnline("u1"), "expected user to stay online through the other connection")
	assert.Equal(t, []PresenceEntry{{UserId: "u1", ConnectionId: "c2"}}, p.Entries())

	assert.True(t, p.MarkOffline("c2"))
	assert.False(t, p.IsOnline("u1"))
	assert.False(t, p.MarkOffline("c2"), "expected unknown connection to be a no-op")
}

func TestPresenceTracker_Entries(t *testing.T) {
	p := NewPresenceTracker()
	assert.NotNil(t, p.Entries(), "expected empty list rather than nil")

	p.MarkOnline("u1", "c1")
	entries := p.Entries()
	entries[0].UserId = "changed"
	assert.Equal(t, "u1", p.Entries()[0].UserId, "expected Entries to return a copy")

	p.Clear()
	assert.Empty(t, p.Entries())
	assert.Empty(t, p.OnlineUsers())
}
