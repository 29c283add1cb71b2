package server

import (
	"encoding/json"
	"log"

	"github.com/npezzotti/go-social/internal/stats"
	"github.com/samber/lo"
)

// Router dispatches inbound events from a client to their handlers.
// Malformed events are logged and dropped; nothing is sent back to the
// sender.
type Router struct {
	log         *log.Logger
	rooms       *RoomRegistry
	presence    *PresenceTracker
	broadcaster *Broadcaster
	stats       stats.StatsProvider
	// closed once the server has stopped; nil never closes
	done <-chan struct{}
}

func (rt *Router) stopped() bool {
	select {
	case <-rt.done:
		return true
	default:
		return false
	}
}

func (rt *Router) Route(c *Client, msg *ClientMessage) {
	if rt.stopped() {
		rt.log.Printf("server stopped, dropping %q from connection %s", msg.Event, c.id)
		return
	}

	if rt.stats != nil {
		rt.stats.Incr("NumEventsRouted")
	}

	switch msg.Event {
	case EventJoin:
		rt.handleJoin(c, msg.Data)
	case EventJoinConversation:
		rt.handleJoinConversation(c, msg.Data)
	case EventSendMessage:
		rt.handleSendMessage(c, msg.Data)
	case EventTyping, EventStopTyping:
		rt.handleTyping(c, msg.Event, msg.Data)
	default:
		rt.log.Printf("unknown event %q from connection %s", msg.Event, c.id)
	}
}

func (rt *Router) handleJoin(c *Client, data json.RawMessage) {
	userId, err := decodeId(data)
	if err != nil {
		rt.log.Printf("invalid join from connection %s: %v", c.id, err)
		return
	}

	if c.user.Id != "" && c.user.Id != userId {
		rt.log.Printf("connection %s of user %q tried to join inbox of %q", c.id, c.user.Id, userId)
		return
	}

	rt.rooms.Subscribe(c, InboxRoom(userId))
	// the online list is only broadcast on disconnect
	rt.presence.MarkOnline(userId, c.id)
	rt.log.Printf("%s joined", userId)
	rt.updateGauges()
}

func (rt *Router) handleJoinConversation(c *Client, data json.RawMessage) {
	chatId, err := decodeId(data)
	if err != nil {
		rt.log.Printf("invalid join-conversation from connection %s: %v", c.id, err)
		return
	}

	rt.rooms.Subscribe(c, ChatRoom(chatId))
	rt.log.Printf("connection %s joined conversation %q", c.id, chatId)
	rt.updateGauges()
}

func (rt *Router) handleSendMessage(c *Client, data json.RawMessage) {
	senderId, members, err := recipients(data)
	if err != nil {
		rt.log.Printf("dropping send-message from connection %s: %v", c.id, err)
		return
	}

	msg, err := newServerMessage(EventReceiveMessage, data)
	if err != nil {
		rt.log.Printf("encode receive-message: %v", err)
		return
	}

	for _, userId := range lo.Uniq(members) {
		if userId == senderId {
			continue
		}

		rt.broadcaster.DeliverTo(rt.rooms.MembersOf(InboxRoom(userId)), msg, c)
	}
}

func (rt *Router) handleTyping(c *Client, event string, data json.RawMessage) {
	chatId, err := decodeId(data)
	if err != nil {
		rt.log.Printf("invalid %s from connection %s: %v", event, c.id, err)
		return
	}

	rt.broadcaster.Deliver(ChatRoom(chatId), event, nil, c)
}

// Disconnect drops every subscription and presence entry of the client and
// sends the updated online list to all remaining connections.
func (rt *Router) Disconnect(c *Client) {
	left := rt.rooms.UnsubscribeAll(c)
	rt.presence.MarkOffline(c.id)
	rt.log.Printf("connection %s disconnected, left %d rooms", c.id, len(left))

	// c is no longer in the client set at this point
	rt.broadcaster.BroadcastAll(EventGetOnlineUsers, rt.presence.Entries())
	rt.updateGauges()
}

// forget drops the client's state without broadcasting. It is used once the
// server has stopped and the client set is gone.
func (rt *Router) forget(c *Client) {
	rt.rooms.UnsubscribeAll(c)
	rt.presence.MarkOffline(c.id)
}

func (rt *Router) updateGauges() {
	if rt.stats == nil {
		return
	}

	rt.stats.Set("NumOnlineUsers", len(rt.presence.OnlineUsers()))
	rt.stats.Set("NumActiveRooms", rt.rooms.Len())
}
