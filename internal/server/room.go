package server

import (
	"sync"
)

type roomKind uint8

const (
	inboxRoom roomKind = iota + 1
	chatRoom
)

// RoomKey identifies a room. Inbox rooms are keyed by user id and chat rooms
// by chat id; the kind keeps the two id spaces apart even when the wire
// carries the same bare string for both.
type RoomKey struct {
	kind roomKind
	id   string
}

func InboxRoom(userId string) RoomKey {
	return RoomKey{kind: inboxRoom, id: userId}
}

func ChatRoom(chatId string) RoomKey {
	return RoomKey{kind: chatRoom, id: chatId}
}

func (k RoomKey) Id() string {
	return k.id
}

func (k RoomKey) String() string {
	switch k.kind {
	case inboxRoom:
		return "inbox:" + k.id
	case chatRoom:
		return "chat:" + k.id
	default:
		return "unknown:" + k.id
	}
}

// RoomRegistry indexes room subscriptions in both directions so that a
// disconnecting client only touches the rooms it joined.
type RoomRegistry struct {
	mu      sync.RWMutex
	members map[RoomKey]map[*Client]struct{}
	joined  map[*Client]map[RoomKey]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		members: make(map[RoomKey]map[*Client]struct{}),
		joined:  make(map[*Client]map[RoomKey]struct{}),
	}
}

// Subscribe adds c to the room and reports whether it was not already a member.
func (r *RoomRegistry) Subscribe(c *Client, key RoomKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.members[key]
	if !ok {
		clients = make(map[*Client]struct{})
		r.members[key] = clients
	}

	if _, ok := clients[c]; ok {
		return false
	}
	clients[c] = struct{}{}

	rooms, ok := r.joined[c]
	if !ok {
		rooms = make(map[RoomKey]struct{})
		r.joined[c] = rooms
	}
	rooms[key] = struct{}{}

	return true
}

// UnsubscribeAll removes c from every room it joined and returns those rooms.
func (r *RoomRegistry) UnsubscribeAll(c *Client) []RoomKey {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms, ok := r.joined[c]
	if !ok {
		return nil
	}

	left := make([]RoomKey, 0, len(rooms))
	for key := range rooms {
		if clients, ok := r.members[key]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(r.members, key)
			}
		}
		left = append(left, key)
	}
	delete(r.joined, c)

	return left
}

// MembersOf returns a snapshot of the clients subscribed to the room.
func (r *RoomRegistry) MembersOf(key RoomKey) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := r.members[key]
	members := make([]*Client, 0, len(clients))
	for c := range clients {
		members = append(members, c)
	}

	return members
}

func (r *RoomRegistry) IsMember(key RoomKey, c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[key][c]
	return ok
}

func (r *RoomRegistry) RoomsOf(c *Client) []RoomKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]RoomKey, 0, len(r.joined[c]))
	for key := range r.joined[c] {
		rooms = append(rooms, key)
	}

	return rooms
}

// Len returns the number of rooms with at least one subscriber.
func (r *RoomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.members)
}

func (r *RoomRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.members)
	clear(r.joined)
}
