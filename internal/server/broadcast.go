package server

import (
	"log"
)

// Broadcaster fans a message out to the current subscribers of a room.
// Delivery is best effort: a recipient whose queue is full or closed is
// skipped and the rest still receive the message.
type Broadcaster struct {
	rooms   *RoomRegistry
	clients clientLister
	log     *log.Logger
}

type clientLister interface {
	Clients() []*Client
}

func NewBroadcaster(rooms *RoomRegistry, clients clientLister, logger *log.Logger) *Broadcaster {
	return &Broadcaster{
		rooms:   rooms,
		clients: clients,
		log:     logger,
	}
}

// Deliver sends the event to every client subscribed to key at call time,
// except exclude, and returns the number of clients that accepted it.
func (b *Broadcaster) Deliver(key RoomKey, event string, payload any, exclude *Client) int {
	msg, err := newServerMessage(event, payload)
	if err != nil {
		b.log.Printf("encode %q for room %s: %v", event, key, err)
		return 0
	}

	return b.DeliverTo(b.rooms.MembersOf(key), msg, exclude)
}

// BroadcastAll sends the event to every registered connection.
func (b *Broadcaster) BroadcastAll(event string, payload any) int {
	msg, err := newServerMessage(event, payload)
	if err != nil {
		b.log.Printf("encode %q: %v", event, err)
		return 0
	}

	return b.DeliverTo(b.clients.Clients(), msg, nil)
}

func (b *Broadcaster) DeliverTo(clients []*Client, msg *ServerMessage, exclude *Client) int {
	delivered := 0
	for _, c := range clients {
		if c == exclude {
			continue
		}

		if c.queueMessage(msg) {
			delivered++
		}
	}

	return delivered
}
