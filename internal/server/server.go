package server

import (
	"context"
	"log"
	"sync"

	"github.com/npezzotti/go-social/internal/stats"
)

var metrics = []string{
	"NumActiveClients",
	"NumOnlineUsers",
	"NumActiveRooms",
	"NumEventsRouted",
}

// ChatServer owns the process-wide real-time state: live connections, room
// subscriptions and presence. Connects and disconnects are serialised on the
// Run goroutine; the registries are safe for use from client goroutines.
type ChatServer struct {
	log            *log.Logger
	stats          stats.StatsProvider
	rooms          *RoomRegistry
	presence       *PresenceTracker
	broadcaster    *Broadcaster
	router         *Router
	clients        map[*Client]struct{}
	clientsLock    sync.RWMutex
	registerChan   chan *Client
	deRegisterChan chan *Client
	stop           chan struct{}
	done           chan struct{}
}

func NewChatServer(logger *log.Logger, su stats.StatsProvider) (*ChatServer, error) {
	for _, m := range metrics {
		su.RegisterMetric(m)
	}

	cs := &ChatServer{
		log:            logger,
		stats:          su,
		rooms:          NewRoomRegistry(),
		presence:       NewPresenceTracker(),
		clients:        make(map[*Client]struct{}),
		registerChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	cs.broadcaster = NewBroadcaster(cs.rooms, cs, logger)
	cs.router = &Router{
		log:         logger,
		rooms:       cs.rooms,
		presence:    cs.presence,
		broadcaster: cs.broadcaster,
		stats:       su,
		done:        cs.done,
	}

	return cs, nil
}

func (cs *ChatServer) Run() {
	for {
		select {
		case client := <-cs.registerChan:
			cs.log.Printf("adding connection %s from %q", client.id, client.user.Username)
			cs.addClient(client)
		case client := <-cs.deRegisterChan:
			cs.log.Printf("removing connection %s from %q", client.id, client.user.Username)
			cs.removeClient(client)
		case <-cs.stop:
			cs.log.Println("stopping clients")
			for _, c := range cs.Clients() {
				c.stopClient()
			}

			cs.clientsLock.Lock()
			clear(cs.clients)
			cs.clientsLock.Unlock()

			cs.rooms.Clear()
			cs.presence.Clear()

			close(cs.done)
			return
		}
	}
}

// RegisterClient hands a new connection to the server. It must be called
// before the client's pumps are started.
func (cs *ChatServer) RegisterClient(c *Client) {
	select {
	case cs.registerChan <- c:
	case <-cs.done:
		c.stopClient()
	}
}

func (cs *ChatServer) deregisterClient(c *Client) {
	select {
	case cs.deRegisterChan <- c:
	case <-cs.done:
		// a frame read after Run stopped may have re-subscribed c
		cs.router.forget(c)
	}
}

func (cs *ChatServer) addClient(c *Client) {
	cs.clientsLock.Lock()
	cs.clients[c] = struct{}{}
	cs.clientsLock.Unlock()

	cs.stats.Incr("NumActiveClients")
}

func (cs *ChatServer) removeClient(c *Client) {
	cs.clientsLock.Lock()
	_, ok := cs.clients[c]
	delete(cs.clients, c)
	cs.clientsLock.Unlock()

	if !ok {
		return
	}

	cs.stats.Decr("NumActiveClients")
	cs.router.Disconnect(c)
}

// Clients returns a snapshot of the live connections.
func (cs *ChatServer) Clients() []*Client {
	cs.clientsLock.RLock()
	defer cs.clientsLock.RUnlock()

	clients := make([]*Client, 0, len(cs.clients))
	for c := range cs.clients {
		clients = append(clients, c)
	}

	return clients
}

func (cs *ChatServer) OnlineUsers() []string {
	return cs.presence.OnlineUsers()
}

func (cs *ChatServer) Shutdown(ctx context.Context) error {
	cs.log.Println("received shutdown signal")

	select {
	case cs.stop <- struct{}{}:
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
