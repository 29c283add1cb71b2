package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/npezzotti/go-social/internal/stats"
	"github.com/npezzotti/go-social/internal/testutil"
	"github.com/npezzotti/go-social/internal/types"
	"github.com/stretchr/testify/mock"
)

// newTestChatServer creates a ChatServer whose stats calls are all optional.
func newTestChatServer(t *testing.T) *ChatServer {
	su := &stats.MockStatsUpdater{}
	su.On("RegisterMetric", mock.Anything).Times(len(metrics))
	su.On("Incr", mock.Anything).Maybe()
	su.On("Decr", mock.Anything).Maybe()
	su.On("Set", mock.Anything, mock.Anything).Maybe()

	cs, err := NewChatServer(testutil.TestLogger(t), su)
	if err != nil {
		t.Fatalf("failed to create test ChatServer: %v", err)
	}
	return cs
}

// newTestClient creates a client without a connection, registered directly
// in the server's client set.
func newTestClient(cs *ChatServer, userId string) *Client {
	c := &Client{
		id:         uuid.NewString(),
		chatServer: cs,
		log:        cs.log,
		user:       types.User{Id: userId, Username: userId},
		send:       make(chan *ServerMessage, 16),
		stop:       make(chan struct{}),
	}

	cs.clientsLock.Lock()
	cs.clients[c] = struct{}{}
	cs.clientsLock.Unlock()

	return c
}

func route(cs *ChatServer, c *Client, event string, data string) {
	msg := &ClientMessage{Event: event}
	if data != "" {
		msg.Data = json.RawMessage(data)
	}
	cs.router.Route(c, msg)
}

func receive(t *testing.T, c *Client) *ServerMessage {
	t.Helper()
	select {
	case msg := <-c.send:
		return msg
	case <-time.After(time.Second):
		t.Fatalf("expected a message for connection %s, but none was sent", c.id)
		return nil
	}
}

func assertNoMessage(t *testing.T, c *Client) {
	t.Helper()
	select {
	case msg := <-c.send:
		t.Errorf("expected no message for connection %s, got %q", c.id, msg.Event)
	default:
	}
}
