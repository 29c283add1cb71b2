package server

import (
	"slices"
	"sync"

	"github.com/samber/lo"
)

type PresenceEntry struct {
	UserId       string `json:"userId"`
	ConnectionId string `json:"connectionId"`
}

// PresenceTracker records which users have a live connection. Entries are
// removed by connection id, so closing one device leaves the user's other
// sessions online.
type PresenceTracker struct {
	mu      sync.RWMutex
	entries []PresenceEntry
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		entries: make([]PresenceEntry, 0),
	}
}

// MarkOnline adds the entry unless the exact pair is already tracked.
func (p *PresenceTracker) MarkOnline(userId, connectionId string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry := PresenceEntry{UserId: userId, ConnectionId: connectionId}
	if slices.Contains(p.entries, entry) {
		return false
	}

	p.entries = append(p.entries, entry)
	return true
}

// MarkOffline removes every entry of the connection and reports whether any existed.
func (p *PresenceTracker) MarkOffline(connectionId string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	before := len(p.entries)
	p.entries = slices.DeleteFunc(p.entries, func(e PresenceEntry) bool {
		return e.ConnectionId == connectionId
	})

	return len(p.entries) != before
}

// OnlineUsers returns the distinct online user ids in the order they came online.
func (p *PresenceTracker) OnlineUsers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return lo.Uniq(lo.Map(p.entries, func(e PresenceEntry, _ int) string {
		return e.UserId
	}))
}

func (p *PresenceTracker) IsOnline(userId string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return lo.ContainsBy(p.entries, func(e PresenceEntry) bool {
		return e.UserId == userId
	})
}

// Entries returns a copy of the tracked entries, oldest first.
func (p *PresenceTracker) Entries() []PresenceEntry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return slices.Clone(p.entries)
}

func (p *PresenceTracker) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.entries = make([]PresenceEntry, 0)
}
