package ws

import "sync"

// PresenceRegistry is the authoritative in-memory map of which users hold an
// active connection. Lookup is keyed by user id; removal is keyed by
// connection id. The asymmetry is deliberate: when a user reconnects quickly,
// the old connection's delayed disconnect must not mark the new connection
// offline, so Unregister only removes the entry if the connection id still
// matches.
type PresenceRegistry struct {
	mu     sync.RWMutex
	byUser map[int]string
}

// NewPresenceRegistry creates an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{byUser: make(map[int]string)}
}

// Register binds the user to the connection, replacing any previous entry
// (last writer wins). Returns the connection id that was displaced, if any.
func (p *PresenceRegistry) Register(userID int, connID string) (replaced string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	replaced = p.byUser[userID]
	p.byUser[userID] = connID
	return replaced
}

// Unregister removes the entry whose connection id matches. A stale id (the
// user already reconnected on another connection) is a no-op. Returns the user
// that went offline and whether an entry was actually removed.
func (p *PresenceRegistry) Unregister(connID string) (userID int, removed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for uid, cid := range p.byUser {
		if cid == connID {
			delete(p.byUser, uid)
			return uid, true
		}
	}
	return 0, false
}

// Lookup returns the connection currently bound to the user.
func (p *PresenceRegistry) Lookup(userID int) (connID string, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	connID, ok = p.byUser[userID]
	return connID, ok
}

// IsOnline reports whether the user has an active connection.
func (p *PresenceRegistry) IsOnline(userID int) bool {
	_, ok := p.Lookup(userID)
	return ok
}

// Snapshot returns the set of online user ids.
func (p *PresenceRegistry) Snapshot() []int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	users := make([]int, 0, len(p.byUser))
	for uid := range p.byUser {
		users = append(users, uid)
	}
	return users
}

// Count returns the number of online users.
func (p *PresenceRegistry) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byUser)
}
