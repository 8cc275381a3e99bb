package ws

import "sync"

// Hub holds every live session, the rooms they joined and the presence
// registry. A session lands in its personal room when it identifies (setup)
// and in one chat room per open chat (join_chat). Fan-out is address-based:
// the hub pushes to whatever sessions are in a room and never re-checks chat
// membership, which was established at the REST layer.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // conn id -> session
	rooms    map[string]map[string]*Session // chat id -> conn id -> session

	presence *PresenceRegistry
}

// NewHub creates an empty hub.
func NewHub(presence *PresenceRegistry) *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
		presence: presence,
	}
}

// AddSession registers a freshly accepted connection.
func (h *Hub) AddSession(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.Info.ConnID] = s
}

// Identify binds the session to a user id and registers presence. A newer
// connection for the same user simply displaces the old registry entry; the
// old socket stays open but stops receiving personal-room pushes.
func (h *Hub) Identify(s *Session, userID int) {
	h.mu.Lock()
	s.UserID = userID
	h.mu.Unlock()
	h.presence.Register(userID, s.Info.ConnID)
}

// RemoveSession drops the connection from the hub and all rooms and clears
// its presence entry. Returns the user that went offline, if the presence
// entry still belonged to this connection.
func (h *Hub) RemoveSession(s *Session) (userID int, wentOffline bool) {
	h.mu.Lock()
	delete(h.sessions, s.Info.ConnID)
	for chatID, members := range h.rooms {
		delete(members, s.Info.ConnID)
		if len(members) == 0 {
			delete(h.rooms, chatID)
		}
	}
	h.mu.Unlock()

	return h.presence.Unregister(s.Info.ConnID)
}

// JoinRoom adds the session to a chat room. A connection may be in many rooms
// at once, one per open chat.
func (h *Hub) JoinRoom(chatID string, s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[string]*Session)
	}
	h.rooms[chatID][s.Info.ConnID] = s
}

// PushToUser delivers one event to the user's personal room. Returns false if
// the user has no presence entry (offline): the event is silently dropped and
// recovered later over REST.
func (h *Hub) PushToUser(userID int, ev Event) bool {
	connID, ok := h.presence.Lookup(userID)
	if !ok {
		return false
	}

	h.mu.RLock()
	s, ok := h.sessions[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}

	_ = s.Push(ev)
	return true
}

// BroadcastToRoom pushes the event to every session joined to the chat room
// except the named connection.
func (h *Hub) BroadcastToRoom(chatID, exceptConnID string, ev Event) {
	h.mu.RLock()
	members := make([]*Session, 0, len(h.rooms[chatID]))
	for connID, s := range h.rooms[chatID] {
		if connID == exceptConnID {
			continue
		}
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		_ = s.Push(ev)
	}
}

// BroadcastAll pushes the event to every connected session.
func (h *Hub) BroadcastAll(ev Event) {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		_ = s.Push(ev)
	}
}

// Presence exposes the registry for snapshots and online checks.
func (h *Hub) Presence() *PresenceRegistry {
	return h.presence
}
