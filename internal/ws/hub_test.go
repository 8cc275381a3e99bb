package ws

import (
	"sync"
	"testing"
)

// fakeConn records every event pushed to it.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, v.(Event))
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) recorded() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Event, len(f.events))
	copy(out, f.events)
	return out
}

func newTestSession(hub *Hub, connID string, userID int) (*Session, *fakeConn) {
	conn := &fakeConn{}
	s := NewSession(ConnInfo{ConnID: connID}, conn)
	hub.AddSession(s)
	if userID > 0 {
		hub.Identify(s, userID)
	}
	return s, conn
}

func TestPushToUserOnlineOnly(t *testing.T) {
	hub := NewHub(NewPresenceRegistry())
	_, connB := newTestSession(hub, "conn-b", 2)

	if !hub.PushToUser(2, Event{Event: EventMessageReceived}) {
		t.Fatalf("expected push to online user to succeed")
	}
	if hub.PushToUser(3, Event{Event: EventMessageReceived}) {
		t.Fatalf("expected push to offline user to report false")
	}

	got := connB.recorded()
	if len(got) != 1 || got[0].Event != EventMessageReceived {
		t.Fatalf("expected exactly one message_recieved, got %+v", got)
	}
}

func TestBroadcastToRoomExceptSender(t *testing.T) {
	hub := NewHub(NewPresenceRegistry())
	sa, connA := newTestSession(hub, "conn-a", 1)
	sb, connB := newTestSession(hub, "conn-b", 2)
	_, connC := newTestSession(hub, "conn-c", 3)

	hub.JoinRoom("chat-1", sa)
	hub.JoinRoom("chat-1", sb)

	hub.BroadcastToRoom("chat-1", "conn-a", Event{Event: EventTyping})

	if len(connA.recorded()) != 0 {
		t.Fatalf("sender must not receive its own room broadcast")
	}
	if got := connB.recorded(); len(got) != 1 || got[0].Event != EventTyping {
		t.Fatalf("expected one typing event for conn-b, got %+v", got)
	}
	if len(connC.recorded()) != 0 {
		t.Fatalf("sessions outside the room must not receive the broadcast")
	}
}

func TestRemoveSessionClearsRoomsAndPresence(t *testing.T) {
	hub := NewHub(NewPresenceRegistry())
	sa, _ := newTestSession(hub, "conn-a", 1)
	hub.JoinRoom("chat-1", sa)

	userID, wentOffline := hub.RemoveSession(sa)
	if !wentOffline || userID != 1 {
		t.Fatalf("expected user 1 to go offline, got user=%d offline=%v", userID, wentOffline)
	}
	if hub.PushToUser(1, Event{Event: EventMessageReceived}) {
		t.Fatalf("expected push to removed user to fail")
	}
	if len(hub.rooms) != 0 {
		t.Fatalf("expected empty rooms after last member left")
	}
}

func TestRemoveStaleSessionKeepsUserOnline(t *testing.T) {
	hub := NewHub(NewPresenceRegistry())
	old, oldConn := newTestSession(hub, "conn-old", 1)
	_, freshConn := newTestSession(hub, "conn-new", 1)

	// The reconnect displaced conn-old in the registry; its teardown must not
	// take user 1 offline.
	_, wentOffline := hub.RemoveSession(old)
	if wentOffline {
		t.Fatalf("stale session teardown must not report the user offline")
	}
	if !hub.Presence().IsOnline(1) {
		t.Fatalf("user 1 must stay online on the fresh connection")
	}

	hub.PushToUser(1, Event{Event: EventMessageReceived})
	if len(oldConn.recorded()) != 0 {
		t.Fatalf("displaced connection must not receive personal pushes")
	}
	if len(freshConn.recorded()) != 1 {
		t.Fatalf("fresh connection should receive the push")
	}
}

func TestBroadcastAll(t *testing.T) {
	hub := NewHub(NewPresenceRegistry())
	_, connA := newTestSession(hub, "conn-a", 1)
	_, connB := newTestSession(hub, "conn-b", 0)

	hub.BroadcastAll(Event{Event: EventUserOnline})

	if len(connA.recorded()) != 1 || len(connB.recorded()) != 1 {
		t.Fatalf("expected every session, identified or not, to receive the broadcast")
	}
}
