package ws

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"
)

// Conn is the write side of a websocket connection. *websocket.Conn satisfies
// it; tests substitute a recording fake.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// ConnInfo is connection metadata captured at handshake time for the
// observability side channel.
type ConnInfo struct {
	ConnID      string
	DeviceID    string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}

// Session is the per-connection state: its identity (zero until setup) and a
// serialized write path. Reads happen on the handler's goroutine; any
// goroutine may push, so writes are guarded by a mutex.
type Session struct {
	Info   ConnInfo
	UserID int

	conn Conn
	wmu  sync.Mutex
}

// NewSession wraps an accepted connection.
func NewSession(info ConnInfo, conn Conn) *Session {
	return &Session{Info: info, conn: conn}
}

// Push writes one event to the connection. Write failures are logged and
// returned; the read loop notices the broken transport and tears down.
func (s *Session) Push(ev Event) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if err := s.conn.WriteJSON(ev); err != nil {
		log.Printf("websocket write error conn=%s: %v", s.Info.ConnID, err)
		return err
	}
	return nil
}

// Close closes the underlying transport.
func (s *Session) Close() error {
	return s.conn.Close()
}

// NewConnID returns a random connection identifier.
func NewConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}
