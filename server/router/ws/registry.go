package ws

import (
	"log/slog"
	"sync"
)

// Registry owns the live connections of every session. Each session
// has its own guard so that broadcasts on one session never block
// joins and leaves on another.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*sessionConns
}

type sessionConns struct {
	mu    sync.Mutex
	conns map[*Conn]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: map[string]*sessionConns{},
	}
}

// Join registers a connection under a session, creating the session's
// set on first use. Adding the same connection twice is a no-op.
// The registry lock is held across the membership add: if it were
// dropped first, a concurrent Leave or broadcast prune could delete
// the session's set in between and the connection would be added to
// a set no longer reachable by Broadcast.
func (r *Registry) Join(conn *Conn, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[sessionID]
	if !ok {
		set = &sessionConns{conns: map[*Conn]struct{}{}}
		r.sessions[sessionID] = set
	}
	set.mu.Lock()
	set.conns[conn] = struct{}{}
	set.mu.Unlock()
}

// Leave removes a connection from a session. When the last connection
// leaves, the session's set is dropped entirely so sessions do not
// accumulate. Leaving with a connection that was never joined is fine.
func (r *Registry) Leave(conn *Conn, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	set.mu.Lock()
	delete(set.conns, conn)
	empty := len(set.conns) == 0
	set.mu.Unlock()
	if empty {
		delete(r.sessions, sessionID)
	}
}

// Unicast sends an event to one connection. A dead peer is not a
// fault; the failure is logged at debug level and swallowed.
func (r *Registry) Unicast(event *Event, conn *Conn) {
	if err := conn.WriteEvent(event); err != nil {
		slog.Debug("dropping event for closed connection", "type", event.Type, "err", err)
	}
}

// Broadcast sends an event to every connection of a session. The set
// is snapshotted first so sends happen without holding the session
// guard, and any connection whose send fails is pruned afterward in
// one batch.
func (r *Registry) Broadcast(event *Event, sessionID string) {
	r.mu.RLock()
	set, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	set.mu.Lock()
	snapshot := make([]*Conn, 0, len(set.conns))
	for conn := range set.conns {
		snapshot = append(snapshot, conn)
	}
	set.mu.Unlock()

	var dead []*Conn
	for _, conn := range snapshot {
		if err := conn.WriteEvent(event); err != nil {
			slog.Debug("pruning dead connection after failed broadcast", "sessionID", sessionID, "err", err)
			dead = append(dead, conn)
		}
	}

	if len(dead) == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok = r.sessions[sessionID]
	if !ok {
		return
	}
	set.mu.Lock()
	for _, conn := range dead {
		delete(set.conns, conn)
	}
	empty := len(set.conns) == 0
	set.mu.Unlock()
	if empty {
		delete(r.sessions, sessionID)
	}
}

// ConnectionCount returns the number of live connections for one
// session.
func (r *Registry) ConnectionCount(sessionID string) int {
	r.mu.RLock()
	set, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.conns)
}

// TotalConnections returns the number of live connections across all
// sessions.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, set := range r.sessions {
		set.mu.Lock()
		total += len(set.conns)
		set.mu.Unlock()
	}
	return total
}

// sessionCount is a test hook that reports how many session sets are
// currently tracked.
func (r *Registry) sessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
