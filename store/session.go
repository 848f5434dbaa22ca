package store

// SessionStatus is the lifecycle status of a chat session.
type SessionStatus string

const (
	// SessionStatusActive means the session accepts new connections and messages.
	SessionStatusActive SessionStatus = "ACTIVE"
	// SessionStatusInactive means the session exists but rejects new connections.
	SessionStatusInactive SessionStatus = "INACTIVE"
	// SessionStatusEnded means the session has been closed for good.
	SessionStatusEnded SessionStatus = "ENDED"
)

// Session is a logical conversation identity, distinct from any single
// transport connection. One session may have multiple live connections.
type Session struct {
	ID        string
	UserID    string
	Status    SessionStatus
	Metadata  string // JSON string
	CreatedTs int64
	UpdatedTs int64
}

// IsActive reports whether the session accepts chat traffic.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

type FindSession struct {
	ID     *string
	UserID *string
	Status *SessionStatus
}

type UpdateSession struct {
	ID        string
	Status    *SessionStatus
	Metadata  *string
	UpdatedTs *int64
}

type DeleteSession struct {
	ID string
}
