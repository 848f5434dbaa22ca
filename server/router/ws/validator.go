package ws

import (
	"context"

	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/internal/retry"
	"github.com/kaiwahq/kaiwa/store"
)

// ErrSessionInactive is returned when a session exists but no longer
// accepts connections.
var ErrSessionInactive = errors.New("session is not active")

// Validator confirms a session is usable before the chat loop starts.
// A session created moments before the connection may not be visible
// yet, so lookups retry a fixed number of times with a fixed delay.
type Validator struct {
	store *store.Store
}

func NewValidator(s *store.Store) *Validator {
	return &Validator{store: s}
}

// EnsureActive looks the session up with retry and checks its status.
// It returns store.ErrSessionNotFound when every attempt misses and
// ErrSessionInactive when the session exists but is not ACTIVE. No
// state is mutated.
func (v *Validator) EnsureActive(ctx context.Context, sessionID string) (*store.Session, error) {
	session, err := retry.Do(ctx, retry.SessionLookup,
		func(ctx context.Context) (*store.Session, error) {
			return v.store.GetSession(ctx, sessionID)
		},
		func(_ *store.Session, err error) bool {
			return errors.Is(err, store.ErrSessionNotFound)
		},
	)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, ErrSessionInactive
	}
	return session, nil
}
