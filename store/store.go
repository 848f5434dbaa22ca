package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/internal/profile"
	"github.com/kaiwahq/kaiwa/store/cache"
)

// ErrSessionNotFound is returned when a session id resolves to nothing.
var ErrSessionNotFound = errors.New("session not found")

const sessionCacheTTL = 10 * time.Minute

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// sessionCache keeps recently read sessions so the per-connection
	// validator does not hit the database on every reconnect.
	sessionCache cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
		sessionCache: cache.NewMemory(cache.MemoryConfig{
			Capacity:   1024,
			DefaultTTL: sessionCacheTTL,
		}),
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	if err := s.sessionCache.Close(); err != nil {
		slog.Warn("failed to close session cache", "error", err)
	}
	return s.driver.Close()
}

func (s *Store) CreateSession(ctx context.Context, create *Session) (*Session, error) {
	session, err := s.driver.CreateSession(ctx, create)
	if err != nil {
		return nil, err
	}
	s.cacheSession(ctx, session)
	return session, nil
}

// GetSession returns the session with the given id, or ErrSessionNotFound.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	if raw, ok := s.sessionCache.Get(ctx, sessionCacheKey(id)); ok {
		session := &Session{}
		if err := json.Unmarshal(raw, session); err == nil {
			return session, nil
		}
		// A corrupt cache entry is dropped and re-read from the database.
		_ = s.sessionCache.Delete(ctx, sessionCacheKey(id))
	}

	list, err := s.driver.ListSessions(ctx, &FindSession{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, ErrSessionNotFound
	}
	session := list[0]
	s.cacheSession(ctx, session)
	return session, nil
}

func (s *Store) ListSessions(ctx context.Context, find *FindSession) ([]*Session, error) {
	return s.driver.ListSessions(ctx, find)
}

func (s *Store) UpdateSession(ctx context.Context, update *UpdateSession) (*Session, error) {
	session, err := s.driver.UpdateSession(ctx, update)
	if err != nil {
		return nil, err
	}
	s.cacheSession(ctx, session)
	return session, nil
}

func (s *Store) DeleteSession(ctx context.Context, delete *DeleteSession) error {
	if err := s.driver.DeleteSession(ctx, delete); err != nil {
		return err
	}
	_ = s.sessionCache.Delete(ctx, sessionCacheKey(delete.ID))
	return nil
}

func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

func (s *Store) CountConversations(ctx context.Context, find *FindConversation) (int64, error) {
	return s.driver.CountConversations(ctx, find)
}

func (s *Store) DeleteConversation(ctx context.Context, delete *DeleteConversation) error {
	return s.driver.DeleteConversation(ctx, delete)
}

func (s *Store) cacheSession(ctx context.Context, session *Session) {
	raw, err := json.Marshal(session)
	if err != nil {
		return
	}
	if err := s.sessionCache.Set(ctx, sessionCacheKey(session.ID), raw, sessionCacheTTL); err != nil {
		slog.Debug("failed to cache session", "session_id", session.ID, "error", err)
	}
}

func sessionCacheKey(id string) string {
	return "session:" + id
}
