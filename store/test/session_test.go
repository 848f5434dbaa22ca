package test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kaiwahq/kaiwa/store"
)

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	created := CreateTestingSession(ctx, t, ts, store.SessionStatusActive)
	require.True(t, created.IsActive())

	fetched, err := ts.GetSession(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, fetched.ID)
	require.Equal(t, created.UserID, fetched.UserID)
	require.Equal(t, store.SessionStatusActive, fetched.Status)

	// List by user.
	list, err := ts.ListSessions(ctx, &store.FindSession{UserID: &created.UserID})
	require.NoError(t, err)
	require.Len(t, list, 1)

	// End the session.
	status := store.SessionStatusEnded
	now := time.Now().Unix()
	updated, err := ts.UpdateSession(ctx, &store.UpdateSession{
		ID:        created.ID,
		Status:    &status,
		UpdatedTs: &now,
	})
	require.NoError(t, err)
	require.Equal(t, store.SessionStatusEnded, updated.Status)
	require.False(t, updated.IsActive())

	// The update is visible through the cached read path too.
	fetched, err = ts.GetSession(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, store.SessionStatusEnded, fetched.Status)

	// List by status.
	list, err = ts.ListSessions(ctx, &store.FindSession{Status: &status})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, ts.DeleteSession(ctx, &store.DeleteSession{ID: created.ID}))
	_, err = ts.GetSession(ctx, created.ID)
	require.True(t, errors.Is(err, store.ErrSessionNotFound))
}

func TestGetSessionNotFound(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.GetSession(ctx, "missing")
	require.True(t, errors.Is(err, store.ErrSessionNotFound))
}
