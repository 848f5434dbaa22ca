package test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kaiwahq/kaiwa/store"
)

func TestConversationStore(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	session := CreateTestingSession(ctx, t, ts, store.SessionStatusActive)

	now := time.Now().Unix()
	for i := 0; i < 3; i++ {
		created, err := ts.CreateConversation(ctx, &store.Conversation{
			UID:       uuid.NewString(),
			SessionID: session.ID,
			UserID:    session.UserID,
			Message:   fmt.Sprintf("question %d", i),
			Response:  fmt.Sprintf("answer %d", i),
			Metadata:  "{}",
			CreatedTs: now + int64(i),
			UpdatedTs: now + int64(i),
		})
		require.NoError(t, err)
		require.Greater(t, created.ID, int32(0))
	}

	// History comes back oldest first.
	list, err := ts.ListConversations(ctx, &store.FindConversation{SessionID: &session.ID})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "question 0", list[0].Message)
	require.Equal(t, "answer 2", list[2].Response)

	count, err := ts.CountConversations(ctx, &store.FindConversation{SessionID: &session.ID})
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	limit := 2
	list, err = ts.ListConversations(ctx, &store.FindConversation{SessionID: &session.ID, Limit: &limit})
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, ts.DeleteConversation(ctx, &store.DeleteConversation{ID: list[0].ID}))
	count, err = ts.CountConversations(ctx, &store.FindConversation{SessionID: &session.ID})
	require.NoError(t, err)
	require.Equal(t, int64(2), count)
}

func TestListConversationsOtherSessionIsolated(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)
	first := CreateTestingSession(ctx, t, ts, store.SessionStatusActive)
	second := CreateTestingSession(ctx, t, ts, store.SessionStatusActive)

	now := time.Now().Unix()
	_, err := ts.CreateConversation(ctx, &store.Conversation{
		UID:       uuid.NewString(),
		SessionID: first.ID,
		UserID:    first.UserID,
		Message:   "hello",
		Response:  "hi",
		Metadata:  "{}",
		CreatedTs: now,
		UpdatedTs: now,
	})
	require.NoError(t, err)

	list, err := ts.ListConversations(ctx, &store.FindConversation{SessionID: &second.ID})
	require.NoError(t, err)
	require.Empty(t, list)
}
