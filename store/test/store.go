// Package test provides store fixtures backed by a throwaway SQLite
// database, shared by tests across packages.
package test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/kaiwahq/kaiwa/internal/profile"
	"github.com/kaiwahq/kaiwa/store"
	"github.com/kaiwahq/kaiwa/store/db/sqlite"
)

// NewTestingStore creates a migrated store on a fresh SQLite database
// under the test's temporary directory. The store is closed when the
// test finishes.
func NewTestingStore(ctx context.Context, t *testing.T) *store.Store {
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "kaiwa_test.db"),
	}

	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)
	require.NoError(t, driver.Migrate(ctx))

	ts := store.New(driver, p)
	t.Cleanup(func() {
		if err := ts.Close(); err != nil {
			t.Logf("failed to close testing store: %v", err)
		}
	})
	return ts
}

// CreateTestingSession inserts a session with the given status and
// returns it.
func CreateTestingSession(ctx context.Context, t *testing.T, ts *store.Store, status store.SessionStatus) *store.Session {
	now := time.Now().Unix()
	session, err := ts.CreateSession(ctx, &store.Session{
		ID:        fmt.Sprintf("session-%s", shortuuid.New()),
		UserID:    "default_user",
		Status:    status,
		Metadata:  "{}",
		CreatedTs: now,
		UpdatedTs: now,
	})
	require.NoError(t, err)
	return session
}
