package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewTurn(t *testing.T) {
	turn, err := NewTurn("hello", "user-1", map[string]any{"k": "v"})
	require.NoError(t, err)
	require.Equal(t, "hello", turn.Content)
	require.Equal(t, "user-1", turn.Sender)
	require.False(t, turn.Timestamp.IsZero())
	require.Equal(t, "v", turn.Metadata["k"])
}

func TestNewTurn_RejectsEmptyContent(t *testing.T) {
	_, err := NewTurn("", "user-1", nil)
	require.ErrorIs(t, err, ErrEmptyContent)

	_, err = NewTurn("   \n\t", "user-1", nil)
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestNewTurn_RejectsOversizedContent(t *testing.T) {
	_, err := NewTurn(strings.Repeat("a", MaxTurnContentLen+1), "user-1", nil)
	require.ErrorIs(t, err, ErrContentTooLong)

	// Exactly at the limit is fine.
	_, err = NewTurn(strings.Repeat("a", MaxTurnContentLen), "user-1", nil)
	require.NoError(t, err)
}

func TestNewTurn_CountsRunesNotBytes(t *testing.T) {
	// Multibyte content at the character limit must pass even though its
	// byte length is three times larger.
	_, err := NewTurn(strings.Repeat("あ", MaxTurnContentLen), "user-1", nil)
	require.NoError(t, err)
}

func TestNewTurn_RejectsEmptySender(t *testing.T) {
	_, err := NewTurn("hello", "", nil)
	require.ErrorIs(t, err, ErrEmptySender)
}
