package ai

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// MaxTurnContentLen is the maximum length of one user message in characters.
const MaxTurnContentLen = 10000

var (
	// ErrEmptyContent is returned when a turn is built from an empty message.
	ErrEmptyContent = errors.New("message content must not be empty")
	// ErrContentTooLong is returned when a message exceeds MaxTurnContentLen.
	ErrContentTooLong = errors.Errorf("message content must be at most %d characters", MaxTurnContentLen)
	// ErrEmptySender is returned when the sender is missing.
	ErrEmptySender = errors.New("sender must not be empty")
)

// Turn is the immutable value object for one inbound user message.
// Validation happens at construction; an invalid turn is never built.
type Turn struct {
	Content   string
	Sender    string
	Timestamp time.Time
	Metadata  map[string]any
}

// NewTurn validates and builds a Turn.
func NewTurn(content, sender string, metadata map[string]any) (Turn, error) {
	if strings.TrimSpace(content) == "" {
		return Turn{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxTurnContentLen {
		return Turn{}, ErrContentTooLong
	}
	if sender == "" {
		return Turn{}, ErrEmptySender
	}
	return Turn{
		Content:   content,
		Sender:    sender,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}, nil
}
