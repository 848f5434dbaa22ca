package cache

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Rolling transcript conventions. The transcript is the model's short-term
// memory: alternating "User:" / "AI:" lines keyed by session, capped to the
// most recent characters and refreshed after every completed turn.
const (
	// TranscriptMaxLen is the maximum length of the stored transcript in runes.
	TranscriptMaxLen = 5000
	// TranscriptTTL is the freshness window of the stored transcript.
	TranscriptTTL = 3600 * time.Second
)

// ConversationKey returns the cache key for a session's rolling transcript.
func ConversationKey(sessionID string) string {
	return "conversation:" + sessionID
}

// AppendTranscript appends one completed turn to the transcript and keeps
// only the most recent TranscriptMaxLen characters. The returned value is a
// suffix of the untruncated concatenation.
func AppendTranscript(transcript, userMessage, aiResponse string) string {
	var sb strings.Builder
	sb.WriteString(transcript)
	sb.WriteString("\nUser: ")
	sb.WriteString(userMessage)
	sb.WriteString("\nAI: ")
	sb.WriteString(aiResponse)
	return tailRunes(sb.String(), TranscriptMaxLen)
}

// tailRunes returns the last n runes of s.
func tailRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[len(runes)-n:])
}
