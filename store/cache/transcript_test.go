package cache

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestConversationKey(t *testing.T) {
	if got := ConversationKey("abc-123"); got != "conversation:abc-123" {
		t.Errorf("got %q", got)
	}
}

func TestAppendTranscript_Format(t *testing.T) {
	got := AppendTranscript("", "hello", "hi there")
	want := "\nUser: hello\nAI: hi there"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got = AppendTranscript(got, "how are you", "fine")
	if !strings.HasSuffix(got, "\nUser: how are you\nAI: fine") {
		t.Errorf("second turn not appended: %q", got)
	}
	if !strings.HasPrefix(got, "\nUser: hello") {
		t.Errorf("first turn lost: %q", got)
	}
}

func TestAppendTranscript_TruncatesToSuffix(t *testing.T) {
	transcript := strings.Repeat("x", TranscriptMaxLen)
	userMsg := strings.Repeat("u", 100)
	aiResp := strings.Repeat("a", 100)

	full := transcript + "\nUser: " + userMsg + "\nAI: " + aiResp
	got := AppendTranscript(transcript, userMsg, aiResp)

	if n := utf8.RuneCountInString(got); n != TranscriptMaxLen {
		t.Errorf("length = %d, want exactly %d", n, TranscriptMaxLen)
	}
	if !strings.HasSuffix(full, got) {
		t.Error("truncated transcript is not a suffix of the full concatenation")
	}
}

func TestAppendTranscript_ShortStaysWhole(t *testing.T) {
	got := AppendTranscript("\nUser: a\nAI: b", "c", "d")
	if utf8.RuneCountInString(got) >= TranscriptMaxLen {
		t.Fatalf("unexpected truncation of short transcript")
	}
	if got != "\nUser: a\nAI: b\nUser: c\nAI: d" {
		t.Errorf("got %q", got)
	}
}

func TestAppendTranscript_MultibyteSafe(t *testing.T) {
	transcript := strings.Repeat("あ", TranscriptMaxLen)
	got := AppendTranscript(transcript, "こんにちは", "どうぞ")
	if n := utf8.RuneCountInString(got); n != TranscriptMaxLen {
		t.Errorf("rune length = %d, want %d", n, TranscriptMaxLen)
	}
	if !utf8.ValidString(got) {
		t.Error("truncation produced invalid UTF-8")
	}
}
