package graph

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRelayRespond(t *testing.T) {
	llm := &fakeLLM{response: "full answer"}
	relay := NewRelay(llm, "sys")

	got, err := relay.Respond(context.Background(), userTurn(t, "hello"), "")
	require.NoError(t, err)
	require.Equal(t, "full answer", got)
}

func TestRelayRespond_Error(t *testing.T) {
	llm := &fakeLLM{chatErr: errors.New("rate limited")}
	relay := NewRelay(llm, "")

	_, err := relay.Respond(context.Background(), userTurn(t, "hello"), "")
	require.ErrorContains(t, err, "rate limited")
}

func collectStream(t *testing.T, fragments <-chan string, errs <-chan error) (string, error) {
	t.Helper()
	var sb strings.Builder
	for fragment := range fragments {
		sb.WriteString(fragment)
	}
	return sb.String(), <-errs
}

func TestRelayStream_AccumulatesFragmentsInOrder(t *testing.T) {
	llm := &fakeLLM{fragments: []any{"Hel", "lo ", "world"}}
	relay := NewRelay(llm, "")

	fragments, errs := relay.Stream(context.Background(), userTurn(t, "hi"), "")
	got, err := collectStream(t, fragments, errs)
	require.NoError(t, err)
	require.Equal(t, "Hello world", got)
}

func TestRelayStream_NormalizesStructuredFragments(t *testing.T) {
	llm := &fakeLLM{fragments: []any{
		"plain ",
		map[string]any{"type": "text", "text": "doc "},
		[]any{map[string]any{"text": "list"}},
		map[string]any{"type": "image"}, // normalizes to empty, dropped
		"",                              // dropped
	}}
	relay := NewRelay(llm, "")

	fragments, errs := relay.Stream(context.Background(), userTurn(t, "hi"), "")
	var got []string
	for fragment := range fragments {
		require.NotEmpty(t, fragment, "empty chunks must never be yielded")
		got = append(got, fragment)
	}
	require.NoError(t, <-errs)
	require.Equal(t, []string{"plain ", "doc ", "list"}, got)
}

func TestRelayStream_MidStreamFailureKeepsEarlierFragments(t *testing.T) {
	llm := &fakeLLM{
		fragments: []any{"partial "},
		streamErr: errors.New("connection reset"),
	}
	relay := NewRelay(llm, "")

	fragments, errs := relay.Stream(context.Background(), userTurn(t, "hi"), "")
	got, err := collectStream(t, fragments, errs)
	require.Equal(t, "partial ", got)
	require.ErrorContains(t, err, "connection reset")
}

func TestRelayStream_UsesTranscriptContext(t *testing.T) {
	llm := &fakeLLM{fragments: []any{"ok"}}
	relay := NewRelay(llm, "sys")

	fragments, errs := relay.Stream(context.Background(), userTurn(t, "next"), "\nUser: before\nAI: earlier answer")
	_, err := collectStream(t, fragments, errs)
	require.NoError(t, err)

	// system + 2 history turns + new message
	require.Len(t, llm.gotMessages, 4)
	require.Equal(t, "system", llm.gotMessages[0].Role)
	require.Equal(t, "before", llm.gotMessages[1].Content)
	require.Equal(t, "earlier answer", llm.gotMessages[2].Content)
	require.Equal(t, "next", llm.gotMessages[3].Content)
}

func TestRelayStream_ConsumerCancelStops(t *testing.T) {
	fragments := make([]any, 1000)
	for i := range fragments {
		fragments[i] = "x"
	}
	llm := &fakeLLM{fragments: fragments}
	relay := NewRelay(llm, "")

	ctx, cancel := context.WithCancel(context.Background())
	out, errs := relay.Stream(ctx, userTurn(t, "hi"), "")

	// Read a couple of fragments, then walk away.
	<-out
	<-out
	cancel()

	// The producer must wind down without reporting an error.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				if err := <-errs; err != nil {
					t.Fatalf("cancel surfaced as error: %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatal("stream did not stop after cancellation")
		}
	}
}
