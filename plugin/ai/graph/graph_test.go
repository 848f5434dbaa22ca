package graph

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/kaiwahq/kaiwa/plugin/ai"
)

// fakeLLM is a scripted generation backend for graph and relay tests.
type fakeLLM struct {
	response  string
	chatErr   error
	fragments []any
	streamErr error

	gotMessages []ai.Message
}

func (f *fakeLLM) Chat(_ context.Context, messages []ai.Message) (string, error) {
	f.gotMessages = messages
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.response, nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, messages []ai.Message) (<-chan any, <-chan error) {
	f.gotMessages = messages
	out := make(chan any)
	errs := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errs)
		for _, fragment := range f.fragments {
			select {
			case out <- fragment:
			case <-ctx.Done():
				return
			}
		}
		if f.streamErr != nil {
			errs <- f.streamErr
		}
	}()
	return out, errs
}

func userTurn(t *testing.T, content string) ai.Turn {
	t.Helper()
	turn, err := ai.NewTurn(content, "user-1", nil)
	require.NoError(t, err)
	return turn
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    ActionKind
	}{
		{"search keyword routes to rag", "検索してください", ActionRag},
		{"lookup keyword routes to rag", "これを調べてほしい", ActionRag},
		{"calc keyword routes to tool", "計算してください", ActionTool},
		{"tool keyword routes to tool", "ツールを使って", ActionTool},
		{"greeting routes to normal", "こんにちは", ActionNormal},
		{"english smalltalk routes to normal", "how are you today?", ActionNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewState(userTurn(t, tt.content), "")
			require.Equal(t, tt.want, Classify(state))
			require.Equal(t, tt.want, state.NextAction)
		})
	}
}

func TestClassify_EmptyHistoryRoutesToNormal(t *testing.T) {
	state := &State{}
	require.Equal(t, ActionNormal, Classify(state))
}

func TestClassify_NonUserLastMessageRoutesToNormal(t *testing.T) {
	state := &State{Messages: []ai.Message{ai.AssistantMessage("検索の結果です")}}
	require.Equal(t, ActionNormal, Classify(state))
}

func TestClassify_RagWinsOverTool(t *testing.T) {
	// The message matches both keyword sets; the rag branch is checked first.
	state := NewState(userTurn(t, "データを計算して検索"), "")
	require.Equal(t, ActionRag, Classify(state))
}

func TestGraphRun_NormalBranch(t *testing.T) {
	llm := &fakeLLM{response: "hi there"}
	g := New(llm, "system prompt")

	state := NewState(userTurn(t, "hello"), "")
	require.NoError(t, g.Run(context.Background(), state))

	require.Equal(t, ActionEnd, state.NextAction)
	last := state.Messages[len(state.Messages)-1]
	require.Equal(t, "assistant", last.Role)
	require.Equal(t, "hi there", last.Content)

	// The prompt starts with the system message, then history.
	require.Equal(t, "system", llm.gotMessages[0].Role)
	require.Equal(t, "system prompt", llm.gotMessages[0].Content)
	require.Equal(t, "hello", llm.gotMessages[1].Content)
}

func TestGraphRun_PlaceholderBranchesGenerate(t *testing.T) {
	for _, content := range []string{"検索してください", "計算してください"} {
		llm := &fakeLLM{response: "ok"}
		g := New(llm, "")

		state := NewState(userTurn(t, content), "")
		require.NoError(t, g.Run(context.Background(), state))
		last := state.Messages[len(state.Messages)-1]
		require.Equal(t, "ok", last.Content)
	}
}

func TestGraphRun_PropagatesGenerationError(t *testing.T) {
	llm := &fakeLLM{chatErr: errors.New("backend down")}
	g := New(llm, "")

	state := NewState(userTurn(t, "hello"), "")
	err := g.Run(context.Background(), state)
	require.ErrorContains(t, err, "backend down")
}

func TestNewState_RebuildsHistoryFromTranscript(t *testing.T) {
	transcript := "\nUser: first question\nAI: first answer\nUser: second question\nAI: second answer"
	state := NewState(userTurn(t, "third question"), transcript)

	require.Len(t, state.Messages, 5)
	require.Equal(t, ai.UserMessage("first question"), state.Messages[0])
	require.Equal(t, ai.AssistantMessage("first answer"), state.Messages[1])
	require.Equal(t, ai.UserMessage("second question"), state.Messages[2])
	require.Equal(t, ai.AssistantMessage("second answer"), state.Messages[3])
	require.Equal(t, ai.UserMessage("third question"), state.Messages[4])
}

func TestNewState_EmptyTranscript(t *testing.T) {
	state := NewState(userTurn(t, "hello"), "")
	require.Len(t, state.Messages, 1)
	require.Equal(t, "user", state.Messages[0].Role)
}

func TestNewState_LoneAIMessageKept(t *testing.T) {
	state := NewState(userTurn(t, "hello"), "AI: welcome back")
	require.Len(t, state.Messages, 2)
	require.Equal(t, ai.AssistantMessage("welcome back"), state.Messages[0])
}
