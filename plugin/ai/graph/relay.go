package graph

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/plugin/ai"
)

// Relay drives the decision graph against the generation backend and
// forwards its output, either as one full response or as a live fragment
// stream.
type Relay struct {
	llm   ai.LLMService
	graph *Graph
}

// NewRelay builds a relay over the given backend.
func NewRelay(llm ai.LLMService, systemPrompt string) *Relay {
	return &Relay{
		llm:   llm,
		graph: New(llm, systemPrompt),
	}
}

// Respond runs the full graph for one turn and returns the complete
// response text.
func (r *Relay) Respond(ctx context.Context, turn ai.Turn, contextStr string) (string, error) {
	state := NewState(turn, contextStr)
	if err := r.graph.Run(ctx, state); err != nil {
		return "", err
	}

	// The graph appends the response as the last assistant message.
	for i := len(state.Messages) - 1; i >= 0; i-- {
		if state.Messages[i].Role == "assistant" {
			return state.Messages[i].Content, nil
		}
	}
	return "", errors.New("graph produced no response")
}

// Stream runs routing synchronously, then streams the chosen branch
// directly against the backend using the already-built prompt, so fragments
// are forwarded as produced instead of being buffered by a graph run.
//
// Emitted fragments are normalized to plain text; fragments that normalize
// to empty text are dropped. The stream is finite and not restartable. A
// mid-stream failure arrives on the error channel; fragments already
// emitted stay emitted. Context cancellation (the consumer going away)
// stops the stream without an error.
func (r *Relay) Stream(ctx context.Context, turn ai.Turn, contextStr string) (<-chan string, <-chan error) {
	out := make(chan string)
	errOut := make(chan error, 1)

	state := NewState(turn, contextStr)
	action := Classify(state)
	if action != ActionNormal {
		// rag and tool have no streaming behavior of their own yet; they
		// stream the same prompt the normal branch would.
		slog.Debug("streaming placeholder branch as normal", "next_action", action, "session_id", state.SessionID)
	}
	prompt := r.graph.PromptMessages(state)

	go func() {
		defer close(out)
		defer close(errOut)

		fragments, errs := r.llm.ChatStream(ctx, prompt)
		for fragment := range fragments {
			text := ai.NormalizeFragment(fragment)
			if text == "" {
				continue
			}
			select {
			case out <- text:
			case <-ctx.Done():
				return
			}
		}
		if err := <-errs; err != nil {
			errOut <- errors.Wrap(err, "stream generation failed")
		}
	}()

	return out, errOut
}
