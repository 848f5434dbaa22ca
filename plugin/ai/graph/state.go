// Package graph implements the per-turn decision graph that routes each
// inbound message to a processing branch before generation, and the relay
// that drives the chosen branch against the LLM.
//
// The graph is static and small, so it is expressed as a fixed set of named
// nodes with a plain dispatch table rather than a general graph engine.
package graph

import (
	"strings"

	"github.com/kaiwahq/kaiwa/plugin/ai"
)

// ActionKind is the processing branch selected for one turn.
type ActionKind string

const (
	// ActionUnset means classification has not run yet.
	ActionUnset ActionKind = ""
	// ActionNormal is plain conversation.
	ActionNormal ActionKind = "normal"
	// ActionRag is retrieval-augmented processing. Placeholder branch: it
	// behaves like normal until retrieval lands, but stays a distinct node
	// so the routing contract is observable.
	ActionRag ActionKind = "rag"
	// ActionTool is external tool execution. Placeholder branch, same deal.
	ActionTool ActionKind = "tool"
	// ActionEnd marks a finished run.
	ActionEnd ActionKind = "end"
)

// State is the mutable record threaded through one turn's graph run.
// It is created at the start of a turn and discarded at the end; it is never
// shared across turns or sessions.
type State struct {
	Messages   []ai.Message
	SessionID  string
	UserID     string
	Context    string
	Metadata   map[string]any
	NextAction ActionKind
}

// NewState builds the graph state for one turn: conversation history
// reconstructed from the rolling transcript, then the user's new message.
func NewState(turn ai.Turn, contextStr string) *State {
	sessionID := ""
	if turn.Metadata != nil {
		if v, ok := turn.Metadata["session_id"].(string); ok {
			sessionID = v
		}
	}

	s := &State{
		SessionID:  sessionID,
		UserID:     turn.Sender,
		Context:    contextStr,
		Metadata:   turn.Metadata,
		NextAction: ActionUnset,
	}
	s.Messages = append(s.Messages, messagesFromTranscript(contextStr)...)
	s.Messages = append(s.Messages, ai.UserMessage(turn.Content))
	return s
}

// messagesFromTranscript parses the rolling "User: ... / AI: ..." transcript
// back into an ordered message history.
func messagesFromTranscript(transcript string) []ai.Message {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil
	}

	var messages []ai.Message
	var pendingUser string
	havePendingUser := false

	for _, line := range strings.Split(transcript, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "User:"):
			if havePendingUser {
				messages = append(messages, ai.UserMessage(pendingUser))
			}
			pendingUser = strings.TrimSpace(strings.TrimPrefix(line, "User:"))
			havePendingUser = true
		case strings.HasPrefix(line, "AI:"):
			reply := strings.TrimSpace(strings.TrimPrefix(line, "AI:"))
			if havePendingUser {
				messages = append(messages, ai.UserMessage(pendingUser))
				havePendingUser = false
			}
			messages = append(messages, ai.AssistantMessage(reply))
		}
	}
	if havePendingUser {
		messages = append(messages, ai.UserMessage(pendingUser))
	}
	return messages
}
