package graph

import (
	"log/slog"
	"strings"
)

// Keyword sets for intent classification. Substring match against the
// lower-cased latest user message; admittedly coarse, kept as-is until the
// rag and tool branches grow behavior of their own that would justify a
// better classifier.
var (
	ragKeywords  = []string{"検索", "調べて", "情報", "データ"}
	toolKeywords = []string{"計算", "実行", "ツール"}
)

// Classify inspects the latest user message and sets state.NextAction.
// rag is checked before tool, so a message matching both routes to rag.
// An empty history, or a history ending in a non-user message, routes to
// normal unconditionally.
func Classify(state *State) ActionKind {
	action := ActionNormal

	if len(state.Messages) > 0 {
		last := state.Messages[len(state.Messages)-1]
		if last.Role == "user" {
			content := strings.ToLower(last.Content)
			switch {
			case containsAny(content, ragKeywords):
				action = ActionRag
			case containsAny(content, toolKeywords):
				action = ActionTool
			}
		}
	}

	state.NextAction = action
	slog.Debug("intent classified", "next_action", action, "session_id", state.SessionID)
	return action
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
