package graph

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/plugin/ai"
)

// node names the fixed vertices of the decision graph.
type node string

const (
	nodeInput    node = "input"
	nodeClassify node = "classify"
	nodeNormal   node = "normal"
	nodeRag      node = "rag"
	nodeTool     node = "tool"
	nodeOutput   node = "output"
	nodeEnd      node = "end"
)

// nodeFunc runs one node and returns the next node to visit.
type nodeFunc func(ctx context.Context, state *State) (node, error)

// Graph is the fixed decision graph:
//
//	input → classify → (normal | rag | tool) → output → end
//
// All three branches converge on output. rag and tool are placeholders that
// currently behave like normal but remain separate nodes.
type Graph struct {
	llm          ai.LLMService
	systemPrompt string
	nodes        map[node]nodeFunc
}

// New builds the graph over the given generation backend.
func New(llm ai.LLMService, systemPrompt string) *Graph {
	g := &Graph{
		llm:          llm,
		systemPrompt: systemPrompt,
	}
	g.nodes = map[node]nodeFunc{
		nodeInput:    g.inputNode,
		nodeClassify: g.classifyNode,
		nodeNormal:   g.normalNode,
		nodeRag:      g.ragNode,
		nodeTool:     g.toolNode,
		nodeOutput:   g.outputNode,
	}
	return g
}

// Run executes the graph for one turn, mutating state in place.
func (g *Graph) Run(ctx context.Context, state *State) error {
	current := nodeInput
	for current != nodeEnd {
		fn, ok := g.nodes[current]
		if !ok {
			return errors.Errorf("unknown graph node: %s", current)
		}
		next, err := fn(ctx, state)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

func (g *Graph) inputNode(_ context.Context, state *State) (node, error) {
	slog.Debug("graph input", "session_id", state.SessionID, "messages", len(state.Messages))
	return nodeClassify, nil
}

func (g *Graph) classifyNode(_ context.Context, state *State) (node, error) {
	switch Classify(state) {
	case ActionRag:
		return nodeRag, nil
	case ActionTool:
		return nodeTool, nil
	default:
		return nodeNormal, nil
	}
}

func (g *Graph) normalNode(ctx context.Context, state *State) (node, error) {
	response, err := g.llm.Chat(ctx, g.PromptMessages(state))
	if err != nil {
		return nodeEnd, errors.Wrap(err, "generation failed")
	}
	state.Messages = append(state.Messages, ai.AssistantMessage(response))
	return nodeOutput, nil
}

func (g *Graph) ragNode(ctx context.Context, state *State) (node, error) {
	// Retrieval is not implemented yet; fall through to plain generation.
	slog.Debug("rag node placeholder, using normal generation", "session_id", state.SessionID)
	return g.normalNode(ctx, state)
}

func (g *Graph) toolNode(ctx context.Context, state *State) (node, error) {
	// Tool execution is not implemented yet; fall through to plain generation.
	slog.Debug("tool node placeholder, using normal generation", "session_id", state.SessionID)
	return g.normalNode(ctx, state)
}

func (g *Graph) outputNode(_ context.Context, state *State) (node, error) {
	state.NextAction = ActionEnd
	return nodeEnd, nil
}

// PromptMessages is the full prompt for the current state: the system prompt
// followed by the reconstructed history and the new user message.
func (g *Graph) PromptMessages(state *State) []ai.Message {
	messages := make([]ai.Message, 0, len(state.Messages)+1)
	if g.systemPrompt != "" {
		messages = append(messages, ai.SystemPrompt(g.systemPrompt))
	}
	messages = append(messages, state.Messages...)
	return messages
}
