// Package ai provides the generation capability: an LLM service over
// OpenAI-compatible chat APIs, plus the value objects and helpers the chat
// core needs to drive it.
package ai

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// Message represents a chat message.
type Message struct {
	Role    string // system, user, assistant
	Content string
}

// LLMService is the generation backend interface.
type LLMService interface {
	// Chat performs synchronous chat and returns the full response text.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatStream performs streaming chat. Fragment payloads are emitted on
	// the first channel as soon as the provider produces them; shape varies
	// by provider, so callers normalize with NormalizeFragment. The error
	// channel yields at most one error and both channels close when the
	// stream is finished. The stream is finite and not restartable.
	ChatStream(ctx context.Context, messages []Message) (<-chan any, <-chan error)
}

type llmService struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewLLMService creates a new LLMService for the configured provider.
func NewLLMService(cfg *LLMConfig) (LLMService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &llmService{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (s *llmService) Chat(ctx context.Context, messages []Message) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    convertMessages(messages),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *llmService) ChatStream(ctx context.Context, messages []Message) (<-chan any, <-chan error) {
	fragmentChan := make(chan any)
	errChan := make(chan error, 1)

	go func() {
		defer close(fragmentChan)
		defer close(errChan)

		stream, err := s.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model:       s.model,
			Messages:    convertMessages(messages),
			MaxTokens:   s.maxTokens,
			Temperature: s.temperature,
			Stream:      true,
		})
		if err != nil {
			errChan <- errors.Wrap(err, "failed to open completion stream")
			return
		}
		defer func() {
			if err := stream.Close(); err != nil {
				slog.Debug("failed to close completion stream", "error", err)
			}
		}()

		for {
			resp, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// Consumer gone is expected; everything else is a
				// generation fault for the caller to classify.
				if ctx.Err() != nil {
					return
				}
				errChan <- errors.Wrap(err, "completion stream failed")
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case fragmentChan <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return fragmentChan, errChan
}

func convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case "system":
			role = openai.ChatMessageRoleSystem
		case "assistant":
			role = openai.ChatMessageRoleAssistant
		}
		out[i] = openai.ChatCompletionMessage{Role: role, Content: m.Content}
	}
	return out
}

// Helper for creating system prompts.
func SystemPrompt(content string) Message {
	return Message{Role: "system", Content: content}
}

// Helper for creating user messages.
func UserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// Helper for creating assistant messages.
func AssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}
