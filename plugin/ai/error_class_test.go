package ai

import (
	"testing"

	"github.com/pkg/errors"
)

func TestClassifyGenerationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want GenerationErrorKind
	}{
		{"nil", nil, GenerationErrorOther},
		{"model not found", errors.New("error, status code: 404, message: model `gpt-5-ultra` not found"), GenerationErrorModel},
		{"bad api key", errors.New("invalid api_key provided"), GenerationErrorAuth},
		{"api error", errors.New("API request rejected"), GenerationErrorAuth},
		{"plain 404 without model", errors.New("status 404: no such route"), GenerationErrorOther},
		{"timeout", errors.New("context deadline exceeded"), GenerationErrorOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyGenerationError(tt.err); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUserFacingMessage_NeverEmpty(t *testing.T) {
	for _, kind := range []GenerationErrorKind{GenerationErrorOther, GenerationErrorModel, GenerationErrorAuth} {
		if kind.UserFacingMessage() == "" {
			t.Errorf("empty user-facing message for kind %v", kind)
		}
	}
}
