package ai

import "strings"

// GenerationErrorKind categorizes generation failures so protocol layers can
// report a user-friendly message while the precise cause goes to the log.
type GenerationErrorKind int

const (
	// GenerationErrorOther is any generation failure without a recognized cause.
	GenerationErrorOther GenerationErrorKind = iota
	// GenerationErrorModel indicates a model misconfiguration (for example a
	// model name the provider does not know).
	GenerationErrorModel
	// GenerationErrorAuth indicates an authentication or API-key problem.
	GenerationErrorAuth
)

// ClassifyGenerationError inspects a generation failure and returns its kind.
func ClassifyGenerationError(err error) GenerationErrorKind {
	if err == nil {
		return GenerationErrorOther
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	if strings.Contains(msg, "404") && strings.Contains(lower, "model") {
		return GenerationErrorModel
	}
	if strings.Contains(msg, "API") || strings.Contains(lower, "api_key") {
		return GenerationErrorAuth
	}
	return GenerationErrorOther
}

// UserFacingMessage returns the text shown to end users for a generation
// failure of the given kind. Kept deliberately vague; the real cause is for
// operators, not chat clients.
func (k GenerationErrorKind) UserFacingMessage() string {
	switch k {
	case GenerationErrorModel:
		return "AIモデルの設定に問題があります。管理者にお問い合わせください。"
	case GenerationErrorAuth:
		return "AIサービスの認証に問題があります。管理者にお問い合わせください。"
	default:
		return "メッセージ処理中にエラーが発生しました。しばらくしてから再試行してください。"
	}
}
