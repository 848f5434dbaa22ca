package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/plugin/ai"
	"github.com/kaiwahq/kaiwa/plugin/ai/graph"
	"github.com/kaiwahq/kaiwa/server/router/ws"
	"github.com/kaiwahq/kaiwa/store"
	"github.com/kaiwahq/kaiwa/store/cache"
)

// ChatService handles the synchronous, non-streaming chat path. It
// runs the same turn sequence as the websocket handler but returns
// the finished conversation in one response.
type ChatService struct {
	Store     *store.Store
	Cache     cache.Cache
	Validator *ws.Validator
	Relay     *graph.Relay
}

type sendRequest struct {
	SessionID string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata"`
}

func (s *ChatService) Send(c echo.Context) error {
	request := &sendRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if request.SessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session_id is required")
	}
	userID := request.UserID
	if userID == "" {
		userID = ws.DefaultUserID
	}

	ctx := c.Request().Context()
	if _, err := s.Validator.EnsureActive(ctx, request.SessionID); err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		case errors.Is(err, ws.ErrSessionInactive):
			return echo.NewHTTPError(http.StatusConflict, "session is not active")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to validate session").SetInternal(err)
		}
	}

	turnMeta := make(map[string]any, len(request.Metadata)+1)
	for k, v := range request.Metadata {
		turnMeta[k] = v
	}
	turnMeta["session_id"] = request.SessionID

	turn, err := ai.NewTurn(strings.TrimSpace(request.Message), userID, turnMeta)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	cacheKey := cache.ConversationKey(request.SessionID)
	contextStr := ""
	if value, ok := s.Cache.Get(ctx, cacheKey); ok {
		contextStr = string(value)
	}

	response, err := s.Relay.Respond(ctx, turn, contextStr)
	if err != nil {
		kind := ai.ClassifyGenerationError(err)
		return echo.NewHTTPError(http.StatusBadGateway, kind.UserFacingMessage()).SetInternal(err)
	}

	now := time.Now().Unix()
	metadata := "{}"
	if len(request.Metadata) > 0 {
		if raw, err := json.Marshal(request.Metadata); err == nil {
			metadata = string(raw)
		}
	}
	conversation, err := s.Store.CreateConversation(ctx, &store.Conversation{
		UID:       uuid.NewString(),
		SessionID: request.SessionID,
		UserID:    userID,
		Message:   turn.Content,
		Response:  response,
		Metadata:  metadata,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist conversation").SetInternal(err)
	}

	updated := cache.AppendTranscript(contextStr, turn.Content, response)
	if err := s.Cache.Set(ctx, cacheKey, []byte(updated), cache.TranscriptTTL); err != nil {
		slog.Warn("failed to update conversation context", "session_id", request.SessionID, "err", err)
	}

	return c.JSON(http.StatusOK, &conversationResponse{
		ID:        conversation.ID,
		UID:       conversation.UID,
		SessionID: conversation.SessionID,
		UserID:    conversation.UserID,
		Message:   conversation.Message,
		Response:  conversation.Response,
		CreatedTs: conversation.CreatedTs,
	})
}
