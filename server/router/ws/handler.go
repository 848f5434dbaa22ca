package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/plugin/ai"
	"github.com/kaiwahq/kaiwa/plugin/ai/graph"
	"github.com/kaiwahq/kaiwa/store"
	"github.com/kaiwahq/kaiwa/store/cache"
)

// DefaultUserID is used until authentication is in place.
const DefaultUserID = "default_user"

// ChatService runs the chat protocol over websocket connections. One
// goroutine per connection reads frames and drives turns strictly in
// order; the Registry is the only state shared across connections.
type ChatService struct {
	registry  *Registry
	validator *Validator
	store     *store.Store
	cache     cache.Cache
	relay     *graph.Relay

	upgrader websocket.Upgrader
}

func NewChatService(registry *Registry, validator *Validator, st *store.Store, c cache.Cache, relay *graph.Relay) *ChatService {
	return &ChatService{
		registry:  registry,
		validator: validator,
		store:     st,
		cache:     c,
		relay:     relay,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (s *ChatService) RegisterRoutes(g *echo.Group) {
	g.GET("/ws/chat/:session_id", s.HandleChat)
}

// HandleChat upgrades the request and runs the protocol until the
// client disconnects. The connection is registered before validation
// so that cleanup has a single exit path.
func (s *ChatService) HandleChat(c echo.Context) error {
	sessionID := c.Param("session_id")
	userID := c.QueryParam("user_id")
	if userID == "" {
		userID = DefaultUserID
	}

	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Wrap(err, "failed to upgrade connection")
	}

	conn := NewConn(ws)
	s.registry.Join(conn, sessionID)
	defer func() {
		s.registry.Leave(conn, sessionID)
		_ = conn.Close()
		slog.Debug("websocket connection cleaned up",
			"session_id", sessionID,
			"remaining_connections", s.registry.ConnectionCount(sessionID))
	}()

	ctx := c.Request().Context()

	if _, err := s.validator.EnsureActive(ctx, sessionID); err != nil {
		reason := s.rejectReason(sessionID, err)
		slog.Warn("websocket session rejected", "session_id", sessionID, "reason", reason)
		s.registry.Unicast(ErrorEvent(reason, ""), conn)
		conn.CloseWithPolicyViolation(reason)
		return nil
	}

	s.registry.Unicast(ConnectedEvent(sessionID), conn)
	slog.Info("websocket connection established", "session_id", sessionID, "user_id", userID)

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if isMalformedPayload(err) {
				slog.Warn("websocket received invalid json", "session_id", sessionID, "err", err)
				s.registry.Unicast(ErrorEvent("無効なJSON形式です。正しい形式でメッセージを送信してください。", ErrorCodeInvalidJSON), conn)
				continue
			}
			// The peer went away. A disconnect is the normal end of
			// the protocol, not an error.
			slog.Info("websocket disconnected", "session_id", sessionID, "user_id", userID)
			return nil
		}

		switch frame.Type {
		case FrameTypePing:
			s.registry.Unicast(PongEvent(), conn)
		case FrameTypeMessage:
			s.runTurn(ctx, conn, frame, sessionID, userID)
		default:
			s.registry.Unicast(UnknownTypeEvent(frame.Type), conn)
		}
	}
}

// runTurn wraps one turn so that an unexpected failure inside it is
// answered with a generic processing error instead of tearing down
// the receive loop.
func (s *ChatService) runTurn(ctx context.Context, conn *Conn, frame *Frame, sessionID, userID string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("websocket message handling panicked",
				"session_id", sessionID,
				"user_id", userID,
				"panic", r)
			s.registry.Unicast(ErrorEvent("メッセージ処理中にエラーが発生しました。しばらくしてから再試行してください。", ErrorCodeProcessing), conn)
		}
	}()
	s.handleMessage(ctx, conn, frame, sessionID, userID)
}

// handleMessage runs one full turn. Input faults are answered on the
// same connection and leave the loop untouched; everything past the
// processing notification is reported as a single classified error
// event and never closes the connection.
func (s *ChatService) handleMessage(ctx context.Context, conn *Conn, frame *Frame, sessionID, userID string) {
	content := strings.TrimSpace(frame.Message)
	if content == "" {
		s.registry.Unicast(ErrorEvent("メッセージが空です", ""), conn)
		return
	}
	if utf8.RuneCountInString(content) > ai.MaxTurnContentLen {
		s.registry.Unicast(ErrorEvent(fmt.Sprintf("メッセージが長すぎます（最大%d文字）", ai.MaxTurnContentLen), ""), conn)
		return
	}

	cacheKey := cache.ConversationKey(sessionID)
	contextStr := ""
	if value, ok := s.cache.Get(ctx, cacheKey); ok {
		contextStr = string(value)
	}

	turnMeta := make(map[string]any, len(frame.Metadata)+1)
	for k, v := range frame.Metadata {
		turnMeta[k] = v
	}
	turnMeta["session_id"] = sessionID

	turn, err := ai.NewTurn(content, userID, turnMeta)
	if err != nil {
		s.registry.Unicast(ErrorEvent(err.Error(), ""), conn)
		return
	}

	s.registry.Broadcast(ProcessingEvent(), sessionID)

	fragments, errs := s.relay.Stream(ctx, turn, contextStr)
	var full strings.Builder
	for fragment := range fragments {
		full.WriteString(fragment)
		s.registry.Broadcast(ChunkEvent(fragment), sessionID)
	}
	if err := <-errs; err != nil {
		s.reportTurnFailure(sessionID, userID, content, err)
		return
	}

	s.registry.Broadcast(DoneEvent(), sessionID)

	now := time.Now().Unix()
	conversation, err := s.store.CreateConversation(ctx, &store.Conversation{
		UID:       uuid.NewString(),
		SessionID: sessionID,
		UserID:    userID,
		Message:   content,
		Response:  full.String(),
		Metadata:  marshalMetadata(frame.Metadata),
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		s.reportTurnFailure(sessionID, userID, content, errors.Wrap(err, "failed to persist conversation"))
		return
	}

	updated := cache.AppendTranscript(contextStr, content, full.String())
	if err := s.cache.Set(ctx, cacheKey, []byte(updated), cache.TranscriptTTL); err != nil {
		// The transcript is best-effort short-term memory; losing one
		// update degrades context, not correctness.
		slog.Warn("failed to update conversation context", "session_id", sessionID, "err", err)
	}

	s.registry.Broadcast(SavedEvent(conversation.ID), sessionID)
}

// reportTurnFailure classifies a turn failure, logs the precise cause
// and sends the user-facing message with a stable error code.
func (s *ChatService) reportTurnFailure(sessionID, userID, content string, err error) {
	slog.Error("websocket message processing failed",
		"session_id", sessionID,
		"user_id", userID,
		"message_length", utf8.RuneCountInString(content),
		"err", err)
	kind := ai.ClassifyGenerationError(err)
	s.registry.Broadcast(ErrorEvent(kind.UserFacingMessage(), ErrorCodeMessageProcessing), sessionID)
}

func (s *ChatService) rejectReason(sessionID string, err error) string {
	if errors.Is(err, ErrSessionInactive) {
		return fmt.Sprintf("セッションがアクティブではありません: %s", sessionID)
	}
	return fmt.Sprintf("セッションが見つかりません: %s", sessionID)
}

// isMalformedPayload reports whether a read failed because the frame
// held invalid JSON rather than because the transport is gone. The
// connection stays usable after an unmarshal failure.
func isMalformedPayload(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

func marshalMetadata(metadata map[string]any) string {
	if len(metadata) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
