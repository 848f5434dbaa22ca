package v1

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/store"
)

// SessionService exposes session lifecycle over REST.
type SessionService struct {
	Store *store.Store
}

type createSessionRequest struct {
	UserID   string         `json:"user_id"`
	Metadata map[string]any `json:"metadata"`
}

type sessionResponse struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	Status    string         `json:"status"`
	Metadata  map[string]any `json:"metadata"`
	CreatedTs int64          `json:"created_ts"`
	UpdatedTs int64          `json:"updated_ts"`
}

func (s *SessionService) CreateSession(c echo.Context) error {
	request := &createSessionRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	userID := request.UserID
	if userID == "" {
		userID = "default_user"
	}

	metadata := "{}"
	if len(request.Metadata) > 0 {
		raw, err := json.Marshal(request.Metadata)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid metadata").SetInternal(err)
		}
		metadata = string(raw)
	}

	now := time.Now().Unix()
	session, err := s.Store.CreateSession(c.Request().Context(), &store.Session{
		ID:        shortuuid.New(),
		UserID:    userID,
		Status:    store.SessionStatusActive,
		Metadata:  metadata,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session").SetInternal(err)
	}
	return c.JSON(http.StatusCreated, convertSession(session))
}

func (s *SessionService) ListSessions(c echo.Context) error {
	find := &store.FindSession{}
	if userID := c.QueryParam("user_id"); userID != "" {
		find.UserID = &userID
	}
	if status := c.QueryParam("status"); status != "" {
		sessionStatus := store.SessionStatus(status)
		find.Status = &sessionStatus
	}

	sessions, err := s.Store.ListSessions(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions").SetInternal(err)
	}

	response := make([]*sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, convertSession(session))
	}
	return c.JSON(http.StatusOK, response)
}

func (s *SessionService) GetSession(c echo.Context) error {
	session, err := s.Store.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get session").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertSession(session))
}

// EndSession marks a session ENDED. The record is kept so history
// stays readable; nothing is physically deleted.
func (s *SessionService) EndSession(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.Store.GetSession(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get session").SetInternal(err)
	}

	status := store.SessionStatusEnded
	now := time.Now().Unix()
	session, err := s.Store.UpdateSession(c.Request().Context(), &store.UpdateSession{
		ID:        id,
		Status:    &status,
		UpdatedTs: &now,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to end session").SetInternal(err)
	}
	return c.JSON(http.StatusOK, convertSession(session))
}

type conversationResponse struct {
	ID        int32  `json:"id"`
	UID       string `json:"uid"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Message   string `json:"message"`
	Response  string `json:"response"`
	CreatedTs int64  `json:"created_ts"`
}

func (s *SessionService) GetHistory(c echo.Context) error {
	id := c.Param("id")
	if _, err := s.Store.GetSession(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "session not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get session").SetInternal(err)
	}

	conversations, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{SessionID: &id})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list conversations").SetInternal(err)
	}

	response := make([]*conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		response = append(response, &conversationResponse{
			ID:        conversation.ID,
			UID:       conversation.UID,
			SessionID: conversation.SessionID,
			UserID:    conversation.UserID,
			Message:   conversation.Message,
			Response:  conversation.Response,
			CreatedTs: conversation.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}

func convertSession(session *store.Session) *sessionResponse {
	metadata := map[string]any{}
	if session.Metadata != "" {
		// Stored metadata is JSON written by this service; a decode
		// failure just yields an empty map.
		_ = json.Unmarshal([]byte(session.Metadata), &metadata)
	}
	return &sessionResponse{
		ID:        session.ID,
		UserID:    session.UserID,
		Status:    string(session.Status),
		Metadata:  metadata,
		CreatedTs: session.CreatedTs,
		UpdatedTs: session.UpdatedTs,
	}
}
