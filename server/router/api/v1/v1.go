package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/kaiwahq/kaiwa/internal/profile"
	"github.com/kaiwahq/kaiwa/plugin/ai/graph"
	"github.com/kaiwahq/kaiwa/server/router/ws"
	"github.com/kaiwahq/kaiwa/store"
	"github.com/kaiwahq/kaiwa/store/cache"
)

// APIV1Service bundles the HTTP and websocket surfaces under /api/v1.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store

	SessionService *SessionService
	ChatService    *ChatService
	SocketService  *ws.ChatService
}

func NewAPIV1Service(profile *profile.Profile, st *store.Store, transcripts cache.Cache, relay *graph.Relay) *APIV1Service {
	registry := ws.NewRegistry()
	validator := ws.NewValidator(st)
	return &APIV1Service{
		Profile:        profile,
		Store:          st,
		SessionService: &SessionService{Store: st},
		ChatService: &ChatService{
			Store:     st,
			Cache:     transcripts,
			Validator: validator,
			Relay:     relay,
		},
		SocketService: ws.NewChatService(registry, validator, st, transcripts, relay),
	}
}

// RegisterRoutes mounts every /api/v1 route on the echo instance.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1")

	g.POST("/sessions", s.SessionService.CreateSession)
	g.GET("/sessions", s.SessionService.ListSessions)
	g.GET("/sessions/:id", s.SessionService.GetSession)
	g.DELETE("/sessions/:id", s.SessionService.EndSession)
	g.GET("/sessions/:id/history", s.SessionService.GetHistory)

	g.POST("/chat/send", s.ChatService.Send)

	s.SocketService.RegisterRoutes(g)
}
