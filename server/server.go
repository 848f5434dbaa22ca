package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/kaiwahq/kaiwa/internal/profile"
	"github.com/kaiwahq/kaiwa/plugin/ai"
	"github.com/kaiwahq/kaiwa/plugin/ai/graph"
	"github.com/kaiwahq/kaiwa/server/middleware"
	apiv1 "github.com/kaiwahq/kaiwa/server/router/api/v1"
	"github.com/kaiwahq/kaiwa/store"
	"github.com/kaiwahq/kaiwa/store/cache"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer  *echo.Echo
	transcripts cache.Cache
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		Profile:    profile,
		Store:      store,
		echoServer: e,
	}

	transcripts, err := newTranscriptCache(ctx, profile)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create conversation context cache")
	}
	s.transcripts = transcripts

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			slog.Debug("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status)
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.NewRateLimiter(time.Second/10, 20).Middleware())

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})

	llmConfig := ai.NewConfigFromProfile(profile)
	var llmService ai.LLMService
	if err := llmConfig.Validate(); err != nil {
		// Session CRUD stays available; chat turns fail with a
		// user-facing generation error until a backend is configured.
		slog.Warn("generation backend not configured, chat is disabled", "error", err)
		llmService = ai.NewUnavailableLLMService(err)
	} else {
		llmService, err = ai.NewLLMService(llmConfig)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create generation backend")
		}
	}
	relay := graph.NewRelay(llmService, llmConfig.SystemPrompt)

	apiV1Service := apiv1.NewAPIV1Service(profile, store, transcripts, relay)
	apiV1Service.RegisterRoutes(e)

	return s, nil
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started", "address", address, "mode", s.Profile.Mode, "version", s.Profile.Version)
	if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.transcripts.Close(); err != nil {
		slog.Error("failed to close context cache", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}

// newTranscriptCache picks redis when configured and falls back to the
// in-process cache otherwise.
func newTranscriptCache(ctx context.Context, profile *profile.Profile) (cache.Cache, error) {
	if profile.RedisAddr != "" {
		return cache.NewRedis(ctx, cache.RedisConfig{
			Addr:       profile.RedisAddr,
			Password:   profile.RedisPassword,
			DB:         profile.RedisDB,
			DefaultTTL: cache.TranscriptTTL,
		})
	}
	return cache.NewMemory(cache.MemoryConfig{
		Capacity:   4096,
		DefaultTTL: cache.TranscriptTTL,
	}), nil
}
