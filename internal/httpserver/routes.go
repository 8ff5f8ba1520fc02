package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trackvote/internal/identity"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Everything else requires an authenticated principal. Catalog mutation
	// and session create/delete additionally require the elevated role.
	api := s.echo.Group("", identity.Middleware([]byte(s.config.JWTSecret)))

	api.GET("/tracks", s.handleListTracks)
	api.POST("/tracks", s.handleCreateTrack, identity.RequireAdmin)
	api.GET("/tracks/top", s.handleTopTracks)
	api.GET("/tracks/:id", s.handleGetTrack)
	api.PUT("/tracks/:id", s.handleUpdateTrack, identity.RequireAdmin)
	api.DELETE("/tracks/:id", s.handleDeleteTrack, identity.RequireAdmin)
	api.POST("/tracks/:id/votes", s.handleCastVote)

	api.GET("/sessions", s.handleListSessions)
	api.POST("/sessions", s.handleCreateSession, identity.RequireAdmin)
	api.GET("/sessions/:id", s.handleGetSession)
	api.PUT("/sessions/:id", s.handleAddMember)
	api.DELETE("/sessions/:id", s.handleDeleteSession, identity.RequireAdmin)
}
