package httpserver

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"trackvote/internal/domain"
	"trackvote/internal/platform/config"
)

// CatalogService is the catalog surface the server exposes.
type CatalogService interface {
	Create(ctx context.Context, title string, artists []string, link string) (*domain.Track, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Track, error)
	Update(ctx context.Context, id uuid.UUID, title *string, artists []string, link *string) (*domain.Track, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CastVote(ctx context.Context, trackID uuid.UUID, userID, displayName string, rating int, comment string) (domain.VoteSummary, error)
	Top(ctx context.Context, limit int) iter.Seq2[domain.Track, error]
	List(ctx context.Context, filter domain.TrackFilter) (*domain.TrackPage, error)
}

// SessionService is the session surface the server exposes.
type SessionService interface {
	Create(ctx context.Context, name string, expiresAt time.Time) (*domain.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	AddMember(ctx context.Context, sessionID, trackID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context) ([]domain.Session, error)
}

// dbPinger is the minimal storage surface needed by the readiness check.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	echo     *echo.Echo
	config   *config.Config
	catalog  CatalogService
	sessions SessionService
	db       dbPinger
}

func NewServer(cfg *config.Config, catalog CatalogService, sessions SessionService, db dbPinger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(correlationMiddleware)
	e.Use(ErrorHandlingMiddleware())

	srv := &Server{
		echo:     e,
		config:   cfg,
		catalog:  catalog,
		sessions: sessions,
		db:       db,
	}

	srv.registerRoutes()
	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
