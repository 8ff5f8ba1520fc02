package httpserver

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "trackvote/internal/platform/errors"
)

type createSessionRequest struct {
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type addMemberRequest struct {
	TrackID uuid.UUID `json:"trackId"`
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	session, err := s.sessions.Create(c.Request().Context(), req.Name, req.ExpiresAt)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, session)
}

func (s *Server) handleGetSession(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	session, err := s.sessions.Get(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, session)
}

func (s *Server) handleAddMember(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req addMemberRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	if err := s.sessions.AddMember(c.Request().Context(), id, req.TrackID); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, map[string]string{"message": "track added to session"})
}

func (s *Server) handleDeleteSession(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := s.sessions.Delete(c.Request().Context(), id); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "session deleted"})
}

func (s *Server) handleListSessions(c echo.Context) error {
	sessions, err := s.sessions.ListAll(c.Request().Context())
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, sessions)
}
