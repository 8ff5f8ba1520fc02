package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"trackvote/internal/domain"
	"trackvote/internal/identity"
	apperrors "trackvote/internal/platform/errors"
)

type createTrackRequest struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Link    string   `json:"link"`
}

type updateTrackRequest struct {
	Title   *string  `json:"title"`
	Artists []string `json:"artists"`
	Link    *string  `json:"link"`
}

type castVoteRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type trackPageResponse struct {
	Tracks     []domain.Track `json:"tracks"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
}

func (s *Server) handleCreateTrack(c echo.Context) error {
	var req createTrackRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	track, err := s.catalog.Create(c.Request().Context(), req.Title, req.Artists, req.Link)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, track)
}

func (s *Server) handleGetTrack(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	track, err := s.catalog.Get(c.Request().Context(), id)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, track)
}

func (s *Server) handleUpdateTrack(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	var req updateTrackRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	track, err := s.catalog.Update(c.Request().Context(), id, req.Title, req.Artists, req.Link)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, track)
}

func (s *Server) handleDeleteTrack(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	if err := s.catalog.Delete(c.Request().Context(), id); err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "track deleted"})
}

func (s *Server) handleCastVote(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return err
	}

	principal, ok := identity.FromContext(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body").WithCause(err)
	}

	summary, err := s.catalog.CastVote(c.Request().Context(), id, principal.UserID, principal.DisplayName, req.Rating, req.Comment)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusCreated, summary)
}

func (s *Server) handleTopTracks(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.ValidationError("limit must be an integer").WithCause(err)
		}
		if parsed < 0 {
			return apperrors.ValidationError("limit must not be negative").WithField("limit", parsed)
		}
		limit = parsed
	}

	tracks := make([]domain.Track, 0)
	for track, err := range s.catalog.Top(c.Request().Context(), limit) {
		if err != nil {
			return mapDomainError(err)
		}
		tracks = append(tracks, track)
	}

	return c.JSON(http.StatusOK, tracks)
}

func (s *Server) handleListTracks(c echo.Context) error {
	filter := domain.TrackFilter{
		Search:  c.QueryParam("search"),
		Session: c.QueryParam("session"),
	}

	page, err := parseIntQuery(c, "page", 0)
	if err != nil {
		return err
	}
	filter.Page = page

	pageSize, err := parseIntQuery(c, "pageSize", 0)
	if err != nil {
		return err
	}
	filter.PageSize = pageSize

	result, err := s.catalog.List(c.Request().Context(), filter)
	if err != nil {
		return mapDomainError(err)
	}

	return c.JSON(http.StatusOK, trackPageResponse{
		Tracks:     result.Tracks,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	})
}

func parseIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid id").WithCause(err)
	}
	return id, nil
}

func parseIntQuery(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.ValidationError(name+" must be an integer").WithCause(err)
	}
	return parsed, nil
}

// mapDomainError translates domain sentinels into structured transport
// errors. Anything unrecognized falls through to AsStructuredError, which
// wraps it as internal.
func mapDomainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrTrackNotFound):
		return apperrors.NotFoundError("track not found").WithCause(err)
	case errors.Is(err, domain.ErrSessionNotFound):
		return apperrors.NotFoundError("session not found").WithCause(err)
	case errors.Is(err, domain.ErrDuplicateVote):
		return apperrors.DuplicateError("user has already voted on this track").WithCause(err)
	case errors.Is(err, domain.ErrDuplicateMembership):
		return apperrors.DuplicateError("track is already in this session").WithCause(err)
	case errors.Is(err, domain.ErrDuplicateName):
		return apperrors.DuplicateError("a live session with this name already exists").WithCause(err)
	default:
		return err
	}
}
