package catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"trackvote/internal/domain"
	"trackvote/internal/metrics"
	apperrors "trackvote/internal/platform/errors"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultTopLimit = 10
	MaxTopLimit     = 100

	// SessionFilterAll is the wildcard session filter meaning "no restriction".
	SessionFilterAll = "all"
)

// TopCache is an optional read-through cache for the top listing. A nil
// cache disables caching; every call then hits the repository.
type TopCache interface {
	GetTop(ctx context.Context, limit int) ([]domain.Track, bool)
	SetTop(ctx context.Context, limit int, tracks []domain.Track)
	Invalidate(ctx context.Context)
}

// Service owns track entities, vote application, and rating aggregation.
type Service struct {
	tracks   domain.TrackRepository
	cache    TopCache
	clock    clockwork.Clock
	topGroup singleflight.Group
}

// NewService creates the catalog service. cache may be nil.
func NewService(tracks domain.TrackRepository, cache TopCache, clock clockwork.Clock) *Service {
	return &Service{
		tracks: tracks,
		cache:  cache,
		clock:  clock,
	}
}

// Create inserts a new track with zero votes.
func (s *Service) Create(ctx context.Context, title string, artists []string, link string) (*domain.Track, error) {
	if err := validateTrackFields(title, artists, link); err != nil {
		return nil, err
	}

	track, err := s.tracks.Create(ctx, strings.TrimSpace(title), artists, link)
	if err != nil {
		return nil, err
	}

	s.invalidateTop(ctx)
	return track, nil
}

// Get retrieves a track with its full vote map.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Track, error) {
	return s.tracks.Get(ctx, id)
}

// Update replaces the supplied fields. Votes and aggregates are untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, title *string, artists []string, link *string) (*domain.Track, error) {
	if title != nil && strings.TrimSpace(*title) == "" {
		return nil, apperrors.ValidationError("title must not be empty")
	}
	if artists != nil {
		if err := validateArtists(artists); err != nil {
			return nil, err
		}
	}
	if link != nil && *link == "" {
		return nil, apperrors.ValidationError("link must not be empty")
	}

	track, err := s.tracks.Update(ctx, id, title, artists, link)
	if err != nil {
		return nil, err
	}

	s.invalidateTop(ctx)
	return track, nil
}

// Delete removes a track. Session memberships referencing it are left in
// place and skipped at read time.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tracks.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidateTop(ctx)
	return nil
}

// CastVote records a user's rating on a track and returns the refreshed
// aggregate. A second vote by the same user fails with ErrDuplicateVote and
// leaves the aggregate unchanged.
func (s *Service) CastVote(ctx context.Context, trackID uuid.UUID, userID, displayName string, rating int, comment string) (domain.VoteSummary, error) {
	var zero domain.VoteSummary

	if userID == "" {
		return zero, apperrors.ValidationError("user identifier is required")
	}
	if strings.TrimSpace(displayName) == "" {
		return zero, apperrors.ValidationError("display name is required")
	}
	if rating < 1 || rating > 5 {
		metrics.VotesRejectedTotal.WithLabelValues("invalid").Inc()
		return zero, apperrors.ValidationError("rating must be between 1 and 5").WithField("rating", rating)
	}
	if strings.TrimSpace(comment) == "" {
		return zero, apperrors.ValidationError("comment is required")
	}

	vote := domain.Vote{
		UserID:      userID,
		DisplayName: displayName,
		Rating:      rating,
		Comment:     comment,
		CreatedAt:   s.clock.Now().UTC(),
	}

	summary, err := s.tracks.CastVote(ctx, trackID, vote)
	if errors.Is(err, domain.ErrDuplicateVote) {
		metrics.VotesRejectedTotal.WithLabelValues("duplicate").Inc()
		return zero, err
	}
	if errors.Is(err, domain.ErrTrackNotFound) {
		metrics.VotesRejectedTotal.WithLabelValues("not_found").Inc()
		return zero, err
	}
	if err != nil {
		return zero, err
	}

	metrics.VotesCastTotal.Inc()
	s.invalidateTop(ctx)
	return summary, nil
}

// Top returns a lazy sequence of up to limit tracks ordered by rating
// descending, ties broken by id. Each range over the sequence re-reads the
// underlying data, so the sequence is restartable and reflects writes that
// happened in between.
func (s *Service) Top(ctx context.Context, limit int) iter.Seq2[domain.Track, error] {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	if limit > MaxTopLimit {
		limit = MaxTopLimit
	}

	return func(yield func(domain.Track, error) bool) {
		tracks, err := s.topTracks(ctx, limit)
		if err != nil {
			yield(domain.Track{}, err)
			return
		}
		for _, t := range tracks {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func (s *Service) topTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	if s.cache == nil {
		return s.tracks.ListTop(ctx, limit)
	}

	if tracks, ok := s.cache.GetTop(ctx, limit); ok {
		metrics.TopCacheRequestsTotal.WithLabelValues("hit").Inc()
		return tracks, nil
	}
	metrics.TopCacheRequestsTotal.WithLabelValues("miss").Inc()

	// Collapse concurrent fills for the same limit.
	result, err, _ := s.topGroup.Do(strconv.Itoa(limit), func() (any, error) {
		tracks, err := s.tracks.ListTop(ctx, limit)
		if err != nil {
			return nil, err
		}
		s.cache.SetTop(ctx, limit, tracks)
		return tracks, nil
	})
	if err != nil {
		return nil, err
	}

	tracks, ok := result.([]domain.Track)
	if !ok {
		return nil, fmt.Errorf("unexpected top cache fill result type %T", result)
	}
	return tracks, nil
}

// List filters, sorts, and paginates the catalog. An empty match set yields
// TotalPages 0 and an empty Tracks slice, never an error.
func (s *Service) List(ctx context.Context, filter domain.TrackFilter) (*domain.TrackPage, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Page < 1 {
		return nil, apperrors.ValidationError("page must be 1 or greater").WithField("page", filter.Page)
	}
	if filter.PageSize == 0 {
		filter.PageSize = DefaultPageSize
	}
	if filter.PageSize < 1 || filter.PageSize > MaxPageSize {
		return nil, apperrors.ValidationError("pageSize must be between 1 and 100").WithField("pageSize", filter.PageSize)
	}
	if filter.Session == SessionFilterAll {
		filter.Session = ""
	}

	tracks, total, err := s.tracks.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if tracks == nil {
		tracks = []domain.Track{}
	}

	totalPages := (total + filter.PageSize - 1) / filter.PageSize

	return &domain.TrackPage{
		Tracks:     tracks,
		Page:       filter.Page,
		TotalPages: totalPages,
	}, nil
}

func (s *Service) invalidateTop(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

func validateTrackFields(title string, artists []string, link string) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.ValidationError("title is required")
	}
	if err := validateArtists(artists); err != nil {
		return err
	}
	if link == "" {
		return apperrors.ValidationError("link is required")
	}
	return nil
}

func validateArtists(artists []string) error {
	if len(artists) == 0 {
		return apperrors.ValidationError("at least one artist is required")
	}
	for _, a := range artists {
		if strings.TrimSpace(a) == "" {
			return apperrors.ValidationError("artist names must not be empty")
		}
	}
	return nil
}
