package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"trackvote/internal/domain"
	apperrors "trackvote/internal/platform/errors"
)

// TrackResolver resolves track references to full records. Missing ids are
// omitted from the result, which is what lets reads tolerate members whose
// track has since been deleted.
type TrackResolver interface {
	GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Track, error)
}

// Service owns session entities and their memberships.
type Service struct {
	sessions domain.SessionRepository
	tracks   TrackResolver
}

// NewService creates the session service.
func NewService(sessions domain.SessionRepository, tracks TrackResolver) *Service {
	return &Service{
		sessions: sessions,
		tracks:   tracks,
	}
}

// Create inserts a new session with no members. The name must be unique
// among sessions that still exist; a swept session frees its name.
func (s *Service) Create(ctx context.Context, name string, expiresAt time.Time) (*domain.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ValidationError("name is required")
	}
	if expiresAt.IsZero() {
		return nil, apperrors.ValidationError("expiresAt is required")
	}

	sess, err := s.sessions.Create(ctx, name, expiresAt)
	if err != nil {
		return nil, err
	}

	sess.Members = []domain.Track{}
	return sess, nil
}

// Get retrieves a session with members resolved to full track records.
// Members whose track no longer exists are skipped, not reported as errors.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.resolveMembers(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// AddMember adds a track reference to a session. The track itself is not
// required to exist; a dangling reference is tolerated at read time.
func (s *Service) AddMember(ctx context.Context, sessionID, trackID uuid.UUID) error {
	if trackID == uuid.Nil {
		return apperrors.ValidationError("trackId is required")
	}
	return s.sessions.AddMember(ctx, sessionID, trackID)
}

// Delete removes a session explicitly, ahead of its expiry.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.sessions.Delete(ctx, id)
}

// ListAll returns all sessions, most recently created first, each with
// members resolved.
func (s *Service) ListAll(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.sessions.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	for i := range sessions {
		if err := s.resolveMembers(ctx, &sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

// resolveMembers populates sess.Members from sess.MemberIDs, preserving
// insertion order and dropping ids the catalog no longer knows.
func (s *Service) resolveMembers(ctx context.Context, sess *domain.Session) error {
	sess.Members = []domain.Track{}
	if len(sess.MemberIDs) == 0 {
		return nil
	}

	tracks, err := s.tracks.GetMany(ctx, sess.MemberIDs)
	if err != nil {
		return err
	}

	byID := make(map[uuid.UUID]domain.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	for _, id := range sess.MemberIDs {
		if t, ok := byID[id]; ok {
			sess.Members = append(sess.Members, t)
		}
	}
	return nil
}
