package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TrackRepository is the persistence gateway for tracks and their votes.
// CastVote must be atomic: the duplicate check, the vote insert, and the
// aggregate recomputation happen as a single unit per track, so two
// concurrent votes by the same user cannot both succeed.
type TrackRepository interface {
	Create(ctx context.Context, title string, artists []string, link string) (*Track, error)
	Get(ctx context.Context, id uuid.UUID) (*Track, error)
	// GetMany returns the tracks that still exist among ids, in unspecified
	// order. Missing ids are silently omitted.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]Track, error)
	// Update replaces only the supplied fields; nil means keep the current
	// value. Votes and aggregates are never touched.
	Update(ctx context.Context, id uuid.UUID, title *string, artists []string, link *string) (*Track, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CastVote(ctx context.Context, trackID uuid.UUID, vote Vote) (VoteSummary, error)
	// ListTop returns up to limit tracks ordered by rating descending, ties
	// broken by id ascending.
	ListTop(ctx context.Context, limit int) ([]Track, error)
	// List applies filter and returns one page plus the total match count.
	List(ctx context.Context, filter TrackFilter) ([]Track, int, error)
}

// SessionRepository is the persistence gateway for sessions. Name uniqueness
// and membership uniqueness are enforced with atomic conditional writes, so
// concurrent racers get at most one winner.
type SessionRepository interface {
	Create(ctx context.Context, name string, expiresAt time.Time) (*Session, error)
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	AddMember(ctx context.Context, sessionID, trackID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ListAll returns sessions most-recently-created first.
	ListAll(ctx context.Context) ([]Session, error)
	// DeleteExpired removes every session whose expiry is strictly before
	// cutoff and reports how many were removed.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
