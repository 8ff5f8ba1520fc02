package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trackvote/internal/domain"
)

// foreignKeyViolation is the PostgreSQL error code for a failed FK check.
const foreignKeyViolation = "23503"

// SessionRepo implements domain.SessionRepository on PostgreSQL.
type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

// Create relies on the UNIQUE constraint on name: the conflict check and the
// insert are one statement, so two racers creating the same name get exactly
// one winner. A swept session's row is gone, which is what frees its name.
func (r *SessionRepo) Create(ctx context.Context, name string, expiresAt time.Time) (*domain.Session, error) {
	var s domain.Session
	err := r.pool.QueryRow(ctx, `
		INSERT INTO sessions (name, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
		RETURNING id, name, expires_at, created_at`,
		name, expiresAt).Scan(&s.ID, &s.Name, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var s domain.Session
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, expires_at, created_at
		FROM sessions
		WHERE id = $1`, id).Scan(&s.ID, &s.Name, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	members, err := r.loadMemberIDs(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	s.MemberIDs = members[id]
	return &s, nil
}

// AddMember is a single conditional insert: the membership primary key turns
// a duplicate into zero affected rows, and the FK on session_id turns a
// vanished session into a constraint error.
func (r *SessionRepo) AddMember(ctx context.Context, sessionID, trackID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO session_tracks (session_id, track_id)
		VALUES ($1, $2)
		ON CONFLICT (session_id, track_id) DO NOTHING`,
		sessionID, trackID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return domain.ErrSessionNotFound
		}
		return fmt.Errorf("failed to add session member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateMembership
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) ListAll(ctx context.Context) ([]domain.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, expires_at, created_at
		FROM sessions
		ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	var ids []uuid.UUID
	for rows.Next() {
		var s domain.Session
		if err := rows.Scan(&s.ID, &s.Name, &s.ExpiresAt, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	if len(sessions) == 0 {
		return sessions, nil
	}

	members, err := r.loadMemberIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		sessions[i].MemberIDs = members[sessions[i].ID]
	}
	return sessions, nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) loadMemberIDs(ctx context.Context, sessionIDs []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, track_id
		FROM session_tracks
		WHERE session_id = ANY($1)
		ORDER BY added_at, track_id`, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load session members: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]uuid.UUID)
	for rows.Next() {
		var sessionID, trackID uuid.UUID
		if err := rows.Scan(&sessionID, &trackID); err != nil {
			return nil, fmt.Errorf("failed to scan session member: %w", err)
		}
		result[sessionID] = append(result[sessionID], trackID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session members: %w", err)
	}
	return result, nil
}
