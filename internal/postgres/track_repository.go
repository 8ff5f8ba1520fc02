package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trackvote/internal/domain"
)

const trackColumns = "id, title, artists, link, rating, vote_count, created_at, updated_at"

// TrackRepo implements domain.TrackRepository on PostgreSQL.
type TrackRepo struct {
	pool *pgxpool.Pool
}

func NewTrackRepo(pool *pgxpool.Pool) *TrackRepo {
	return &TrackRepo{pool: pool}
}

func scanTrack(row pgx.Row) (*domain.Track, error) {
	var t domain.Track
	err := row.Scan(&t.ID, &t.Title, &t.Artists, &t.Link, &t.Rating, &t.VoteCount, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Votes = make(map[string]domain.Vote)
	return &t, nil
}

func (r *TrackRepo) Create(ctx context.Context, title string, artists []string, link string) (*domain.Track, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO tracks (title, artists, link)
		VALUES ($1, $2, $3)
		RETURNING `+trackColumns,
		title, artists, link)

	track, err := scanTrack(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create track: %w", err)
	}
	return track, nil
}

func (r *TrackRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Track, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = $1`, id)

	track, err := scanTrack(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}

	votes, err := r.loadVotes(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if v, ok := votes[id]; ok {
		track.Votes = v
	}
	return track, nil
}

func (r *TrackRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]domain.Track, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get tracks: %w", err)
	}

	tracks, err := collectTracks(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachVotes(ctx, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *TrackRepo) Update(ctx context.Context, id uuid.UUID, title *string, artists []string, link *string) (*domain.Track, error) {
	// COALESCE keeps the current value for fields not supplied, so the whole
	// update stays a single conditional write.
	row := r.pool.QueryRow(ctx, `
		UPDATE tracks
		SET title = COALESCE($2, title),
		    artists = COALESCE($3, artists),
		    link = COALESCE($4, link),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+trackColumns,
		id, title, artists, link)

	track, err := scanTrack(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update track: %w", err)
	}

	votes, err := r.loadVotes(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if v, ok := votes[id]; ok {
		track.Votes = v
	}
	return track, nil
}

func (r *TrackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tracks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTrackNotFound
	}
	return nil
}

// CastVote inserts a vote and refreshes the track aggregates in one
// transaction. The row lock on tracks serializes concurrent votes per track;
// the votes primary key makes the duplicate check part of the insert itself.
func (r *TrackRepo) CastVote(ctx context.Context, trackID uuid.UUID, vote domain.Vote) (domain.VoteSummary, error) {
	var summary domain.VoteSummary

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked bool
	err = tx.QueryRow(ctx, `SELECT true FROM tracks WHERE id = $1 FOR UPDATE`, trackID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return summary, domain.ErrTrackNotFound
	}
	if err != nil {
		return summary, fmt.Errorf("failed to lock track: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO votes (track_id, user_id, display_name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (track_id, user_id) DO NOTHING`,
		trackID, vote.UserID, vote.DisplayName, vote.Rating, vote.Comment, vote.CreatedAt)
	if err != nil {
		return summary, fmt.Errorf("failed to insert vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return summary, domain.ErrDuplicateVote
	}

	err = tx.QueryRow(ctx, `
		UPDATE tracks
		SET rating = sub.avg_rating,
		    vote_count = sub.vote_count,
		    updated_at = now()
		FROM (
			SELECT COALESCE(AVG(rating), 0)::double precision AS avg_rating,
			       COUNT(*)::int AS vote_count
			FROM votes
			WHERE track_id = $1
		) AS sub
		WHERE id = $1
		RETURNING vote_count, rating`,
		trackID).Scan(&summary.VoteCount, &summary.Rating)
	if err != nil {
		return summary, fmt.Errorf("failed to refresh track aggregates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return summary, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return summary, nil
}

func (r *TrackRepo) ListTop(ctx context.Context, limit int) ([]domain.Track, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+trackColumns+`
		FROM tracks
		ORDER BY rating DESC, id
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top tracks: %w", err)
	}

	tracks, err := collectTracks(rows)
	if err != nil {
		return nil, err
	}
	if err := r.attachVotes(ctx, tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (r *TrackRepo) List(ctx context.Context, filter domain.TrackFilter) ([]domain.Track, int, error) {
	pattern := ""
	if filter.Search != "" {
		pattern = "%" + escapeLike(filter.Search) + "%"
	}

	const where = `
		WHERE ($1 = '' OR t.title ILIKE $2 ESCAPE '\')
		  AND ($3 = '' OR EXISTS (
			SELECT 1
			FROM session_tracks st
			JOIN sessions s ON s.id = st.session_id
			WHERE st.track_id = t.id AND s.name = $3
		  ))`

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tracks t`+where,
		filter.Search, pattern, filter.Session).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tracks: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	rows, err := r.pool.Query(ctx, `
		SELECT t.id, t.title, t.artists, t.link, t.rating, t.vote_count, t.created_at, t.updated_at
		FROM tracks t`+where+`
		ORDER BY t.rating DESC, t.id
		LIMIT $4 OFFSET $5`,
		filter.Search, pattern, filter.Session, filter.PageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tracks: %w", err)
	}

	tracks, err := collectTracks(rows)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachVotes(ctx, tracks); err != nil {
		return nil, 0, err
	}
	return tracks, total, nil
}

func collectTracks(rows pgx.Rows) ([]domain.Track, error) {
	defer rows.Close()

	var tracks []domain.Track
	for rows.Next() {
		var t domain.Track
		if err := rows.Scan(&t.ID, &t.Title, &t.Artists, &t.Link, &t.Rating, &t.VoteCount, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan track: %w", err)
		}
		t.Votes = make(map[string]domain.Vote)
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracks: %w", err)
	}
	return tracks, nil
}

func (r *TrackRepo) attachVotes(ctx context.Context, tracks []domain.Track) error {
	if len(tracks) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(tracks))
	for i, t := range tracks {
		ids[i] = t.ID
	}

	votes, err := r.loadVotes(ctx, ids)
	if err != nil {
		return err
	}
	for i := range tracks {
		if v, ok := votes[tracks[i].ID]; ok {
			tracks[i].Votes = v
		}
	}
	return nil
}

func (r *TrackRepo) loadVotes(ctx context.Context, trackIDs []uuid.UUID) (map[uuid.UUID]map[string]domain.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT track_id, user_id, display_name, rating, comment, created_at
		FROM votes
		WHERE track_id = ANY($1)`, trackIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load votes: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID]map[string]domain.Vote)
	for rows.Next() {
		var trackID uuid.UUID
		var v domain.Vote
		if err := rows.Scan(&trackID, &v.UserID, &v.DisplayName, &v.Rating, &v.Comment, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		if result[trackID] == nil {
			result[trackID] = make(map[string]domain.Vote)
		}
		result[trackID][v.UserID] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read votes: %w", err)
	}
	return result, nil
}

// escapeLike neutralizes LIKE metacharacters so user input only ever matches
// literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
