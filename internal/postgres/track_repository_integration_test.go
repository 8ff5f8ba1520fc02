package postgres

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackvote/internal/domain"
)

func mustCreateTrack(t *testing.T, repo *TrackRepo, title string) *domain.Track {
	t.Helper()
	track, err := repo.Create(context.Background(), title, []string{"Artist"}, "https://example.com/"+title)
	require.NoError(t, err)
	return track
}

func vote(userID string, rating int) domain.Vote {
	return domain.Vote{
		UserID:      userID,
		DisplayName: "User " + userID,
		Rating:      rating,
		Comment:     "a comment",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestTrackRepo_CreateAndGet(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	created := mustCreateTrack(t, repo, "First Song")
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Zero(t, created.VoteCount)
	assert.Zero(t, created.Rating)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "First Song", got.Title)
	assert.Equal(t, []string{"Artist"}, got.Artists)
	assert.NotNil(t, got.Votes)
	assert.Empty(t, got.Votes)
}

func TestTrackRepo_GetUnknown(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)

	_, err := repo.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestTrackRepo_GetMany_SkipsMissing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	a := mustCreateTrack(t, repo, "A")
	b := mustCreateTrack(t, repo, "B")

	tracks, err := repo.GetMany(ctx, []uuid.UUID{a.ID, uuid.New(), b.ID})
	require.NoError(t, err)
	assert.Len(t, tracks, 2)
}

func TestTrackRepo_Update_PartialFields(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	track := mustCreateTrack(t, repo, "Original")

	newTitle := "Renamed"
	updated, err := repo.Update(ctx, track.ID, &newTitle, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, track.Artists, updated.Artists)
	assert.Equal(t, track.Link, updated.Link)
}

func TestTrackRepo_Update_Unknown(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)

	title := "x"
	_, err := repo.Update(context.Background(), uuid.New(), &title, nil, nil)
	require.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestTrackRepo_Delete(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	track := mustCreateTrack(t, repo, "Doomed")
	require.NoError(t, repo.Delete(ctx, track.ID))

	_, err := repo.Get(ctx, track.ID)
	require.ErrorIs(t, err, domain.ErrTrackNotFound)

	require.ErrorIs(t, repo.Delete(ctx, track.ID), domain.ErrTrackNotFound)
}

func TestTrackRepo_CastVote_UpdatesAggregates(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	track := mustCreateTrack(t, repo, "Voted")

	summary, err := repo.CastVote(ctx, track.ID, vote("u1", 5))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.VoteCount)
	assert.InDelta(t, 5.0, summary.Rating, 1e-9)

	summary, err = repo.CastVote(ctx, track.ID, vote("u2", 2))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.VoteCount)
	assert.InDelta(t, 3.5, summary.Rating, 1e-9)

	got, err := repo.Get(ctx, track.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.VoteCount)
	assert.InDelta(t, 3.5, got.Rating, 1e-9)
	assert.Len(t, got.Votes, 2)
	assert.Equal(t, 5, got.Votes["u1"].Rating)
}

func TestTrackRepo_CastVote_DuplicateLeavesAggregatesUnchanged(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	track := mustCreateTrack(t, repo, "Once")

	_, err := repo.CastVote(ctx, track.ID, vote("u1", 4))
	require.NoError(t, err)

	_, err = repo.CastVote(ctx, track.ID, vote("u1", 1))
	require.ErrorIs(t, err, domain.ErrDuplicateVote)

	got, err := repo.Get(ctx, track.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VoteCount)
	assert.InDelta(t, 4.0, got.Rating, 1e-9)
}

func TestTrackRepo_CastVote_UnknownTrack(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)

	_, err := repo.CastVote(context.Background(), uuid.New(), vote("u1", 3))
	require.ErrorIs(t, err, domain.ErrTrackNotFound)
}

func TestTrackRepo_CastVote_ConcurrentSameUserOneWinner(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	track := mustCreateTrack(t, repo, "Raced")

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.CastVote(ctx, track.ID, vote("same-user", 3))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.ErrorIs(t, err, domain.ErrDuplicateVote)
		}
	}
	assert.Equal(t, 1, wins)

	got, err := repo.Get(ctx, track.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.VoteCount)
}

func TestTrackRepo_ListTop_OrderAndTiebreak(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	low := mustCreateTrack(t, repo, "Low")
	tiedA := mustCreateTrack(t, repo, "Tied A")
	tiedB := mustCreateTrack(t, repo, "Tied B")

	_, err := repo.CastVote(ctx, low.ID, vote("u1", 2))
	require.NoError(t, err)
	_, err = repo.CastVote(ctx, tiedA.ID, vote("u1", 5))
	require.NoError(t, err)
	_, err = repo.CastVote(ctx, tiedB.ID, vote("u1", 5))
	require.NoError(t, err)

	top, err := repo.ListTop(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)

	assert.InDelta(t, 5.0, top[0].Rating, 1e-9)
	assert.InDelta(t, 5.0, top[1].Rating, 1e-9)
	assert.InDelta(t, 2.0, top[2].Rating, 1e-9)
	// Ties resolve by id, so the ordering is stable across calls.
	assert.Less(t, top[0].ID.String(), top[1].ID.String())
}

func TestTrackRepo_ListTop_RespectsLimit(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)

	for i := 0; i < 5; i++ {
		mustCreateTrack(t, repo, fmt.Sprintf("Track %d", i))
	}

	top, err := repo.ListTop(context.Background(), 3)
	require.NoError(t, err)
	assert.Len(t, top, 3)
}

func TestTrackRepo_List_TitleSearchIsCaseInsensitiveSubstring(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	mustCreateTrack(t, repo, "Summer of Love")
	mustCreateTrack(t, repo, "LOVELY DAY")
	mustCreateTrack(t, repo, "Winter Blues")

	tracks, total, err := repo.List(ctx, domain.TrackFilter{Search: "love", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, tracks, 2)
}

func TestTrackRepo_List_SearchTreatsMetacharactersLiterally(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	mustCreateTrack(t, repo, "100% Pure")
	mustCreateTrack(t, repo, "100 Proof")

	_, total, err := repo.List(ctx, domain.TrackFilter{Search: "100%", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestTrackRepo_List_SessionFilter(t *testing.T) {
	pool := setupTestDB(t)
	trackRepo := NewTrackRepo(pool)
	sessionRepo := NewSessionRepo(pool)
	ctx := context.Background()

	inSession := mustCreateTrack(t, trackRepo, "In Session")
	mustCreateTrack(t, trackRepo, "Outside")

	sess, err := sessionRepo.Create(ctx, "friday", time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, sessionRepo.AddMember(ctx, sess.ID, inSession.ID))

	tracks, total, err := trackRepo.List(ctx, domain.TrackFilter{Session: "friday", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tracks, 1)
	assert.Equal(t, inSession.ID, tracks[0].ID)
}

func TestTrackRepo_List_UnknownSessionMatchesNothing(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)

	mustCreateTrack(t, repo, "Anything")

	tracks, total, err := repo.List(context.Background(), domain.TrackFilter{Session: "no-such-session", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, tracks)
}

func TestTrackRepo_List_Pagination(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreateTrack(t, repo, fmt.Sprintf("Track %d", i))
	}

	page1, total, err := repo.List(ctx, domain.TrackFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page1, 2)

	page3, total, err := repo.List(ctx, domain.TrackFilter{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page3, 1)

	beyond, total, err := repo.List(ctx, domain.TrackFilter{Page: 4, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Empty(t, beyond)
}

func TestTrackRepo_Delete_CascadesVotes(t *testing.T) {
	pool := setupTestDB(t)
	repo := NewTrackRepo(pool)
	ctx := context.Background()

	track := mustCreateTrack(t, repo, "With Votes")
	_, err := repo.CastVote(ctx, track.ID, vote("u1", 5))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, track.ID))

	var count int
	err = pool.QueryRow(ctx, "SELECT COUNT(*) FROM votes WHERE track_id = $1", track.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
