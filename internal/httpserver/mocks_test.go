package httpserver

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"

	"trackvote/internal/domain"
)

type mockCatalog struct {
	createFn   func(ctx context.Context, title string, artists []string, link string) (*domain.Track, error)
	getFn      func(ctx context.Context, id uuid.UUID) (*domain.Track, error)
	updateFn   func(ctx context.Context, id uuid.UUID, title *string, artists []string, link *string) (*domain.Track, error)
	deleteFn   func(ctx context.Context, id uuid.UUID) error
	castVoteFn func(ctx context.Context, trackID uuid.UUID, userID, displayName string, rating int, comment string) (domain.VoteSummary, error)
	topFn      func(ctx context.Context, limit int) iter.Seq2[domain.Track, error]
	listFn     func(ctx context.Context, filter domain.TrackFilter) (*domain.TrackPage, error)
}

func (m *mockCatalog) Create(ctx context.Context, title string, artists []string, link string) (*domain.Track, error) {
	if m.createFn != nil {
		return m.createFn(ctx, title, artists, link)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCatalog) Get(ctx context.Context, id uuid.UUID) (*domain.Track, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCatalog) Update(ctx context.Context, id uuid.UUID, title *string, artists []string, link *string) (*domain.Track, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, title, artists, link)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockCatalog) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCatalog) CastVote(ctx context.Context, trackID uuid.UUID, userID, displayName string, rating int, comment string) (domain.VoteSummary, error) {
	if m.castVoteFn != nil {
		return m.castVoteFn(ctx, trackID, userID, displayName, rating, comment)
	}
	return domain.VoteSummary{}, fmt.Errorf("not implemented")
}

func (m *mockCatalog) Top(ctx context.Context, limit int) iter.Seq2[domain.Track, error] {
	if m.topFn != nil {
		return m.topFn(ctx, limit)
	}
	return func(yield func(domain.Track, error) bool) {}
}

func (m *mockCatalog) List(ctx context.Context, filter domain.TrackFilter) (*domain.TrackPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockSessions struct {
	createFn    func(ctx context.Context, name string, expiresAt time.Time) (*domain.Session, error)
	getFn       func(ctx context.Context, id uuid.UUID) (*domain.Session, error)
	addMemberFn func(ctx context.Context, sessionID, trackID uuid.UUID) error
	deleteFn    func(ctx context.Context, id uuid.UUID) error
	listAllFn   func(ctx context.Context) ([]domain.Session, error)
}

func (m *mockSessions) Create(ctx context.Context, name string, expiresAt time.Time) (*domain.Session, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, expiresAt)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSessions) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, fmt.Errorf("not implemented")
}

func (m *mockSessions) AddMember(ctx context.Context, sessionID, trackID uuid.UUID) error {
	if m.addMemberFn != nil {
		return m.addMemberFn(ctx, sessionID, trackID)
	}
	return nil
}

func (m *mockSessions) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockSessions) ListAll(ctx context.Context) ([]domain.Session, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, fmt.Errorf("not implemented")
}

type mockPinger struct {
	pingFn func(ctx context.Context) error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}
