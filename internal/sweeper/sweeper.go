// Package sweeper retires expired sessions on a fixed interval, independent
// of request handling.
package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"trackvote/internal/domain"
	"trackvote/internal/metrics"
	"trackvote/internal/platform/correlation"
)

// DefaultInterval is how often the sweeper runs unless configured otherwise.
const DefaultInterval = time.Minute

const sweepTimeout = 30 * time.Second

// Sweeper deletes every session whose expiry is strictly before the tick
// time. A failed sweep is logged and retried on the next tick; it never
// takes the process down.
type Sweeper struct {
	sessions domain.SessionRepository
	clock    clockwork.Clock
	interval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a sweeper. interval <= 0 falls back to DefaultInterval.
func New(sessions domain.SessionRepository, clock clockwork.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{
		sessions: sessions,
		clock:    clock,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the background sweep loop. It returns immediately.
func (s *Sweeper) Start() {
	ticker := s.clock.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.Chan():
				s.Sweep(context.Background())
			case <-s.stopCh:
				return
			}
		}
	}()
	slog.Info("Expiry sweeper started", "interval", s.interval.String())
}

// Stop terminates the sweep loop and waits for an in-flight sweep to finish.
// Safe to call more than once.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

// Sweep performs one bulk removal of sessions expired as of now. Idempotent:
// a sweep that finds nothing to do is a successful sweep.
func (s *Sweeper) Sweep(ctx context.Context) {
	ctx = correlation.WithID(ctx, correlation.NewID())
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	start := s.clock.Now()
	cutoff := start

	deleted, err := s.sessions.DeleteExpired(ctx, cutoff)
	metrics.SweepDurationSeconds.Observe(s.clock.Since(start).Seconds())
	if err != nil {
		// Transient storage failures are retried on the next tick.
		metrics.SweepRunsTotal.WithLabelValues("error").Inc()
		slog.ErrorContext(ctx, "Expiry sweep failed", "error", err)
		return
	}

	metrics.SweepRunsTotal.WithLabelValues("ok").Inc()
	if deleted > 0 {
		metrics.SweepSessionsDeletedTotal.Add(float64(deleted))
		slog.InfoContext(ctx, "Expired sessions deleted", "count", deleted)
	} else {
		slog.DebugContext(ctx, "Expiry sweep found nothing to delete")
	}
}
