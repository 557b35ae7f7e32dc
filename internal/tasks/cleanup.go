// Package tasks runs periodic background maintenance.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inkvault/backend/internal/logger"
	"github.com/inkvault/backend/internal/metrics"
	"go.uber.org/zap"
)

// PendingUserTTL is how long an unverified registration is kept
const PendingUserTTL = 24 * time.Hour

// SessionPruner removes lapsed sessions and one-time codes
type SessionPruner interface {
	RemoveExpired(ctx context.Context, now time.Time) (int64, error)
	RemoveExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

// PendingPruner removes registrations that were never verified
type PendingPruner interface {
	RemovePendingOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupResult counts the rows one run removed
type CleanupResult struct {
	Sessions     int64
	Codes        int64
	PendingUsers int64
}

// CleanupService prunes expired auth state on an interval
type CleanupService struct {
	sessions SessionPruner
	pending  PendingPruner
	interval time.Duration
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCleanupService creates a cleanup service. A non-positive interval
// defaults to one hour.
func NewCleanupService(sessions SessionPruner, pending PendingPruner, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		sessions: sessions,
		pending:  pending,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs once immediately, then on every tick until Stop
func (s *CleanupService) Start() {
	logger.Log.Info("Starting cleanup task", zap.Duration("interval", s.interval))
	s.wg.Add(1)
	go s.run()
}

// Stop cancels the schedule and waits for an in-flight run
func (s *CleanupService) Stop() {
	logger.Log.Info("Stopping cleanup task")
	s.cancel()
	s.wg.Wait()
}

func (s *CleanupService) run() {
	defer s.wg.Done()

	s.tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.ctx.Done():
			return
		}
	}
}

// tick runs once and swallows failures so the next tick still happens
func (s *CleanupService) tick() {
	defer func() {
		if r := recover(); r != nil {
			metrics.Get().TaskRunsTotal.WithLabelValues("cleanup", "panic").Inc()
			logger.Log.Error("Cleanup task panicked", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	if _, err := s.RunOnce(s.ctx); err != nil {
		logger.ErrorWithFields("Cleanup task failed", err)
	}
}

// RunOnce performs one cleanup pass. Every step is attempted even when an
// earlier one fails; the first error is returned.
func (s *CleanupService) RunOnce(ctx context.Context) (CleanupResult, error) {
	start := time.Now()
	now := s.now()
	var (
		res      CleanupResult
		firstErr error
	)
	record := func(kind string, n int64, err error) int64 {
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove expired %s: %w", kind, err)
			}
			return 0
		}
		metrics.Get().CleanupRemovedTotal.WithLabelValues(kind).Add(float64(n))
		return n
	}

	n, err := s.sessions.RemoveExpired(ctx, now)
	res.Sessions = record("sessions", n, err)
	n, err = s.sessions.RemoveExpiredCodes(ctx, now)
	res.Codes = record("codes", n, err)
	n, err = s.pending.RemovePendingOlderThan(ctx, now.Add(-PendingUserTTL))
	res.PendingUsers = record("pending_users", n, err)

	outcome := "ok"
	if firstErr != nil {
		outcome = "error"
	}
	metrics.Get().TaskRunsTotal.WithLabelValues("cleanup", outcome).Inc()

	logger.Log.Info("Cleanup completed",
		zap.Int64("sessions", res.Sessions),
		zap.Int64("codes", res.Codes),
		zap.Int64("pending_users", res.PendingUsers),
		logger.WithDuration(time.Since(start)),
		zap.String("outcome", outcome),
	)
	return res, firstErr
}
