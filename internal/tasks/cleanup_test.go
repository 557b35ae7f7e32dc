package tasks

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/database"
	"github.com/inkvault/backend/internal/metrics"
	"github.com/inkvault/backend/internal/models"
	"github.com/inkvault/backend/internal/repository"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOnceRemovesExpiredState(t *testing.T) {
	ctx := context.Background()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	sessions := repository.NewSessionRepository(db)
	users := repository.NewUserRepository(db)
	now := time.Now().UTC()

	session := func(token string, expires time.Time) {
		require.NoError(t, sessions.Create(ctx, &models.Session{ID: uuid.NewString(), Token: token, UserID: uuid.NewString(), ExpiresAt: expires}))
	}
	session("stale", now.Add(-time.Minute))
	session("live", now.Add(time.Hour))

	require.NoError(t, sessions.CreateCode(ctx, &models.Code{ID: uuid.NewString(), Email: "a@x.io", Code: "OLD01", Type: models.CodePasswordReset, ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, sessions.CreateCode(ctx, &models.Code{ID: uuid.NewString(), Email: "a@x.io", Code: "NEW01", Type: models.CodePasswordReset, ExpiresAt: now.Add(10 * time.Minute)}))

	require.NoError(t, users.CreatePending(ctx, &models.PendingUser{Email: "old@x.io", Username: "old", PasswordHash: "h", CreatedAt: now.Add(-25 * time.Hour)}))
	require.NoError(t, users.CreatePending(ctx, &models.PendingUser{Email: "new@x.io", Username: "new", PasswordHash: "h"}))

	removed := metrics.Get().CleanupRemovedTotal.WithLabelValues("sessions")
	before := testutil.ToFloat64(removed)

	svc := NewCleanupService(sessions, users, time.Hour)
	res, err := svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, CleanupResult{Sessions: 1, Codes: 1, PendingUsers: 1}, res)
	assert.Equal(t, before+1, testutil.ToFloat64(removed))

	_, err = sessions.GetByToken(ctx, "stale")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = sessions.GetByToken(ctx, "live")
	assert.NoError(t, err)
	_, err = sessions.GetCode(ctx, "NEW01", models.CodePasswordReset)
	assert.NoError(t, err)
	_, err = users.GetPendingByEmail(ctx, "new@x.io")
	assert.NoError(t, err)

	// a second pass finds nothing
	res, err = svc.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, res)
}

type stubPruner struct {
	sessionsErr error
	panicOnCall bool
	calls       atomic.Int32
}

func (p *stubPruner) RemoveExpired(context.Context, time.Time) (int64, error) {
	p.calls.Add(1)
	if p.panicOnCall {
		panic("boom")
	}
	return 0, p.sessionsErr
}

func (p *stubPruner) RemoveExpiredCodes(context.Context, time.Time) (int64, error) {
	return 2, nil
}

func (p *stubPruner) RemovePendingOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	return 3, nil
}

func TestRunOnceKeepsGoingAfterAFailure(t *testing.T) {
	stub := &stubPruner{sessionsErr: errors.New("db gone")}
	svc := NewCleanupService(stub, stub, time.Hour)

	res, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "remove expired sessions")
	assert.Equal(t, CleanupResult{Codes: 2, PendingUsers: 3}, res)
}

func TestSchedulerSurvivesPanics(t *testing.T) {
	stub := &stubPruner{panicOnCall: true}
	panics := metrics.Get().TaskRunsTotal.WithLabelValues("cleanup", "panic")
	before := testutil.ToFloat64(panics)

	svc := NewCleanupService(stub, stub, 10*time.Millisecond)
	svc.Start()
	require.Eventually(t, func() bool { return stub.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	svc.Stop()

	assert.GreaterOrEqual(t, testutil.ToFloat64(panics)-before, float64(3))
}

func TestDefaultInterval(t *testing.T) {
	svc := NewCleanupService(&stubPruner{}, &stubPruner{}, 0)
	assert.Equal(t, time.Hour, svc.interval)
}
