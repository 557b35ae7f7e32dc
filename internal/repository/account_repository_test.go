package repository

import (
	"context"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeUser() *models.User {
	return &models.User{
		ID:           uuid.NewString(),
		Email:        gofakeit.Email(),
		Username:     gofakeit.Username(),
		PasswordHash: "hash",
	}
}

func TestCreateAccountIsAtomic(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)

	u := fakeUser()
	require.NoError(t, users.CreateAccount(ctx, u, models.NewProfile(u), models.DefaultSettings(u.ID)))

	got, err := users.GetUserByLogin(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	got, err = users.GetUserByLogin(ctx, u.Username)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// same username, fresh id: the user insert fails and nothing is written
	dup := fakeUser()
	dup.Username = u.Username
	err = users.CreateAccount(ctx, dup, models.NewProfile(dup), models.DefaultSettings(dup.ID))
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = users.GetSettings(ctx, dup.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTakenChecksPending(t *testing.T) {
	ctx := context.Background()
	users := NewUserRepository(newTestDB(t))

	require.NoError(t, users.CreatePending(ctx, &models.PendingUser{Email: "Ann@Example.com", Username: "Ann", PasswordHash: "h"}))

	taken, err := users.UsernameTaken(ctx, "ann")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = users.EmailTaken(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = users.UsernameTaken(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestRemovePendingOlderThan(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewUserRepository(db)

	old := &models.PendingUser{Email: "old@x.io", Username: "old", PasswordHash: "h", CreatedAt: time.Now().UTC().Add(-48 * time.Hour)}
	fresh := &models.PendingUser{Email: "new@x.io", Username: "new", PasswordHash: "h"}
	require.NoError(t, users.CreatePending(ctx, old))
	require.NoError(t, users.CreatePending(ctx, fresh))

	n, err := users.RemovePendingOlderThan(ctx, time.Now().UTC().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = users.GetPendingByEmail(ctx, "new@x.io")
	assert.NoError(t, err)
}

func TestSessionsAndCodes(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionRepository(newTestDB(t))
	now := time.Now().UTC()

	live := &models.Session{ID: uuid.NewString(), Token: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	dead := &models.Session{ID: uuid.NewString(), Token: "dead", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, sessions.Create(ctx, live))
	require.NoError(t, sessions.Create(ctx, dead))

	n, err := sessions.RemoveExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	later := now.Add(48 * time.Hour)
	require.NoError(t, sessions.Extend(ctx, live.ID, later))
	got, err := sessions.GetByToken(ctx, "live")
	require.NoError(t, err)
	assert.WithinDuration(t, later, got.ExpiresAt, time.Second)

	require.NoError(t, sessions.DeleteAllForUser(ctx, "u1"))
	_, err = sessions.GetByToken(ctx, "live")
	assert.ErrorIs(t, err, ErrNotFound)

	code, err := models.NewCode("ann@x.io", "ann", models.CodePasswordReset)
	require.NoError(t, err)
	require.NoError(t, sessions.CreateCode(ctx, code))

	_, err = sessions.GetCode(ctx, code.Code, models.CodeEmailVerify)
	assert.ErrorIs(t, err, ErrNotFound, "codes are scoped by type")
	got2, err := sessions.GetCode(ctx, code.Code, models.CodePasswordReset)
	require.NoError(t, err)
	assert.Equal(t, "ann", got2.Username)

	n, err = sessions.RemoveExpiredCodes(ctx, now.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestReportQueue(t *testing.T) {
	ctx := context.Background()
	reports := NewReportRepository(newTestDB(t))

	r1 := &models.Report{CreatorID: "u1", TargetID: "p1", Type: models.ReportTypePost}
	r2 := &models.Report{CreatorID: "u2", TargetID: "u9", Type: models.ReportTypeUser}
	require.NoError(t, reports.Create(ctx, r1))
	require.NoError(t, reports.Create(ctx, r2))
	assert.Equal(t, models.ReportPending, r1.Status)

	ok, err := reports.UpdateStatus(ctx, r1.ID, models.ReportResolved)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = reports.UpdateStatus(ctx, "missing", models.ReportResolved)
	require.NoError(t, err)
	assert.False(t, ok)

	pending := models.ReportPending
	got, err := reports.Query(ctx, ReportQuery{Status: &pending})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, r2.ID, got[0].ID)
}
