package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	prev := otel.GetTracerProvider()
	sr := tracetest.NewSpanRecorder()
	tp := newProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func spansNamed(sr *tracetest.SpanRecorder, name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range sr.Ended() {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

func attr(s sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestInitTracerDisabled(t *testing.T) {
	tp, err := InitTracer(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, tp)
}

func TestReactionSpan(t *testing.T) {
	sr := recordSpans(t)

	_, span := TraceReaction(context.Background(), "post", "p1", "like")
	End(span, nil)
	_, span = TraceReaction(context.Background(), "reply", "r1", "dislike")
	End(span, errors.New("not found"))

	likes := spansNamed(sr, "post.like")
	require.Len(t, likes, 1)
	assert.Equal(t, "p1", attr(likes[0], "reaction.target_id").AsString())
	assert.Equal(t, codes.Unset, likes[0].Status().Code)

	failed := spansNamed(sr, "reply.dislike")
	require.Len(t, failed, 1)
	assert.Equal(t, codes.Error, failed[0].Status().Code)
	assert.Equal(t, "not found", failed[0].Status().Description)
}

func TestVersionConflictEvent(t *testing.T) {
	sr := recordSpans(t)

	ctx, span := TraceReply(context.Background(), "c1")
	RecordVersionConflict(ctx, "c1", 2)
	End(span, nil)

	replies := spansNamed(sr, "comment.reply")
	require.Len(t, replies, 1)
	require.Len(t, replies[0].Events(), 1)
	assert.Equal(t, "version_conflict", replies[0].Events()[0].Name)
}

type note struct {
	ID   uint
	Text string
}

func TestGORMPluginTracesStatements(t *testing.T) {
	sr := recordSpans(t)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Use(GORMTracingPlugin()))
	require.NoError(t, db.AutoMigrate(&note{}))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&note{Text: "hi"}).Error)
	var missing note
	err = db.WithContext(ctx).First(&missing, 999).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	inserts := spansNamed(sr, "db.insert")
	require.NotEmpty(t, inserts)
	assert.Equal(t, "sqlite", attr(inserts[0], "db.system").AsString())
	assert.Equal(t, "notes", attr(inserts[0], "db.sql.table").AsString())
	assert.Contains(t, attr(inserts[0], "db.statement").AsString(), "INSERT")

	selects := spansNamed(sr, "db.select")
	require.NotEmpty(t, selects)
	for _, s := range selects {
		assert.NotEqual(t, codes.Error, s.Status().Code)
	}
}

func TestHTTPClientDefaults(t *testing.T) {
	assert.NotZero(t, NewHTTPClient(0).Timeout)
	assert.NotNil(t, NewHTTPClient(0).Transport)
}
