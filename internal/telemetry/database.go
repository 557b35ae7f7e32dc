package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const (
	spanKey          = "telemetry:span"
	maxStatementSize = 500
)

// GORMTracingPlugin returns a GORM plugin that opens a span per statement
func GORMTracingPlugin() gorm.Plugin {
	return &tracingPlugin{tracer: otel.Tracer("gorm")}
}

type tracingPlugin struct {
	tracer trace.Tracer
	system string
}

func (p *tracingPlugin) Name() string {
	return "telemetry:tracing"
}

func (p *tracingPlugin) Initialize(db *gorm.DB) error {
	p.system = dbSystem(db.Dialector.Name())

	cb := db.Callback()
	errs := []error{
		cb.Query().Before("gorm:query").Register("telemetry:before_query", p.before("SELECT")),
		cb.Query().After("gorm:query").Register("telemetry:after_query", p.endSpan),
		cb.Create().Before("gorm:create").Register("telemetry:before_create", p.before("INSERT")),
		cb.Create().After("gorm:create").Register("telemetry:after_create", p.endSpan),
		cb.Update().Before("gorm:update").Register("telemetry:before_update", p.before("UPDATE")),
		cb.Update().After("gorm:update").Register("telemetry:after_update", p.endSpan),
		cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", p.before("DELETE")),
		cb.Delete().After("gorm:delete").Register("telemetry:after_delete", p.endSpan),
		cb.Row().Before("gorm:row").Register("telemetry:before_row", p.before("SELECT")),
		cb.Row().After("gorm:row").Register("telemetry:after_row", p.endSpan),
		cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", p.before("RAW")),
		cb.Raw().After("gorm:raw").Register("telemetry:after_raw", p.endSpan),
	}
	for _, err := range errs {
		if err != nil {
			return fmt.Errorf("register tracing callback: %w", err)
		}
	}
	return nil
}

func (p *tracingPlugin) before(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) { p.startSpan(db, operation) }
}

func (p *tracingPlugin) startSpan(db *gorm.DB, operation string) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	table := db.Statement.Table
	if table == "" {
		table = "unknown"
	}

	_, span := p.tracer.Start(ctx, "db."+strings.ToLower(operation),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", p.system),
			attribute.String("db.sql.table", table),
			attribute.String("db.operation", operation),
		),
	)
	db.InstanceSet(spanKey, span)
}

func (p *tracingPlugin) endSpan(db *gorm.DB) {
	raw, ok := db.InstanceGet(spanKey)
	if !ok {
		return
	}
	span, ok := raw.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if sql := db.Statement.SQL.String(); sql != "" {
		if len(sql) > maxStatementSize {
			sql = sql[:maxStatementSize] + "..."
		}
		span.SetAttributes(attribute.String("db.statement", sql))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.RowsAffected))

	// a missing row is an answer, not a failure
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
}

func dbSystem(dialector string) string {
	switch dialector {
	case "postgres":
		return "postgresql"
	case "sqlite":
		return "sqlite"
	default:
		return dialector
	}
}
