package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/inkvault/backend"

// tracer is looked up per call so a provider installed later still applies
func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// TraceCreatePost wraps post creation
func TraceCreatePost(ctx context.Context, authorID string, mediaCount int) (context.Context, trace.Span) {
	return tracer().Start(ctx, "post.create",
		trace.WithAttributes(
			attribute.String("user.id", authorID),
			attribute.Int("post.media_count", mediaCount),
		),
	)
}

// TraceReaction wraps a like or dislike toggle on a post, comment or reply
func TraceReaction(ctx context.Context, target, targetID, kind string) (context.Context, trace.Span) {
	return tracer().Start(ctx, target+"."+kind,
		trace.WithAttributes(
			attribute.String("reaction.target", target),
			attribute.String("reaction.target_id", targetID),
			attribute.String("reaction.kind", kind),
		),
	)
}

// TraceReply wraps adding a reply below a comment or another reply
func TraceReply(ctx context.Context, parentID string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "comment.reply",
		trace.WithAttributes(attribute.String("reply.parent_id", parentID)),
	)
}

// TraceFollow wraps a follow toggle
func TraceFollow(ctx context.Context, followerID, targetUsername string) (context.Context, trace.Span) {
	return tracer().Start(ctx, "profile.follow",
		trace.WithAttributes(
			attribute.String("user.id", followerID),
			attribute.String("profile.username", targetUsername),
		),
	)
}

// RecordVersionConflict notes a lost conditional write on the active span
func RecordVersionConflict(ctx context.Context, commentID string, attempt int) {
	trace.SpanFromContext(ctx).AddEvent("version_conflict",
		trace.WithAttributes(
			attribute.String("comment.id", commentID),
			attribute.Int("attempt", attempt),
		),
	)
}

// End finishes span, marking it failed when err is set
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
