package simplecms

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// CollectionSaved does nothing and returns nil
func (n *NoopEventSink) CollectionSaved(ctx context.Context, name string, count int) error {
	return nil
}

// MembershipCommitted does nothing and returns nil
func (n *NoopEventSink) MembershipCommitted(ctx context.Context, collection string, result CommitResult) error {
	return nil
}

// RelatedSaved does nothing and returns nil
func (n *NoopEventSink) RelatedSaved(ctx context.Context, name string, selection RelatedContentSelection) error {
	return nil
}

// LogEventSink writes every event to a slog.Logger
type LogEventSink struct {
	logger *slog.Logger
}

// NewLogEventSink creates an event sink that logs at info level
func NewLogEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEventSink{logger: logger}
}

func (l *LogEventSink) CollectionSaved(ctx context.Context, name string, count int) error {
	l.logger.InfoContext(ctx, "event: collection saved", "name", name, "count", count)
	return nil
}

func (l *LogEventSink) MembershipCommitted(ctx context.Context, collection string, result CommitResult) error {
	l.logger.InfoContext(ctx, "event: membership committed",
		"collection", collection,
		"category_id", result.CategoryID,
		"members", result.Members,
		"unassigned", result.Unassigned)
	return nil
}

func (l *LogEventSink) RelatedSaved(ctx context.Context, name string, selection RelatedContentSelection) error {
	l.logger.InfoContext(ctx, "event: related saved", "name", name, "section_types", selection.SectionTypes)
	return nil
}
