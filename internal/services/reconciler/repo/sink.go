package repo

import (
	"context"

	"popreel/internal/core/model"
	"popreel/internal/platform/store"
	ptime "popreel/internal/platform/time"
	"popreel/internal/services/reconciler/domain"
)

// EventsTable receives shipped entries
const EventsTable = "engagement_events"

// eventsDDL keys rows by id so an entry shipped twice collapses on merge
const eventsDDL = `
CREATE TABLE IF NOT EXISTS engagement_events (
	id         String,
	video_id   String,
	user_id    String,
	delta      Int8,
	created_at DateTime64(3, 'UTC')
)
ENGINE = ReplacingMergeTree
ORDER BY (video_id, created_at, id)`

// CHSink ships entries to clickhouse
type CHSink struct{ ch store.Clickhouse }

var _ domain.Sink = (*CHSink)(nil)

// NewSink returns nil when clickhouse is not configured
func NewSink(ch store.Clickhouse) *CHSink {
	if ch == nil {
		return nil
	}
	return &CHSink{ch: ch}
}

// Ensure creates the events table when missing
func (s *CHSink) Ensure(ctx context.Context) error {
	return s.ch.Exec(ctx, eventsDDL)
}

// Ship inserts entries in one batch
func (s *CHSink) Ship(ctx context.Context, entries []model.EngagementEntry) error {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.ID, e.VideoID, e.UserID, int8(e.Delta), ptime.FromMillis(e.CreatedAt)})
	}
	return s.ch.Insert(ctx, EventsTable, rows)
}
