// Package history records finished sub-agent runs.
package history

import (
	"context"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

// Store persists HistoryEntry values.
type Store interface {
	Record(ctx context.Context, e schema.HistoryEntry) error
	// Since returns entries started at or after since, oldest first.
	Since(ctx context.Context, since time.Time) ([]schema.HistoryEntry, error)
	Close() error
}
