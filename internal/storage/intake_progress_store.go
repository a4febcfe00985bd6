package storage

import "context"

// IntakeProgress represents the last processed position in a backfill source.
type IntakeProgress struct {
	Source            string // source identifier, e.g. the backfill file path
	RecordOffset      int64  // last processed record index within the source
	LastMeasurementID string // last processed measurement ID
}

// IntakeProgressStore provides persistence for intake state.
// This enables resumption after restarts without reprocessing or duplicating
// measurements.
type IntakeProgressStore interface {
	// GetProgress returns the last processed position for a source.
	// Returns ErrNotFound if no progress has been saved yet.
	GetProgress(ctx context.Context, source string) (*IntakeProgress, error)

	// SetProgress saves the last processed position for a source.
	SetProgress(ctx context.Context, progress *IntakeProgress) error

	// IsSeen checks if a measurement ID has been processed.
	IsSeen(ctx context.Context, measurementID string) (bool, error)

	// MarkSeen records that a measurement ID has been processed.
	MarkSeen(ctx context.Context, measurementID string) error

	// LoadSeen returns all seen measurement IDs (for warming the in-memory cache).
	LoadSeen(ctx context.Context) ([]string, error)
}
