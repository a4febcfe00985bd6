package intake

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"bodycomp-lab/internal/calc"
	"bodycomp-lab/internal/observability"
	"bodycomp-lab/internal/storage"
)

var errAlreadySeen = errors.New("measurement already processed")

// Backfiller loads measurement records from a JSONL export into storage,
// computing results as it goes. Progress is persisted per source so an
// interrupted run resumes where it stopped, and processed measurement IDs
// are remembered so overlapping exports never reprocess a record.
type Backfiller struct {
	processor *Processor
	progress  storage.IntakeProgressStore
	logger    zerolog.Logger

	// In-memory seen cache, warmed from the progress store at Run start.
	// The store stays authoritative for IDs processed by another writer.
	seen map[string]bool
}

// BackfillerOptions contains configuration for creating a Backfiller.
type BackfillerOptions struct {
	Calculator   *calc.Calculator
	Measurements storage.MeasurementStore
	Results      storage.ResultStore
	History      storage.ResultHistoryStore
	Progress     storage.IntakeProgressStore // optional; nil disables resume and dedup
	Logger       zerolog.Logger
}

// NewBackfiller creates a backfiller over the given engine and stores.
func NewBackfiller(opts BackfillerOptions) *Backfiller {
	return &Backfiller{
		processor: NewProcessor(opts.Calculator, opts.Measurements, opts.Results, opts.History),
		progress:  opts.Progress,
		logger:    opts.Logger,
		seen:      make(map[string]bool),
	}
}

// BackfillStats summarizes one run.
type BackfillStats struct {
	Processed int // measurements computed and stored
	Skipped   int // already processed in an earlier run
	Rejected  int // malformed lines dropped
}

// Run streams the JSONL file at path, one MeasurementMessage per line.
// Malformed lines are dropped and counted; empty lines are ignored;
// storage faults abort the run with progress saved up to the last line.
func (b *Backfiller) Run(ctx context.Context, path string) (*BackfillStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backfill source: %w", err)
	}
	defer f.Close()

	startOffset, err := b.loadProgress(ctx, path)
	if err != nil {
		return nil, err
	}
	if startOffset > 0 {
		b.logger.Info().Str("source", path).Int64("offset", startOffset).Msg("Resuming backfill")
	}

	stats := &BackfillStats{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lineNo int64
	for scanner.Scan() {
		lineNo++
		if lineNo <= startOffset {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		id, err := b.processLine(ctx, line)
		switch {
		case err == nil:
			stats.Processed++
			observability.RecordResultComputed("backfill")
		case errors.Is(err, errAlreadySeen):
			stats.Skipped++
		case errors.Is(err, ErrMalformedMessage):
			stats.Rejected++
			observability.RecordMeasurementRejected("malformed")
			b.logger.Warn().Err(err).Int64("line", lineNo).Msg("Dropping malformed backfill record")
		default:
			return stats, fmt.Errorf("line %d: %w", lineNo, err)
		}

		// Progress advances over skipped and rejected lines too, so a
		// resume never rereads them.
		if err := b.saveProgress(ctx, path, lineNo, id); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read backfill source: %w", err)
	}

	b.logger.Info().
		Str("source", path).
		Int("processed", stats.Processed).
		Int("skipped", stats.Skipped).
		Int("rejected", stats.Rejected).
		Msg("Backfill finished")
	return stats, nil
}

// processLine handles one JSONL record. Returns the measurement ID when
// the line decoded far enough to have one.
func (b *Backfiller) processLine(ctx context.Context, line []byte) (string, error) {
	var msg MeasurementMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		return "", fmt.Errorf("decode: %v: %w", err, ErrMalformedMessage)
	}

	if msg.MeasurementID != "" {
		seen, err := b.isSeen(ctx, msg.MeasurementID)
		if err != nil {
			return msg.MeasurementID, err
		}
		if seen {
			return msg.MeasurementID, errAlreadySeen
		}
	}

	if _, err := b.processor.ProcessMessage(ctx, &msg); err != nil {
		return msg.MeasurementID, err
	}

	return msg.MeasurementID, b.markSeen(ctx, msg.MeasurementID)
}

// isSeen checks the in-memory cache first, then the progress store, which
// covers IDs processed by another writer since the warm-up.
func (b *Backfiller) isSeen(ctx context.Context, measurementID string) (bool, error) {
	if b.seen[measurementID] {
		return true, nil
	}
	if b.progress == nil {
		return false, nil
	}
	seen, err := b.progress.IsSeen(ctx, measurementID)
	if err != nil {
		return false, fmt.Errorf("check seen %s: %w", measurementID, err)
	}
	if seen {
		b.seen[measurementID] = true
	}
	return seen, nil
}

func (b *Backfiller) markSeen(ctx context.Context, measurementID string) error {
	b.seen[measurementID] = true
	if b.progress == nil {
		return nil
	}
	if err := b.progress.MarkSeen(ctx, measurementID); err != nil {
		return fmt.Errorf("mark seen %s: %w", measurementID, err)
	}
	return nil
}

// loadProgress warms the seen cache and returns the resume offset for the
// source. A source with no saved progress starts from the beginning.
func (b *Backfiller) loadProgress(ctx context.Context, source string) (int64, error) {
	if b.progress == nil {
		return 0, nil
	}

	ids, err := b.progress.LoadSeen(ctx)
	if err != nil {
		return 0, fmt.Errorf("load seen measurements: %w", err)
	}
	for _, id := range ids {
		b.seen[id] = true
	}

	progress, err := b.progress.GetProgress(ctx, source)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("load progress for %s: %w", source, err)
	}
	return progress.RecordOffset, nil
}

func (b *Backfiller) saveProgress(ctx context.Context, source string, offset int64, lastID string) error {
	if b.progress == nil {
		return nil
	}
	err := b.progress.SetProgress(ctx, &storage.IntakeProgress{
		Source:            source,
		RecordOffset:      offset,
		LastMeasurementID: lastID,
	})
	if err != nil {
		return fmt.Errorf("save progress for %s: %w", source, err)
	}
	return nil
}
