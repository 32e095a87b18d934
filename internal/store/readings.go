package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	sqlInsertReading = `INSERT INTO readings
		(timestamp_ms, parameter, value, unit, profile_id, drive_id)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))`

	// batchMinRows and batchMaxRows bound the transactional batch size to
	// 5-10 rows per transaction.
	batchMinRows = 5
	batchMaxRows = 10
	// batchMaxDelay bounds staleness: a batch flushes even below
	// batchMinRows after this long.
	batchMaxDelay = 2 * time.Second
)

// ReadingBatcher accumulates Readings and flushes them to the Store in
// small transactions, preserving enqueue order as commit order. It owns
// no goroutine of its own — the orchestrator's Store consumer loop calls
// Add, and Add internally flushes when a threshold is met: a manager
// object driven by an external cycle rather than a hidden background
// goroutine.
type ReadingBatcher struct {
	store   *Store
	logger  *slog.Logger
	pending []Reading
	lastFlush time.Time
	nowFunc func() time.Time
}

// NewReadingBatcher creates a batcher bound to store.
func NewReadingBatcher(s *Store, logger *slog.Logger) *ReadingBatcher {
	return &ReadingBatcher{
		store:     s,
		logger:    logger,
		lastFlush: time.Now(),
		nowFunc:   time.Now,
	}
}

// Add enqueues r and flushes if batchMaxRows is reached or batchMaxDelay
// has elapsed since the last flush with at least batchMinRows pending.
func (b *ReadingBatcher) Add(ctx context.Context, r Reading) error {
	b.pending = append(b.pending, r)

	full := len(b.pending) >= batchMaxRows
	stale := len(b.pending) >= batchMinRows && b.nowFunc().Sub(b.lastFlush) >= batchMaxDelay

	if full || stale {
		return b.Flush(ctx)
	}

	return nil
}

// Flush commits all pending readings in a single transaction, in enqueue
// order, and is a no-op if nothing is pending. The orchestrator also calls
// it on its health-monitor tick, so a trickle of readings below
// batchMinRows is never stuck indefinitely.
func (b *ReadingBatcher) Flush(ctx context.Context) error {
	if len(b.pending) == 0 {
		return nil
	}

	tx, err := b.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning reading batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	stmt, err := tx.PrepareContext(ctx, sqlInsertReading)
	if err != nil {
		return fmt.Errorf("store: preparing reading insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range b.pending {
		if _, err := stmt.ExecContext(ctx, r.TimestampMs, r.Parameter, r.Value, r.Unit, r.ProfileID, r.DriveID); err != nil {
			return fmt.Errorf("store: inserting reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: committing reading batch: %w", err)
	}

	b.logger.Debug("flushed reading batch", slog.Int("rows", len(b.pending)))

	b.pending = b.pending[:0]
	b.lastFlush = b.nowFunc()

	return nil
}

// Pending reports the number of readings queued but not yet committed.
func (b *ReadingBatcher) Pending() int {
	return len(b.pending)
}

// ListReadings returns readings for a drive id in timestamp order, used by
// StatsEngine to compute an AnalysisResult and by tests verifying the
// round-trip property.
func (s *Store) ListReadings(ctx context.Context, driveID string) ([]Reading, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT timestamp_ms, parameter, value, unit,
		COALESCE(profile_id, ''), COALESCE(drive_id, '')
		FROM readings WHERE drive_id = ? ORDER BY timestamp_ms, id`, driveID)
	if err != nil {
		return nil, fmt.Errorf("store: listing readings: %w", err)
	}
	defer rows.Close()

	var out []Reading
	for rows.Next() {
		var r Reading
		if err := rows.Scan(&r.TimestampMs, &r.Parameter, &r.Value, &r.Unit, &r.ProfileID, &r.DriveID); err != nil {
			return nil, fmt.Errorf("store: scanning reading: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}

// DeleteReadingsOlderThan removes readings with timestamp_ms before
// cutoffMs: readings are retained for a configured window, and older
// rows are reclaimed by a periodic vacuum.
func (s *Store) DeleteReadingsOlderThan(ctx context.Context, cutoffMs int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE timestamp_ms < ?`, cutoffMs)
	if err != nil {
		return 0, fmt.Errorf("store: deleting expired readings: %w", err)
	}

	return res.RowsAffected()
}

// Vacuum reclaims space after a retention sweep deletes rows.
func (s *Store) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `VACUUM`)
	if err != nil {
		return fmt.Errorf("store: vacuuming: %w", err)
	}

	return nil
}
