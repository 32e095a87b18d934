package store

import (
	"context"
	"fmt"
)

// AppendAlertEvent inserts one fired alert. AlertEngine is responsible for
// cooldown enforcement before calling this — the Store only records what
// already passed that check.
func (s *Store) AppendAlertEvent(ctx context.Context, e AlertEvent) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO alert_events (threshold_id, reading_ts, value, profile_id)
		VALUES (?, ?, ?, NULLIF(?, ''))`, e.ThresholdID, e.ReadingTs, e.Value, e.ProfileID)
	if err != nil {
		return fmt.Errorf("store: appending alert event: %w", err)
	}

	return nil
}

// InsertAnalysisResults writes one AnalysisResult row per parameter for a
// drive in a single transaction.
func (s *Store) InsertAnalysisResults(ctx context.Context, results []AnalysisResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: beginning analysis insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO analysis_results
		(drive_id, parameter, min, max, avg, mode, std1, std2, outlier_lo, outlier_hi)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(drive_id, parameter) DO UPDATE SET
		 min = excluded.min, max = excluded.max, avg = excluded.avg, mode = excluded.mode,
		 std1 = excluded.std1, std2 = excluded.std2,
		 outlier_lo = excluded.outlier_lo, outlier_hi = excluded.outlier_hi`)
	if err != nil {
		return fmt.Errorf("store: preparing analysis insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.ExecContext(ctx, r.DriveID, r.Parameter, r.Min, r.Max, r.Avg, r.Mode, r.Std1, r.Std2, r.OutlierLo, r.OutlierHi); err != nil {
			return fmt.Errorf("store: inserting analysis result: %w", err)
		}
	}

	return tx.Commit()
}

// ListAnalysisResults returns every AnalysisResult row for a drive.
func (s *Store) ListAnalysisResults(ctx context.Context, driveID string) ([]AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT drive_id, parameter, min, max, avg, mode, std1, std2, outlier_lo, outlier_hi
		FROM analysis_results WHERE drive_id = ?`, driveID)
	if err != nil {
		return nil, fmt.Errorf("store: listing analysis results: %w", err)
	}
	defer rows.Close()

	var out []AnalysisResult
	for rows.Next() {
		var r AnalysisResult
		if err := rows.Scan(&r.DriveID, &r.Parameter, &r.Min, &r.Max, &r.Avg, &r.Mode, &r.Std1, &r.Std2, &r.OutlierLo, &r.OutlierHi); err != nil {
			return nil, fmt.Errorf("store: scanning analysis result: %w", err)
		}
		out = append(out, r)
	}

	return out, rows.Err()
}
