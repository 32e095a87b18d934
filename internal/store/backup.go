package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AppendBackupRecord records one backup attempt's outcome.
func (s *Store) AppendBackupRecord(ctx context.Context, r BackupRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO backup_records (ts, kind, bytes, remote_path, status)
		VALUES (?, ?, ?, ?, ?)`, r.Ts, string(r.Kind), r.Bytes, r.RemotePath, string(r.Status))
	if err != nil {
		return 0, fmt.Errorf("store: appending backup record: %w", err)
	}

	return res.LastInsertId()
}

// LastSuccessfulBackup returns the most recent successful backup's
// timestamp for kind, or 0 if none exists — BackupCoordinator's
// catch-up check compares this against now.
func (s *Store) LastSuccessfulBackup(ctx context.Context, kind BackupKind) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT ts FROM backup_records
		WHERE kind = ? AND status = 'success' ORDER BY ts DESC LIMIT 1`, string(kind))

	var ts int64
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("store: reading last successful backup: %w", err)
	}

	return ts, nil
}

// ListBackupRecords returns every record for kind, most recent first.
func (s *Store) ListBackupRecords(ctx context.Context, kind BackupKind) ([]BackupRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, ts, kind, bytes, remote_path, status
		FROM backup_records WHERE kind = ? ORDER BY ts DESC`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("store: listing backup records: %w", err)
	}
	defer rows.Close()

	var out []BackupRecord
	for rows.Next() {
		var r BackupRecord
		var kindStr, statusStr string
		if err := rows.Scan(&r.ID, &r.Ts, &kindStr, &r.Bytes, &r.RemotePath, &statusStr); err != nil {
			return nil, fmt.Errorf("store: scanning backup record: %w", err)
		}
		r.Kind = BackupKind(kindStr)
		r.Status = BackupStatus(statusStr)
		out = append(out, r)
	}

	return out, rows.Err()
}

// DeleteBackupRecord removes a single record by id — used by
// BackupCoordinator's rotation. It removes only the row, not the shipped
// backup file.
func (s *Store) DeleteBackupRecord(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM backup_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: deleting backup record %d: %w", id, err)
	}

	return nil
}
