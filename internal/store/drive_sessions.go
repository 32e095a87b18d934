package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNoOpenSession is returned by CloseOpenDriveSession when there is
// nothing to close — closing is idempotent, so callers treat this as a
// no-op rather than an error.
var ErrNoOpenSession = errors.New("store: no open drive session")

// OpenDriveSession inserts a new DriveSession row with no end_ts. The
// unique partial index on drive_sessions enforces "at most one open
// session" at the database layer, so a second concurrent open fails loudly
// instead of silently producing two open sessions.
func (s *Store) OpenDriveSession(ctx context.Context, id, profileID string, startTs int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO drive_sessions (id, profile_id, start_ts, end_ts)
		VALUES (?, ?, ?, NULL)`, id, profileID, startTs)
	if err != nil {
		return fmt.Errorf("store: opening drive session %s: %w", id, err)
	}

	return nil
}

// CloseOpenDriveSession sets end_ts on the single open session, if any.
// Idempotent: calling it again when no session is open returns
// ErrNoOpenSession rather than touching an already-closed row.
func (s *Store) CloseOpenDriveSession(ctx context.Context, endTs int64) (sessionID string, err error) {
	row := s.db.QueryRowContext(ctx, `SELECT id FROM drive_sessions WHERE end_ts IS NULL`)

	if err := row.Scan(&sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNoOpenSession
		}

		return "", fmt.Errorf("store: finding open drive session: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE drive_sessions SET end_ts = ? WHERE id = ?`, endTs, sessionID); err != nil {
		return "", fmt.Errorf("store: closing drive session %s: %w", sessionID, err)
	}

	return sessionID, nil
}

// OpenDriveSessionID returns the id of the currently open session, or ""
// if none is open. Used by the status command's database fallback; the
// Poller tags readings from the orchestrator's in-memory open-session id.
func (s *Store) OpenDriveSessionID(ctx context.Context) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id FROM drive_sessions WHERE end_ts IS NULL`)

	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("store: reading open drive session: %w", err)
	}

	return id, nil
}

// GetDriveSession returns one session by id.
func (s *Store) GetDriveSession(ctx context.Context, id string) (*DriveSession, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, profile_id, start_ts, end_ts FROM drive_sessions WHERE id = ?`, id)

	var ds DriveSession
	if err := row.Scan(&ds.ID, &ds.ProfileID, &ds.StartTs, &ds.EndTs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("store: drive session %s: %w", id, err)
		}

		return nil, fmt.Errorf("store: reading drive session %s: %w", id, err)
	}

	return &ds, nil
}
