package store

import (
	"context"
	"fmt"
)

// UpsertProfile creates or replaces a profile row. Called once at startup
// per configured profile (profiles are immutable at runtime except for
// which one is active).
func (s *Store) UpsertProfile(ctx context.Context, p Profile) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO profiles (id, name, poll_interval_ms)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, poll_interval_ms = excluded.poll_interval_ms`,
		p.ID, p.Name, p.PollIntervalMs)
	if err != nil {
		return fmt.Errorf("store: upserting profile %s: %w", p.ID, err)
	}

	return nil
}

// UpsertThreshold creates or replaces a threshold row.
func (s *Store) UpsertThreshold(ctx context.Context, t Threshold) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO thresholds
		(id, profile_id, parameter, direction, value, cooldown_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		 profile_id = excluded.profile_id, parameter = excluded.parameter,
		 direction = excluded.direction, value = excluded.value, cooldown_ms = excluded.cooldown_ms`,
		t.ID, t.ProfileID, t.Parameter, t.Direction, t.Value, t.CooldownMs)
	if err != nil {
		return fmt.Errorf("store: upserting threshold %s: %w", t.ID, err)
	}

	return nil
}

// ListThresholds returns every threshold configured for profileID.
func (s *Store) ListThresholds(ctx context.Context, profileID string) ([]Threshold, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, profile_id, parameter, direction, value, cooldown_ms
		FROM thresholds WHERE profile_id = ?`, profileID)
	if err != nil {
		return nil, fmt.Errorf("store: listing thresholds: %w", err)
	}
	defer rows.Close()

	var out []Threshold
	for rows.Next() {
		var t Threshold
		if err := rows.Scan(&t.ID, &t.ProfileID, &t.Parameter, &t.Direction, &t.Value, &t.CooldownMs); err != nil {
			return nil, fmt.Errorf("store: scanning threshold: %w", err)
		}
		out = append(out, t)
	}

	return out, rows.Err()
}
