package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// AppendConnectionEvent records one lifecycle/transition event.
func (s *Store) AppendConnectionEvent(ctx context.Context, e ConnectionEvent) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO connection_events (ts, kind, detail) VALUES (?, ?, ?)`,
		e.Ts, string(e.Kind), e.Detail)
	if err != nil {
		return fmt.Errorf("store: appending connection event: %w", err)
	}

	return nil
}

// AppendUpsSample records one battery telemetry snapshot.
func (s *Store) AppendUpsSample(ctx context.Context, u UpsSample) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO ups_samples
		(ts, voltage_mv, current_ma_signed, soc_pct, source) VALUES (?, ?, ?, ?, ?)`,
		u.Ts, u.VoltageMv, u.CurrentMaSigned, u.SocPct, string(u.Source))
	if err != nil {
		return fmt.Errorf("store: appending UPS sample: %w", err)
	}

	return nil
}

// UpsertVehicleInfo stores the VIN-decoded record, keyed by VIN.
func (s *Store) UpsertVehicleInfo(ctx context.Context, v VehicleInfo) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO vehicle_info (vin, make, model, year, raw_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(vin) DO UPDATE SET make = excluded.make, model = excluded.model,
		 year = excluded.year, raw_json = excluded.raw_json`,
		v.VIN, v.Make, v.Model, v.Year, v.RawJSON)
	if err != nil {
		return fmt.Errorf("store: upserting vehicle info: %w", err)
	}

	return nil
}

// GetVehicleInfo returns the cached record for vin, or nil if not present —
// grounds VinResolver's "subsequent resolves must not call the external
// API unless explicit refresh is requested" invariant.
func (s *Store) GetVehicleInfo(ctx context.Context, vin string) (*VehicleInfo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT vin, make, model, year, raw_json FROM vehicle_info WHERE vin = ?`, vin)

	var v VehicleInfo
	if err := row.Scan(&v.VIN, &v.Make, &v.Model, &v.Year, &v.RawJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("store: reading vehicle info %s: %w", vin, err)
	}

	return &v, nil
}
