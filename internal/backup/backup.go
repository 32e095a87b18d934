// Package backup implements BackupCoordinator: a scheduled database
// backup with catch-up for missed windows and retention-based rotation,
// shipped through a pluggable Uploader.
package backup

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/obdsentry/obdsentryd/internal/backup/uploader"
	"github.com/obdsentry/obdsentryd/internal/clock"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// Coordinator schedules and performs backups of the SQLite database
// file. Before copying it quiesces the pending reading batch via flush,
// then takes a consistent snapshot through the Store's online-backup
// path rather than reading the live WAL-mode file directly.
type Coordinator struct {
	store      *store.Store
	uploader   uploader.Uploader
	dbPath     string
	gzip       bool
	maxBackups int
	catchup    time.Duration
	bwLimit    string
	flush      func(context.Context) error
	clock      clock.Clock
	logger     *slog.Logger
}

// Config holds Coordinator's tunables, sourced from config.BackupConfig.
type Config struct {
	DBPath         string
	Gzip           bool
	MaxBackups     int
	CatchupDays    int
	ScheduleTime   string // "HH:MM" local time
	BandwidthLimit string // e.g. "5MB/s"; empty or "0" means unlimited
}

// New creates a Coordinator. flush is called to quiesce the in-flight
// reading batch immediately before each snapshot, so the backup is as
// fresh as possible — pass the orchestrator's ReadingBatcher.Flush.
func New(s *store.Store, up uploader.Uploader, cfg Config, flush func(context.Context) error, c clock.Clock, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store:      s,
		uploader:   up,
		dbPath:     cfg.DBPath,
		gzip:       cfg.Gzip,
		maxBackups: cfg.MaxBackups,
		catchup:    time.Duration(cfg.CatchupDays) * 24 * time.Hour,
		bwLimit:    cfg.BandwidthLimit,
		flush:      flush,
		clock:      c,
		logger:     logger,
	}
}

// Run performs a catch-up check, then backs up once daily at scheduleTime
// (local "HH:MM") until ctx is canceled.
func (c *Coordinator) Run(ctx context.Context, scheduleTime string) error {
	if err := c.catchUpIfNeeded(ctx); err != nil {
		c.logger.Warn("backup: catch-up backup failed", "error", err)
	}

	for {
		wait := c.untilNext(scheduleTime)

		select {
		case <-ctx.Done():
			return nil
		case <-c.clock.After(wait):
		}

		if err := c.BackupOnce(ctx); err != nil {
			c.logger.Warn("backup: scheduled backup failed", "error", err)
		}
	}
}

// NoteDriveEnded records that a drive session closed, for the scheduler's
// own bookkeeping. It performs no backup itself — scheduled and catch-up
// backups are the only triggers — but logs at DEBUG so a backup gap can be
// correlated against drive activity when diagnosing a missed schedule.
func (c *Coordinator) NoteDriveEnded(driveID string) {
	c.logger.Debug("backup: drive ended", "drive_id", driveID)
}

// catchUpIfNeeded runs an immediate backup if the last successful one is
// older than the configured catch-up window, per spec's "missed backup
// windows are caught up on next start."
func (c *Coordinator) catchUpIfNeeded(ctx context.Context) error {
	last, err := c.store.LastSuccessfulBackup(ctx, store.BackupDatabase)
	if err != nil {
		return err
	}

	if last == 0 {
		return c.BackupOnce(ctx)
	}

	age := c.clock.Now().Sub(time.UnixMilli(last))
	if age >= c.catchup {
		return c.BackupOnce(ctx)
	}

	return nil
}

// untilNext returns the duration until the next occurrence of scheduleTime
// ("HH:MM" local time), today if it hasn't passed yet or tomorrow
// otherwise.
func (c *Coordinator) untilNext(scheduleTime string) time.Duration {
	now := c.clock.Now()

	var hour, minute int
	if _, err := fmt.Sscanf(scheduleTime, "%d:%d", &hour, &minute); err != nil {
		hour, minute = 3, 0
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(now)
}

// BackupOnce quiesces the pending reading batch, takes a consistent
// snapshot of the database, optionally gzips it, ships it through the
// Uploader, records the outcome, and rotates out backups beyond
// maxBackups.
func (c *Coordinator) BackupOnce(ctx context.Context) error {
	name := fmt.Sprintf("obdsentry-%s.db", c.clock.Now().UTC().Format("20060102T150405Z"))

	if c.flush != nil {
		if err := c.flush(ctx); err != nil {
			c.logger.Warn("backup: flushing pending reading batch failed", "error", err)
		}
	}

	snapshotPath := c.dbPath + ".snapshot-tmp"
	os.Remove(snapshotPath) // VACUUM INTO refuses to overwrite an existing file

	if err := c.store.SnapshotTo(ctx, snapshotPath); err != nil {
		c.recordFailure(ctx)

		return fmt.Errorf("backup: snapshotting database: %w", err)
	}
	defer os.Remove(snapshotPath)

	f, err := os.Open(snapshotPath)
	if err != nil {
		c.recordFailure(ctx)

		return fmt.Errorf("backup: opening database snapshot: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.recordFailure(ctx)

		return fmt.Errorf("backup: statting database snapshot: %w", err)
	}

	remotePath, bytesWritten, err := c.ship(ctx, name, f, info.Size())
	if err != nil {
		c.recordFailure(ctx)

		return fmt.Errorf("backup: shipping archive: %w", err)
	}

	if _, err := c.store.AppendBackupRecord(ctx, store.BackupRecord{
		Ts:         c.clock.Now().UnixMilli(),
		Kind:       store.BackupDatabase,
		Bytes:      bytesWritten,
		RemotePath: remotePath,
		Status:     store.BackupSuccess,
	}); err != nil {
		c.logger.Warn("backup: recording success failed", "error", err)
	}

	c.rotate(ctx)

	return nil
}

func (c *Coordinator) ship(ctx context.Context, name string, f *os.File, size int64) (string, int64, error) {
	bw, err := newBandwidthLimiter(c.bwLimit, c.logger)
	if err != nil {
		c.logger.Warn("backup: ignoring invalid bandwidth limit", "error", err)
		bw = nil
	}

	if !c.gzip {
		remotePath, err := c.uploader.Upload(ctx, name, bw.wrap(ctx, f), size)

		return remotePath, size, err
	}

	pr, pw := io.Pipe()

	go func() {
		gw := gzip.NewWriter(pw)
		_, copyErr := io.Copy(gw, f)

		closeErr := gw.Close()
		pw.CloseWithError(firstErr(copyErr, closeErr))
	}()

	remotePath, err := c.uploader.Upload(ctx, name+".gz", bw.wrap(ctx, pr), -1)

	return remotePath, size, err
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}

	return nil
}

func (c *Coordinator) recordFailure(ctx context.Context) {
	if _, err := c.store.AppendBackupRecord(ctx, store.BackupRecord{
		Ts:     c.clock.Now().UnixMilli(),
		Kind:   store.BackupDatabase,
		Status: store.BackupFailed,
	}); err != nil {
		c.logger.Warn("backup: recording failure failed", "error", err)
	}
}

// rotate deletes the oldest backup records beyond maxBackups. It only
// drops the database row — it does not attempt to remove the
// already-shipped remote object, since the Uploader interface is
// write-only and has no delete operation.
func (c *Coordinator) rotate(ctx context.Context) {
	if c.maxBackups <= 0 {
		return
	}

	records, err := c.store.ListBackupRecords(ctx, store.BackupDatabase)
	if err != nil {
		c.logger.Warn("backup: listing records for rotation failed", "error", err)

		return
	}

	if len(records) <= c.maxBackups {
		return
	}

	for _, r := range records[c.maxBackups:] {
		if err := c.store.DeleteBackupRecord(ctx, r.ID); err != nil {
			c.logger.Warn("backup: deleting rotated record failed", "id", r.ID, "error", err)
		}
	}
}
