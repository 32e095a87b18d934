package backup

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obdsentry/obdsentryd/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), t.TempDir()+"/test.db", "NORMAL", 5000, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

type fakeUploader struct {
	uploads []string
}

func (f *fakeUploader) Upload(_ context.Context, name string, r io.Reader, _ int64) (string, error) {
	io.Copy(io.Discard, r)
	f.uploads = append(f.uploads, name)

	return "fake://" + name, nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time                       { return c.now }
func (c *fakeClock) After(d time.Duration) <-chan time.Time { return time.After(time.Millisecond) }

func TestBackupOnce_RecordsSuccessAndShips(t *testing.T) {
	s := openTestStore(t)
	up := &fakeUploader{}
	c := New(s, up, Config{DBPath: s.Path(), MaxBackups: 10}, nil, &fakeClock{now: time.Now()}, testLogger())

	require.NoError(t, c.BackupOnce(context.Background()))
	assert.Len(t, up.uploads, 1)

	records, err := s.ListBackupRecords(context.Background(), store.BackupDatabase)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, store.BackupSuccess, records[0].Status)
}

func TestRotate_DropsOldestBeyondMax(t *testing.T) {
	s := openTestStore(t)
	up := &fakeUploader{}
	fc := &fakeClock{now: time.Now()}
	c := New(s, up, Config{DBPath: s.Path(), MaxBackups: 2}, nil, fc, testLogger())

	for i := 0; i < 4; i++ {
		fc.now = fc.now.Add(time.Hour)
		require.NoError(t, c.BackupOnce(context.Background()))
	}

	records, err := s.ListBackupRecords(context.Background(), store.BackupDatabase)
	require.NoError(t, err)
	assert.Len(t, records, 2, "rotation should keep only maxBackups most recent")
}

func TestCatchUpIfNeeded_BacksUpWhenStale(t *testing.T) {
	s := openTestStore(t)
	up := &fakeUploader{}
	fc := &fakeClock{now: time.Now()}
	c := New(s, up, Config{DBPath: s.Path(), MaxBackups: 10, CatchupDays: 2}, nil, fc, testLogger())

	require.NoError(t, c.catchUpIfNeeded(context.Background()))
	assert.Len(t, up.uploads, 1, "no prior backup exists, so catch-up fires immediately")
}

func TestUntilNext_TodayWhenNotYetPassed(t *testing.T) {
	s := openTestStore(t)
	fc := &fakeClock{now: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC)}
	c := New(s, &fakeUploader{}, Config{DBPath: s.Path()}, nil, fc, testLogger())

	wait := c.untilNext("03:00")
	assert.Equal(t, 2*time.Hour, wait)
}

func TestUntilNext_TomorrowWhenAlreadyPassed(t *testing.T) {
	s := openTestStore(t)
	fc := &fakeClock{now: time.Date(2026, 1, 1, 4, 0, 0, 0, time.UTC)}
	c := New(s, &fakeUploader{}, Config{DBPath: s.Path()}, nil, fc, testLogger())

	wait := c.untilNext("03:00")
	assert.Equal(t, 23*time.Hour, wait)
}
