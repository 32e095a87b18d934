package hardware

import (
	"log/slog"
	"sync"
	"time"
)

// failureThreshold is the number of consecutive failures after which a
// subdevice's log level demotes from WARN to DEBUG and its poll interval
// starts doubling.
const failureThreshold = 3

// backoffRecord tracks one subdevice's consecutive-failure state.
type backoffRecord struct {
	streak   int
	interval time.Duration
}

// tracker manages per-subdevice consecutive-error backoff: first failure
// logs at WARN, subsequent failures beyond failureThreshold demote to
// DEBUG and double the poll interval up to maxInterval. A success resets
// the subdevice back to baseline.
type tracker struct {
	mu          sync.Mutex
	records     map[string]*backoffRecord
	baseInterval map[string]time.Duration
	maxInterval time.Duration
	logger      *slog.Logger
}

func newTracker(maxInterval time.Duration, logger *slog.Logger) *tracker {
	return &tracker{
		records:      make(map[string]*backoffRecord),
		baseInterval: make(map[string]time.Duration),
		maxInterval:  maxInterval,
		logger:       logger,
	}
}

// recordFailure increments subdevice's failure streak and returns the
// interval the caller should wait before its next poll.
func (t *tracker) recordFailure(subdevice string, base time.Duration, err error) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.baseInterval[subdevice] = base

	rec, ok := t.records[subdevice]
	if !ok {
		rec = &backoffRecord{interval: base}
		t.records[subdevice] = rec
	}

	rec.streak++

	if rec.streak <= failureThreshold {
		t.logger.Warn("hardware: subdevice poll failed", "subdevice", subdevice, "streak", rec.streak, "error", err)
	} else {
		rec.interval *= 2
		if rec.interval > t.maxInterval {
			rec.interval = t.maxInterval
		}

		t.logger.Debug("hardware: subdevice still failing, backed off", "subdevice", subdevice, "streak", rec.streak, "interval", rec.interval, "error", err)
	}

	return rec.interval
}

// recordSuccess resets subdevice back to its baseline poll interval.
func (t *tracker) recordSuccess(subdevice string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.records, subdevice)

	if base, ok := t.baseInterval[subdevice]; ok {
		return base
	}

	return 0
}
