package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"
)

// burstMultiplier sizes the token bucket burst relative to the sustained
// rate, so a short idle gap between scheduled backups doesn't throttle the
// start of the next upload below the configured limit.
const burstMultiplier = 2

// bandwidthLimiter throttles a single backup upload's throughput.
// BackupCoordinator ships one archive at a time, so a limiter is built
// per-upload from the config string rather than held for the
// Coordinator's lifetime.
type bandwidthLimiter struct {
	limiter *rate.Limiter
}

// newBandwidthLimiter parses a "5MB/s"-style limit string. An empty or
// zero limit returns nil, meaning unlimited.
func newBandwidthLimiter(limit string, logger *slog.Logger) (*bandwidthLimiter, error) {
	if limit == "" || limit == "0" {
		return nil, nil //nolint:nilnil // nil limiter = unlimited; callers check with nil-safe wrapping
	}

	bytesPerSec, err := parseBandwidthRate(limit)
	if err != nil {
		return nil, fmt.Errorf("backup: parsing bandwidth limit %q: %w", limit, err)
	}

	if bytesPerSec == 0 {
		return nil, nil //nolint:nilnil
	}

	burst := int(bytesPerSec) * burstMultiplier

	logger.Debug("backup: upload bandwidth limiter created", "bytes_per_sec", bytesPerSec, "burst", burst)

	return &bandwidthLimiter{limiter: rate.NewLimiter(rate.Limit(bytesPerSec), burst)}, nil
}

func parseBandwidthRate(s string) (int64, error) {
	normalized := s
	if len(normalized) >= 2 && normalized[len(normalized)-2:] == "/s" {
		normalized = normalized[:len(normalized)-2]
	}

	bytes, err := humanize.ParseBytes(normalized)
	if err != nil {
		return 0, err
	}

	return int64(bytes), nil
}

// wrap returns a rate-limited reader, or r unchanged if bl is nil.
func (bl *bandwidthLimiter) wrap(ctx context.Context, r io.Reader) io.Reader {
	if bl == nil {
		return r
	}

	return &rateLimitedReader{r: r, limiter: bl.limiter, ctx: ctx}
}

type rateLimitedReader struct {
	r       io.Reader
	limiter *rate.Limiter
	ctx     context.Context
}

func (r *rateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		if waitErr := waitN(r.limiter, r.ctx, n); waitErr != nil {
			return n, waitErr
		}
	}

	return n, err
}

// waitN splits a request exceeding the burst size into burst-sized chunks,
// since rate.Limiter.WaitN rejects requests larger than the burst.
func waitN(limiter *rate.Limiter, ctx context.Context, n int) error {
	burst := limiter.Burst()

	for n > 0 {
		take := n
		if take > burst {
			take = burst
		}

		if err := limiter.WaitN(ctx, take); err != nil {
			return err
		}

		n -= take
	}

	return nil
}
