// Package poller implements Poller: periodic sampling of a configured
// parameter set from ObdLink, emitting tagged Readings to consumers.
package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/clock"
	"github.com/obdsentry/obdsentryd/internal/obd"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// Poller samples obd.Link at a fixed interval on its own worker. Pause
// stops the underlying ticker so resume never replays accumulated ticks,
// per clock.IntervalTicker's contract, and never loses phase alignment
// beyond "the next tick is a full interval after Resume."
type Poller struct {
	link       obd.Link
	ticker     *clock.IntervalTicker
	parameters []string
	logger     *slog.Logger

	activeProfile func() string
	driveID       func() string

	// skippedThisEpoch tracks parameters that hit a Data error this
	// connection epoch: logged once, then skipped for the rest of the
	// epoch.
	mu               sync.Mutex
	skippedThisEpoch map[string]bool

	readings chan store.Reading
	paused   atomic.Bool
}

// New creates a Poller. activeProfile and driveID are called once per
// sampling tick to tag that tick's readings — they are expected to be cheap atomic reads (see
// internal/profile.ActiveProfile and the orchestrator's open-session cell).
func New(link obd.Link, parameters []string, interval time.Duration, activeProfile, driveID func() string, logger *slog.Logger) *Poller {
	return &Poller{
		link:            link,
		ticker:          clock.NewIntervalTicker(interval),
		parameters:      parameters,
		logger:          logger,
		activeProfile:   activeProfile,
		driveID:         driveID,
		skippedThisEpoch: make(map[string]bool),
		readings:        make(chan store.Reading, 64),
	}
}

// Readings returns the channel Poller emits tagged Readings on, in
// production order, per spec's testable property "Readings from Poller
// are delivered to consumers in production order."
func (p *Poller) Readings() <-chan store.Reading {
	return p.readings
}

// Run drives the sampling loop until ctx is canceled.
func (p *Poller) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.ticker.Stop()
			close(p.readings)

			return
		case <-p.ticker.C():
			p.sampleOnce(ctx)
		}
	}
}

// Pause stops sampling. While paused, the Poller must not produce readings.
func (p *Poller) Pause() {
	p.paused.Store(true)
	p.ticker.Pause()
}

// Resume restarts sampling and begins a new connection epoch, clearing
// the once-per-epoch Data-error suppression.
func (p *Poller) Resume() {
	p.mu.Lock()
	p.skippedThisEpoch = make(map[string]bool)
	p.mu.Unlock()

	p.paused.Store(false)
	p.ticker.Resume()
}

// SetInterval changes the poll interval, e.g. on a profile switch.
func (p *Poller) SetInterval(interval time.Duration) {
	p.ticker.SetInterval(interval)
}

func (p *Poller) sampleOnce(ctx context.Context) {
	if p.paused.Load() {
		return
	}

	profileID := ""
	if p.activeProfile != nil {
		profileID = p.activeProfile()
	}

	driveID := ""
	if p.driveID != nil {
		driveID = p.driveID()
	}

	now := time.Now().UnixMilli()

	for _, parameter := range p.parameters {
		if p.isSkippedThisEpoch(parameter) {
			continue
		}

		sample, err := p.link.Query(ctx, parameter)
		if err != nil {
			p.logDataError(parameter, err)

			continue
		}

		reading := store.Reading{
			TimestampMs: now,
			Parameter:   sample.Parameter,
			Value:       sample.Value,
			Unit:        sample.Unit,
			ProfileID:   profileID,
			DriveID:     driveID,
		}

		select {
		case p.readings <- reading:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Poller) isSkippedThisEpoch(parameter string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.skippedThisEpoch[parameter]
}

// logDataError logs a query failure. A Data-kind error (unsupported or
// malformed parameter) is logged once and the parameter is skipped for
// the remainder of the connection epoch; any other kind is logged every
// time, since it may resolve on its own (e.g. a transient Retryable
// hiccup the orchestrator's reconnect logic is separately handling).
func (p *Poller) logDataError(parameter string, err error) {
	if classify.Classify(err) != classify.Data {
		p.logger.Warn("poller: query failed", "parameter", parameter, "error", err)

		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.skippedThisEpoch[parameter] {
		return
	}

	p.skippedThisEpoch[parameter] = true
	p.logger.Warn("poller: parameter unsupported or malformed, skipping for this epoch", "parameter", parameter, "error", err)
}
