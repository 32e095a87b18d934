// Package hardware implements HardwareSup: UPS battery telemetry and
// shutdown-button monitoring, tolerant of either subdevice being absent.
package hardware

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/obdsentry/obdsentryd/internal/display"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// ShutdownRequest is sent on Sup's Shutdown channel when either the
// battery has dropped to the configured low-SoC threshold or the button
// has been held for the configured long-press duration.
type ShutdownRequest struct {
	Reason string
}

// Sup supervises the UPS and button subdevices concurrently, feeding
// battery telemetry to the Store and Display and surfacing shutdown
// requests on a channel the orchestrator selects on.
type Sup struct {
	ups       UpsDevice
	button    Button
	indicator AlertIndicator
	store     *store.Store
	display   display.Display
	logger    *slog.Logger
	tracker   *tracker

	pollInterval  time.Duration
	longPressHold time.Duration
	lowSocPct     int

	belowThreshold bool
	lastSource     store.PowerSource
	haveSource     bool

	Shutdown           chan ShutdownRequest
	PowerSourceChanged chan store.PowerSource
}

// Config holds Sup's tunables, sourced from config.HardwareConfig.
type Config struct {
	PollInterval  time.Duration
	LongPressHold time.Duration
	LowSocPct     int
	MaxBackoff    time.Duration
}

// New creates a Sup. Pass hardware.NoButton{} or a nil-safe UpsDevice
// stand-in (SimUps) when the corresponding physical subdevice is absent,
// and hardware.NoIndicator{} when no alert LED/haptic pin is configured.
func New(ups UpsDevice, button Button, indicator AlertIndicator, s *store.Store, disp display.Display, cfg Config, logger *slog.Logger) *Sup {
	return &Sup{
		ups:           ups,
		button:        button,
		indicator:     indicator,
		store:         s,
		display:       disp,
		logger:        logger,
		tracker:       newTracker(cfg.MaxBackoff, logger),
		pollInterval:       cfg.PollInterval,
		longPressHold:      cfg.LongPressHold,
		lowSocPct:          cfg.LowSocPct,
		Shutdown:           make(chan ShutdownRequest, 1),
		PowerSourceChanged: make(chan store.PowerSource, 1),
	}
}

// NotifyAlert feeds a fired alert to the optional LED/haptic indicator.
// HardwareSup is not otherwise on the reading/alert routing path — this
// is its sole entry point for AlertEngine output.
func (s *Sup) NotifyAlert(evt store.AlertEvent) {
	s.indicator.Notify(evt)
}

// Run polls both subdevices until ctx is canceled. Either subdevice
// failing does not stop the other — each runs its own backoff-governed
// loop inside the errgroup.
func (s *Sup) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.runUps(ctx)

		return nil
	})

	g.Go(func() error {
		s.runButton(ctx)

		return nil
	})

	return g.Wait()
}

func (s *Sup) runUps(ctx context.Context) {
	interval := s.pollInterval

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}

		sample, err := s.ups.Read(ctx)
		if err != nil {
			interval = s.tracker.recordFailure("ups", s.pollInterval, err)

			continue
		}

		if next := s.tracker.recordSuccess("ups"); next > 0 {
			interval = next
		}

		sample.Ts = time.Now().UnixMilli()

		if err := s.store.AppendUpsSample(ctx, sample); err != nil {
			s.logger.Warn("hardware: appending UPS sample failed", "error", err)
		}

		s.display.ShowBattery(sample.SocPct, sample.Source)

		if s.haveSource && sample.Source != s.lastSource {
			select {
			case s.PowerSourceChanged <- sample.Source:
			default:
			}
		}

		s.lastSource = sample.Source
		s.haveSource = true

		// low_battery is edge-triggered on the crossing, not re-fired every
		// sample the SoC stays below threshold.
		crossed := sample.SocPct <= s.lowSocPct
		if crossed && !s.belowThreshold {
			select {
			case s.Shutdown <- ShutdownRequest{Reason: "low battery"}:
			default:
			}
		}

		s.belowThreshold = crossed
	}
}

func (s *Sup) runButton(ctx context.Context) {
	for {
		pressed, err := s.button.WaitForLongPress(ctx, s.longPressHold)
		if err != nil {
			s.logger.Warn("hardware: button watch failed", "error", err)

			return
		}

		if ctx.Err() != nil {
			return
		}

		if pressed {
			select {
			case s.Shutdown <- ShutdownRequest{Reason: "button held"}:
			default:
			}
		}
	}
}
