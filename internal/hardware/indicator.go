package hardware

import (
	"log/slog"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/obdsentry/obdsentryd/internal/store"
)

// alertPulseDuration is how long the indicator pin stays driven high
// after an alert before resetting low.
const alertPulseDuration = 300 * time.Millisecond

// AlertIndicator abstracts the optional LED/haptic feedback device that
// pulses when AlertEngine fires an alert. A no-op stand-in serves when no
// GPIO pin is configured.
type AlertIndicator interface {
	Notify(evt store.AlertEvent)
}

// GpioIndicator drives a GPIO output pin high briefly on each alert —
// wired to an LED or haptic motor depending on the board.
type GpioIndicator struct {
	pin    gpio.PinOut
	logger *slog.Logger
}

// NewGpioIndicator wraps pin, configured by the caller as a digital output.
func NewGpioIndicator(pin gpio.PinOut, logger *slog.Logger) *GpioIndicator {
	return &GpioIndicator{pin: pin, logger: logger}
}

func (g *GpioIndicator) Notify(evt store.AlertEvent) {
	if err := g.pin.Out(gpio.High); err != nil {
		g.logger.Warn("hardware: alert indicator pulse failed", "threshold_id", evt.ThresholdID, "error", err)

		return
	}

	go func() {
		time.Sleep(alertPulseDuration)

		if err := g.pin.Out(gpio.Low); err != nil {
			g.logger.Warn("hardware: alert indicator reset failed", "error", err)
		}
	}()
}

// NoIndicator is the always-absent stand-in when no GPIO pin is
// configured for alert feedback.
type NoIndicator struct{}

func (NoIndicator) Notify(store.AlertEvent) {}
