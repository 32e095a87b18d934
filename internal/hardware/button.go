package hardware

import (
	"context"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/obdsentry/obdsentryd/internal/clock"
)

// Button abstracts the physical shutdown button's GPIO pin so a no-op
// stand-in can serve when no GPIO chip is present.
type Button interface {
	// WaitForLongPress blocks until the pin has been held low continuously
	// for hold, or ctx is canceled. It returns (false, nil) if ctx is
	// canceled before a qualifying press completes.
	WaitForLongPress(ctx context.Context, hold time.Duration) (bool, error)
}

// GpioButton watches a periph.io gpio.PinIO for a sustained low level,
// timed via the Clock component rather than time.Now directly so tests
// can inject a fake clock.
type GpioButton struct {
	pin   gpio.PinIO
	clock clock.Clock
}

// NewGpioButton wraps pin, configured by the caller as an input with a
// pull-up and edge detection on both edges.
func NewGpioButton(pin gpio.PinIO, c clock.Clock) *GpioButton {
	return &GpioButton{pin: pin, clock: c}
}

func (b *GpioButton) WaitForLongPress(ctx context.Context, hold time.Duration) (bool, error) {
	for {
		if !b.pin.WaitForEdge(-1) {
			if ctx.Err() != nil {
				return false, nil
			}

			continue
		}

		if ctx.Err() != nil {
			return false, nil
		}

		if b.pin.Read() != gpio.Low {
			continue
		}

		pressedAt := b.clock.Now()

		for {
			select {
			case <-ctx.Done():
				return false, nil
			case <-b.clock.After(10 * time.Millisecond):
			}

			if b.pin.Read() != gpio.Low {
				break // released before hold elapsed
			}

			if b.clock.Now().Sub(pressedAt) >= hold {
				return true, nil
			}
		}
	}
}

// NoButton is the always-absent stand-in when no GPIO chip is present —
// it never reports a press and only unblocks when ctx is canceled.
type NoButton struct{}

func (NoButton) WaitForLongPress(ctx context.Context, _ time.Duration) (bool, error) {
	<-ctx.Done()

	return false, nil
}
