package obd

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/obdsentry/obdsentryd/internal/classify"
)

// paramUnit maps a parameter name to the unit the simulator reports for it.
// The serial implementation's response parser sets its units itself.
var paramUnit = map[string]string{
	"RPM":          "rpm",
	"SPEED":        "km/h",
	"COOLANT_TEMP": "celsius",
	"THROTTLE_POS": "percent",
}

// Simulator stands in for a real dongle, driving a simple sinusoidal drive
// cycle so DriveDetector and AlertEngine have something realistic to react
// to in tests and demos.
type Simulator struct {
	rng     *rand.Rand
	baseRPM float64
	start   time.Time
	state   State
}

// NewSimulator creates a Simulator seeded for deterministic playback.
func NewSimulator(seed int64, baseRPM float64) *Simulator {
	if baseRPM <= 0 {
		baseRPM = 800
	}

	return &Simulator{
		rng:     rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test fixture, not a security primitive
		baseRPM: baseRPM,
	}
}

func (s *Simulator) Connect(_ context.Context, _ int) error {
	s.start = time.Now()
	s.state = StateConnected

	return nil
}

func (s *Simulator) Disconnect(_ context.Context) error {
	s.state = StateDisconnected

	return nil
}

func (s *Simulator) State() State {
	return s.state
}

func (s *Simulator) Query(_ context.Context, parameter string) (Sample, error) {
	if s.state != StateConnected {
		return Sample{}, classify.New(classify.Retryable, fmt.Errorf("obd: simulator not connected"))
	}

	unit, ok := paramUnit[parameter]
	if !ok {
		return Sample{}, classify.New(classify.Data, &ErrUnsupportedParameter{Parameter: parameter})
	}

	elapsed := time.Since(s.start).Seconds()
	noise := s.rng.Float64()*20 - 10

	var value float64

	switch parameter {
	case "RPM":
		value = s.baseRPM + 400*math.Sin(elapsed/5) + noise
	case "SPEED":
		value = math.Max(0, 60+30*math.Sin(elapsed/8)+noise)
	case "COOLANT_TEMP":
		value = math.Min(95, 20+elapsed*0.5)
	case "THROTTLE_POS":
		value = math.Max(0, 20+15*math.Sin(elapsed/3)+noise)
	}

	return Sample{Parameter: parameter, Value: value, Unit: unit}, nil
}
