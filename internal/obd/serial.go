package obd

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.bug.st/serial"

	"github.com/obdsentry/obdsentryd/internal/classify"
)

// pidCodes maps a parameter name to its OBD-II mode-01 PID, the minimal
// amount of protocol knowledge this package needs to issue a query — full
// decoding of arbitrary PIDs is the delegated OBD client's job per spec
// §1; obdsentryd only needs the handful of parameters realtimeData names.
var pidCodes = map[string]string{
	"RPM":          "010C",
	"SPEED":        "010D",
	"COOLANT_TEMP": "0105",
	"THROTTLE_POS": "0111",
}

// Serial implements Link over a Bluetooth-serial ELM327-compatible dongle
// using go.bug.st/serial (see DESIGN.md).
type Serial struct {
	mac            string
	connectTimeout time.Duration
	readTimeout    time.Duration

	port  serial.Port
	state State
}

// NewSerial creates a Serial bound to the dongle's rfcomm device path
// (resolved from its Bluetooth MAC by the platform's bluetoothd/rfcomm
// binding — out of scope here, same as OBD-II decoding itself).
func NewSerial(mac string, connectTimeout, readTimeout time.Duration) *Serial {
	return &Serial{mac: mac, connectTimeout: connectTimeout, readTimeout: readTimeout}
}

func (s *Serial) Connect(ctx context.Context, attempt int) error {
	mode := &serial.Mode{BaudRate: 38400}

	port, err := serial.Open(s.mac, mode)
	if err != nil {
		return classify.New(classify.Retryable, fmt.Errorf("obd: opening serial port %s (attempt %d): %w", s.mac, attempt, err))
	}

	if err := port.SetReadTimeout(s.readTimeout); err != nil {
		port.Close()

		return classify.New(classify.System, fmt.Errorf("obd: setting read timeout: %w", err))
	}

	s.port = port

	// ELM327 reset-and-quiet sequence: reset, echo off, linefeeds off.
	for _, cmd := range []string{"ATZ", "ATE0", "ATL0"} {
		if _, err := s.send(ctx, cmd); err != nil {
			port.Close()

			return classify.New(classify.Retryable, fmt.Errorf("obd: initializing dongle with %s: %w", cmd, err))
		}
	}

	s.state = StateConnected

	return nil
}

func (s *Serial) Disconnect(_ context.Context) error {
	s.state = StateDisconnected

	if s.port == nil {
		return nil
	}

	err := s.port.Close()
	s.port = nil

	if err != nil {
		return fmt.Errorf("obd: closing serial port: %w", err)
	}

	return nil
}

func (s *Serial) State() State {
	return s.state
}

func (s *Serial) Query(ctx context.Context, parameter string) (Sample, error) {
	if s.state != StateConnected {
		return Sample{}, classify.New(classify.Retryable, fmt.Errorf("obd: not connected"))
	}

	pid, ok := pidCodes[parameter]
	if !ok {
		return Sample{}, classify.New(classify.Data, &ErrUnsupportedParameter{Parameter: parameter})
	}

	resp, err := s.send(ctx, pid)
	if err != nil {
		return Sample{}, classify.New(classify.Retryable, fmt.Errorf("obd: querying %s: %w", parameter, err))
	}

	value, unit, err := decodeResponse(parameter, resp)
	if err != nil {
		return Sample{}, classify.New(classify.Data, err)
	}

	return Sample{Parameter: parameter, Value: value, Unit: unit}, nil
}

// send writes cmd terminated by \r and reads a single-line response up to
// the dongle's ">" prompt.
func (s *Serial) send(_ context.Context, cmd string) (string, error) {
	if _, err := s.port.Write([]byte(cmd + "\r")); err != nil {
		return "", fmt.Errorf("writing command: %w", err)
	}

	reader := bufio.NewReader(s.port)

	line, err := reader.ReadString('>')
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	return strings.TrimSpace(strings.TrimSuffix(line, ">")), nil
}

// decodeResponse parses a mode-01 hex response ("41 0C 1A F8") into a
// physical value. Only the four parameters in pidCodes are handled; an
// unrecognized parameter is a programmer error, not a runtime Data error,
// since Query already validated it against pidCodes.
func decodeResponse(parameter, resp string) (value float64, unit string, err error) {
	fields := strings.Fields(resp)
	if len(fields) < 3 {
		return 0, "", fmt.Errorf("obd: malformed response %q for %s", resp, parameter)
	}

	a, errA := strconv.ParseUint(fields[2], 16, 8)
	if errA != nil {
		return 0, "", fmt.Errorf("obd: malformed response byte in %q: %w", resp, errA)
	}

	var b uint64
	if len(fields) >= 4 {
		b, err = strconv.ParseUint(fields[3], 16, 8)
		if err != nil {
			return 0, "", fmt.Errorf("obd: malformed response byte in %q: %w", resp, err)
		}
	}

	switch parameter {
	case "RPM":
		if len(fields) < 4 {
			return 0, "", fmt.Errorf("obd: malformed response %q for %s", resp, parameter)
		}

		return (float64(a)*256 + float64(b)) / 4, "rpm", nil
	case "SPEED":
		return float64(a), "km/h", nil
	case "COOLANT_TEMP":
		return float64(a) - 40, "celsius", nil
	case "THROTTLE_POS":
		return float64(a) * 100 / 255, "percent", nil
	default:
		return 0, "", fmt.Errorf("obd: no decoder for parameter %q", parameter)
	}
}
