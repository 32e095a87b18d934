package hardware

import (
	"context"
	"fmt"
	"math/rand"

	"periph.io/x/conn/v3/i2c"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/store"
)

// UpsDevice abstracts the actual UPS HAT chip so a simulator can stand in
// when no I²C bus is present, supporting partial-hardware tolerance.
type UpsDevice interface {
	Read(ctx context.Context) (store.UpsSample, error)
	Close() error
}

// I2CUps reads battery telemetry from a UPS HAT register layout typical
// of Raspberry Pi UPS boards (INA219/INA226-family fuel gauge): voltage
// and current as big-endian register pairs, state-of-charge as a single
// byte register.
type I2CUps struct {
	dev  *i2c.Dev
	addr uint16
}

const (
	regVoltage = 0x02
	regCurrent = 0x04
	regSoc     = 0x06
)

// NewI2CUps wraps an opened i2c.Bus at addr.
func NewI2CUps(bus i2c.Bus, addr uint16) *I2CUps {
	return &I2CUps{dev: &i2c.Dev{Addr: addr, Bus: bus}, addr: addr}
}

func (u *I2CUps) Read(_ context.Context) (store.UpsSample, error) {
	voltage, err := u.readRegister16(regVoltage)
	if err != nil {
		return store.UpsSample{}, classify.New(classify.Retryable, fmt.Errorf("hardware: reading UPS voltage register: %w", err))
	}

	current, err := u.readRegister16(regCurrent)
	if err != nil {
		return store.UpsSample{}, classify.New(classify.Retryable, fmt.Errorf("hardware: reading UPS current register: %w", err))
	}

	soc, err := u.readRegister16(regSoc)
	if err != nil {
		return store.UpsSample{}, classify.New(classify.Retryable, fmt.Errorf("hardware: reading UPS SoC register: %w", err))
	}

	source := store.PowerBattery
	if int16(current) >= 0 {
		source = store.PowerMains
	}

	return store.UpsSample{
		VoltageMv:       int(voltage),
		CurrentMaSigned: int(int16(current)),
		SocPct:          int(soc) / 256,
		Source:          source,
	}, nil
}

func (u *I2CUps) readRegister16(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := u.dev.Tx([]byte{reg}, buf); err != nil {
		return 0, err
	}

	return uint16(buf[0])<<8 | uint16(buf[1]), nil
}

func (u *I2CUps) Close() error {
	return nil
}

// SimUps generates plausible battery telemetry for development and CI
// where no UPS HAT is attached.
type SimUps struct {
	rng *rand.Rand
	soc int
}

// NewSimUps creates a SimUps starting at a full charge.
func NewSimUps(seed int64) *SimUps {
	return &SimUps{rng: rand.New(rand.NewSource(seed)), soc: 100}
}

func (s *SimUps) Read(_ context.Context) (store.UpsSample, error) {
	if s.soc > 0 && s.rng.Intn(20) == 0 {
		s.soc--
	}

	source := store.PowerMains
	current := 50 + s.rng.Intn(20)

	if s.soc < 100 {
		source = store.PowerBattery
		current = -(200 + s.rng.Intn(50))
	}

	return store.UpsSample{
		VoltageMv:       11800 + s.rng.Intn(400),
		CurrentMaSigned: current,
		SocPct:          s.soc,
		Source:          source,
	}, nil
}

func (s *SimUps) Close() error {
	return nil
}
