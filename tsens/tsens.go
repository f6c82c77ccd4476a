// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tsens

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/mmr"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/tempsensor/common"
	"github.com/GermanBionicSystems/tempsensor/sarpwr"
)

var (
	// ErrInvalidArgument is returned for a configuration the hardware can't
	// hold.
	ErrInvalidArgument = errors.New("tsens: invalid argument")
	// ErrInvalidState is returned when reading a sensor that is not started,
	// or when a reading falls outside of -40°C ~ 125°C.
	ErrInvalidState = errors.New("tsens: invalid state")
	// ErrTimeout is returned by the bounded pollers.
	ErrTimeout = errors.New("tsens: conversion timeout")
)

// xpdWait is the number of 8MHz cycles from power up to reset enable.
const xpdWait = 0xff

// PowerDomain is the shared analog power the sensor needs while running.
// Implementations must count references. *sarpwr.Domain is one.
type PowerDomain interface {
	Acquire() error
	Release() error
}

// RawReader returns a converted but uncalibrated reading, in degrees, and
// whether the active range was changed to take it.
type RawReader interface {
	ReadRawValue() (value int16, rangeChanged bool, err error)
}

// Config is the sensor configuration.
type Config struct {
	Range Range
	// ClockDivider divides the sensor state machine clock, 1 ~ 255.
	ClockDivider int
	// DAC is the DAC register value as read by GetConfig. SetConfig ignores
	// it.
	DAC uint8
}

// DefaultConfig is the configuration the sensor has out of reset.
var DefaultConfig = Config{Range: RangeL2, ClockDivider: 6}

// Opts holds the options of a Dev. The zero value of each field selects its
// default.
type Opts struct {
	// Power defaults to a sarpwr.Domain on the register window.
	Power PowerDomain
	// Calibration is the trim source. nil means the chip is uncalibrated.
	Calibration CalibrationStore
	// Raw defaults to the auto-ranging reader of the Dev.
	Raw RawReader
	// Poll defaults to Spin.
	Poll Poller
	// Logger defaults to log.Default().
	Logger *log.Logger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{Poll: Spin}

// Dev is a handle to the temperature sensor.
type Dev struct {
	regs   mmr.Dev8
	analog mmr.Dev8
	opts   Opts
	cal    *calibration
	auto   autoRange

	mu sync.Mutex
	// conv serializes conversions. It exists between Start and Stop.
	conv *sync.Mutex
	last Config
}

// New returns a Dev using the SAR register window regs and the internal
// analog I²C bus. It doesn't touch the hardware. opts can be nil.
func New(regs conn.Conn, analog i2c.Bus, opts *Opts) (*Dev, error) {
	if regs == nil || analog == nil {
		return nil, fmt.Errorf("%w: nil bus", ErrInvalidArgument)
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{
		regs:   mmr.Dev8{Conn: regs, Order: binary.LittleEndian},
		analog: mmr.Dev8{Conn: &i2c.Dev{Bus: analog, Addr: common.RegI2CSarADC}, Order: binary.LittleEndian},
		opts:   *opts,
		cal:    newCalibration(opts.Calibration),
		last:   DefaultConfig,
	}
	d.auto = autoRange{d: d, r: DefaultConfig.Range}
	if d.opts.Power == nil {
		d.opts.Power = sarpwr.New(regs)
	}
	if d.opts.Raw == nil {
		d.opts.Raw = &d.auto
	}
	if d.opts.Poll == nil {
		d.opts.Poll = Spin
	}
	if d.opts.Logger == nil {
		d.opts.Logger = log.Default()
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("tsens{%s}", d.regs.Conn)
}

// SetConfig programs the range and clock divider and resets the sensor.
// It doesn't require the sensor to be started.
func (d *Dev) SetConfig(c Config) error {
	desc, ok := Lookup(c.Range)
	if !ok {
		return fmt.Errorf("%w: range %s", ErrInvalidArgument, c.Range)
	}
	if c.ClockDivider < 1 || c.ClockDivider > 255 {
		return fmt.Errorf("%w: clock divider %d", ErrInvalidArgument, c.ClockDivider)
	}
	if err := d.enableAnalogI2C(); err != nil {
		return wrap("set config", err)
	}
	if err := common.TsensDAC.Write8(&d.analog, desc.DAC); err != nil {
		return wrap("set config", err)
	}
	if err := common.TsensClkDiv.Write(&d.regs, uint32(c.ClockDivider)); err != nil {
		return wrap("set config", err)
	}
	if err := common.TsensXpdWait.Write(&d.regs, xpdWait); err != nil {
		return wrap("set config", err)
	}
	if err := common.TsensReset.Write(&d.regs, 1); err != nil {
		return wrap("set config", err)
	}
	if err := common.TsensReset.Write(&d.regs, 0); err != nil {
		return wrap("set config", err)
	}
	d.auto.setRange(c.Range)
	d.mu.Lock()
	d.last = Config{Range: c.Range, ClockDivider: c.ClockDivider, DAC: desc.DAC}
	d.mu.Unlock()
	d.opts.Logger.Printf("tsens: config temperature range [%d°C ~ %d°C], error < %d°C",
		desc.MinCelsius, desc.MaxCelsius, desc.MaxErrorCelsius)
	return nil
}

// GetConfig reads the configuration back from the hardware. A DAC value
// matching no range is reported as RangeUnknown, with the value in
// Config.DAC.
func (d *Dev) GetConfig() (Config, error) {
	if err := d.enableAnalogI2C(); err != nil {
		return Config{}, wrap("get config", err)
	}
	dac, err := common.TsensDAC.Read8(&d.analog)
	if err != nil {
		return Config{}, wrap("get config", err)
	}
	div, err := common.TsensClkDiv.Read(&d.regs)
	if err != nil {
		return Config{}, wrap("get config", err)
	}
	r, _ := LookupDAC(dac)
	return Config{Range: r, ClockDivider: int(div), DAC: dac}, nil
}

// Start powers the sensor up. Calling Start on a running sensor keeps its
// conversion lock. The sensor is only marked running once every step
// succeeded.
func (d *Dev) Start() error {
	if err := d.opts.Power.Acquire(); err != nil {
		return wrap("start", err)
	}
	if err := d.enableClock(); err != nil {
		_ = d.opts.Power.Release()
		return wrap("start", err)
	}
	d.mu.Lock()
	if d.conv == nil {
		d.conv = &sync.Mutex{}
	}
	d.mu.Unlock()
	return nil
}

func (d *Dev) enableClock() error {
	if err := common.TsensDumpOut.Write(&d.regs, 0); err != nil {
		return err
	}
	return common.TsensClkGateEn.Write(&d.regs, 1)
}

// Stop powers the sensor down. The power domain is released even if the
// sensor was not started. Every step is run; the first error is returned.
func (d *Dev) Stop() error {
	err := d.opts.Power.Release()
	if err2 := common.TsensClkGateEn.Write(&d.regs, 0); err == nil {
		err = err2
	}
	d.mu.Lock()
	d.conv = nil
	d.mu.Unlock()
	if err != nil {
		return wrap("stop", err)
	}
	return nil
}

// Halt implements conn.Resource. It stops the sensor.
func (d *Dev) Halt() error {
	return d.Stop()
}

// Running reports whether the sensor is between Start and Stop.
func (d *Dev) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conv != nil
}

// ReadRaw triggers a conversion and returns the raw sensor code.
// Conversions are serialized; ReadRaw blocks until the previous one is done.
// The dump out trigger is cleared on every return once it was set.
func (d *Dev) ReadRaw() (out uint32, err error) {
	d.mu.Lock()
	conv := d.conv
	d.mu.Unlock()
	if conv == nil {
		return 0, fmt.Errorf("%w: sensor not started", ErrInvalidState)
	}
	conv.Lock()
	defer conv.Unlock()

	if err := common.TsensDumpOut.Write(&d.regs, 1); err != nil {
		return 0, wrap("read", err)
	}
	defer func() {
		if err2 := common.TsensDumpOut.Write(&d.regs, 0); err2 != nil && err == nil {
			out, err = 0, wrap("read", err2)
		}
	}()
	err = d.opts.Poll(func() (bool, error) {
		v, err := common.TsensReady.Read(&d.regs)
		return v == 1, err
	})
	if err != nil {
		return 0, wrap("read", err)
	}
	if out, err = common.TsensOut.Read(&d.regs); err != nil {
		return 0, wrap("read", err)
	}
	return out, nil
}

// ReadCelsius returns a calibrated reading.
func (d *Dev) ReadCelsius() (float32, error) {
	if _, err := d.GetConfig(); err != nil {
		return 0, err
	}
	v, changed, err := d.opts.Raw.ReadRawValue()
	if err != nil {
		return 0, err
	}
	offset, err := d.cal.resolve()
	if err != nil {
		return 0, err
	}
	c := float64(v) - offset/10
	if c < minCelsius || c > maxCelsius {
		d.opts.Logger.Printf("tsens: %.2f°C exceeds temperature measure range", c)
		return 0, fmt.Errorf("%w: %.2f°C out of range", ErrInvalidState, c)
	}
	if changed {
		// The value is already taken; only the snapshot is refreshed.
		if cfg, err := d.GetConfig(); err != nil {
			d.opts.Logger.Printf("tsens: range changed, refresh failed: %v", err)
		} else {
			d.mu.Lock()
			d.last = cfg
			d.mu.Unlock()
			d.opts.Logger.Printf("tsens: range changed to %s", cfg.Range)
		}
	}
	return float32(c), nil
}

// CalibrationOffset returns the factory trim in degrees, reading it if
// needed.
func (d *Dev) CalibrationOffset() (float64, error) {
	return d.cal.resolve()
}

// LastConfig returns the configuration last written or observed after a
// range change.
func (d *Dev) LastConfig() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// Sense reads the temperature into env.Temperature. Pressure and humidity
// are left untouched.
func (d *Dev) Sense(env *physic.Env) error {
	c, err := d.ReadCelsius()
	if err != nil {
		return err
	}
	env.Temperature = physic.ZeroCelsius + physic.Temperature(float64(c)*float64(physic.Kelvin))
	return nil
}

// Precision returns the resolution of one raw code.
func (d *Dev) Precision(env *physic.Env) {
	env.Temperature = 438600 * physic.MicroKelvin
	env.Pressure = 0
	env.Humidity = 0
}

// enableAnalogI2C powers the analog I²C path to the SAR ADC block.
func (d *Dev) enableAnalogI2C() error {
	if err := common.ClearBits(&d.regs, common.RegAnaConf, common.SarI2CForcePD); err != nil {
		return err
	}
	if err := common.SetBits(&d.regs, common.RegAnaConf, common.SarI2CForcePU); err != nil {
		return err
	}
	if err := common.ClearBits(&d.regs, common.RegAnaConfig, common.I2CSar); err != nil {
		return err
	}
	return common.SetBits(&d.regs, common.RegAnaConfig2, common.AnaSarCfg2)
}

func wrap(op string, err error) error {
	return fmt.Errorf("tsens: %s: %w", op, err)
}

var _ conn.Resource = &Dev{}
