// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tsens

import (
	"encoding/binary"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"

	"github.com/GermanBionicSystems/tempsensor/common"
	"github.com/GermanBionicSystems/tempsensor/efuse"
)

// sim simulates the SAR register window and the analog I²C DAC register.
// It records overlapping conversions.
type sim struct {
	mu   sync.Mutex
	regs map[uint8]uint32
	dac  map[uint8]uint8
	// codes are latched by successive conversions, the last one repeats.
	codes []uint8
	// delay is the number of busy polls before ready. <0 is never ready.
	delay       int
	pending     int
	busy        bool
	overlap     bool
	conversions int
}

func newSim(codes ...uint8) *sim {
	return &sim{
		regs:  map[uint8]uint32{},
		dac:   map[uint8]uint8{common.TsensDAC.Reg: 15},
		codes: codes,
		delay: 2,
	}
}

func (s *sim) String() string { return "sim" }
func (s *sim) Duplex() conn.Duplex { return conn.Half }

func (s *sim) Tx(w, r []byte) error {
	// Give other readers a chance to interleave.
	runtime.Gosched()
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case len(w) == 1 && len(r) == 4:
		binary.LittleEndian.PutUint32(r, s.read(w[0]))
	case len(w) == 5 && len(r) == 0:
		s.write(w[0], binary.LittleEndian.Uint32(w[1:]))
	default:
		return fmt.Errorf("sim: unexpected Tx(%#v, %d)", w, len(r))
	}
	return nil
}

func (s *sim) read(reg uint8) uint32 {
	v := s.regs[reg]
	if reg == common.RegTctrl && s.busy && common.TsensReady.Extract(v) == 0 {
		switch {
		case s.pending == 0:
			v = common.TsensOut.Insert(v, uint32(s.nextCode()))
			v = common.TsensReady.Insert(v, 1)
			s.regs[reg] = v
		case s.pending > 0:
			s.pending--
		}
	}
	return v
}

func (s *sim) write(reg uint8, v uint32) {
	old := s.regs[reg]
	s.regs[reg] = v
	if reg != common.RegTctrl {
		return
	}
	was, now := common.TsensDumpOut.Extract(old), common.TsensDumpOut.Extract(v)
	switch {
	case was == 0 && now == 1:
		if s.busy {
			s.overlap = true
		}
		s.busy = true
		s.pending = s.delay
		s.conversions++
		s.regs[reg] = common.TsensReady.Insert(v, 0)
	case was == 1 && now == 0:
		s.busy = false
		s.regs[reg] = common.TsensReady.Insert(v, 0)
	case was == 1 && now == 1:
		// Someone else wrote the register during a conversion.
		s.overlap = true
	}
}

func (s *sim) nextCode() uint8 {
	if len(s.codes) == 0 {
		return 0
	}
	c := s.codes[0]
	if len(s.codes) > 1 {
		s.codes = s.codes[1:]
	}
	return c
}

func (s *sim) field(f common.Field) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f.Extract(s.regs[f.Reg])
}

func (s *sim) dacValue() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dac[common.TsensDAC.Reg]
}

func (s *sim) setDAC(v uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dac[common.TsensDAC.Reg] = v
}

func (s *sim) overlapped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overlap
}

// analog returns the analog I²C bus side of the simulator.
func (s *sim) analog() *simAnalog {
	return &simAnalog{s: s}
}

type simAnalog struct {
	s *sim
}

func (a *simAnalog) String() string { return "sim-analog" }
func (a *simAnalog) SetSpeed(f physic.Frequency) error { return nil }

func (a *simAnalog) Tx(addr uint16, w, r []byte) error {
	if addr != common.RegI2CSarADC {
		return fmt.Errorf("sim: unexpected address 0x%x", addr)
	}
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	switch {
	case len(w) == 1 && len(r) == 1:
		r[0] = a.s.dac[w[0]]
	case len(w) == 2 && len(r) == 0:
		a.s.dac[w[0]] = w[1]
	default:
		return fmt.Errorf("sim: unexpected analog Tx(%#v, %d)", w, len(r))
	}
	return nil
}

// fakeStore is a CalibrationStore whose content can be changed.
type fakeStore struct {
	mu           sync.Mutex
	version      uint32
	trim         int32
	err          error
	versionReads int
}

func (f *fakeStore) CalibrationVersion() (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.versionReads++
	return f.version, f.err
}

func (f *fakeStore) SignedTrim(idx efuse.Index) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if idx != efuse.TempSensor {
		return 0, efuse.ErrUnknownIndex
	}
	return f.trim, f.err
}

func (f *fakeStore) set(version uint32, trim int32, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version, f.trim, f.err = version, trim, err
}

func (f *fakeStore) reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.versionReads
}

// fixedRaw is a RawReader returning a fixed value.
type fixedRaw struct {
	v       int16
	changed bool
}

func (f fixedRaw) ReadRawValue() (int16, bool, error) {
	return f.v, f.changed, nil
}

// countingPower is a PowerDomain counting references, with injectable
// errors.
type countingPower struct {
	refs       int
	acquireErr error
	releaseErr error
}

func (c *countingPower) Acquire() error {
	if c.acquireErr != nil {
		return c.acquireErr
	}
	c.refs++
	return nil
}

func (c *countingPower) Release() error {
	if c.refs > 0 {
		c.refs--
	}
	return c.releaseErr
}

// failWrite fails every write to reg.
type failWrite struct {
	*sim
	reg uint8
}

func (f *failWrite) Tx(w, r []byte) error {
	if len(w) == 5 && w[0] == f.reg {
		return errors.New("bus")
	}
	return f.sim.Tx(w, r)
}

// failOut fails the next fail reads of the output once a conversion is
// ready.
type failOut struct {
	*sim
	fail int
}

func (f *failOut) Tx(w, r []byte) error {
	if len(w) == 1 && len(r) == 4 && w[0] == common.RegTctrl && f.fail > 0 && f.field(common.TsensReady) == 1 {
		f.fail--
		return errors.New("bus")
	}
	return f.sim.Tx(w, r)
}

// failAnalog fails every analog transaction after the first ok ones.
type failAnalog struct {
	*simAnalog
	ok int
}

func (f *failAnalog) Tx(addr uint16, w, r []byte) error {
	if f.ok == 0 {
		return errors.New("bus")
	}
	f.ok--
	return f.simAnalog.Tx(addr, w, r)
}
