// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package efuse reads the factory calibration values burnt into the
// one-time-programmable eFuse blocks of an ESP32-S2.
//
// Only the fields needed by the analog peripherals are decoded: the
// calibration table version and the signed trim values that go with it.
package efuse

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/mmr"

	"github.com/GermanBionicSystems/tempsensor/common"
)

// Index selects a calibration value in the RTC calibration table.
type Index int

const (
	// TempSensor is the temperature sensor trim, in tenths of a degree.
	TempSensor Index = iota
)

func (i Index) String() string {
	switch i {
	case TempSensor:
		return "TempSensor"
	default:
		return fmt.Sprintf("Index(%d)", int(i))
	}
}

// ErrUnknownIndex is returned by SignedTrim for an index without a field.
var ErrUnknownIndex = errors.New("efuse: unknown calibration index")

// Register offsets of the read-back data words, relative to the eFuse
// controller base.
const (
	regBlk1Data0 uint8 = 0x44
	regBlk2Data0 uint8 = 0x5c
)

// versionField holds BLK_VERSION_MINOR, BLK1 bit 132.
var versionField = common.Field{Reg: regBlk1Data0 + 4*4, Shift: 4, Width: 3}

// trimFields maps each index to its sign-magnitude field in BLK2.
var trimFields = map[Index]common.Field{
	TempSensor: {Reg: regBlk2Data0 + 4*4, Shift: 7, Width: 9},
}

// Store reads calibration values from the eFuse controller.
type Store struct {
	mu sync.Mutex
	d  mmr.Dev8
}

// New returns a Store that reads the eFuse controller registers through c.
func New(c conn.Conn) *Store {
	return &Store{d: mmr.Dev8{Conn: c, Order: binary.LittleEndian}}
}

// CalibrationVersion returns the version of the RTC calibration table. 0
// means the chip was never calibrated.
func (s *Store) CalibrationVersion() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := versionField.Read(&s.d)
	if err != nil {
		return 0, fmt.Errorf("efuse: read version: %w", err)
	}
	return v, nil
}

// SignedTrim returns the decoded calibration value for idx.
func (s *Store) SignedTrim(idx Index) (int32, error) {
	f, ok := trimFields[idx]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownIndex, idx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := f.Read(&s.d)
	if err != nil {
		return 0, fmt.Errorf("efuse: read %s: %w", idx, err)
	}
	return common.SignMagnitude(v, f.Width), nil
}

func (s *Store) String() string {
	return fmt.Sprintf("efuse{%s}", s.d.Conn)
}
