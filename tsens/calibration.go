// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tsens

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/GermanBionicSystems/tempsensor/efuse"
)

// CalibrationStore is the one-time-programmable storage holding the
// factory trim. It is implemented by *efuse.Store.
type CalibrationStore interface {
	CalibrationVersion() (uint32, error)
	SignedTrim(idx efuse.Index) (int32, error)
}

// calibration memoizes the offset read from a CalibrationStore. eFuse
// content cannot change, so the value is read at most once successfully.
type calibration struct {
	store CalibrationStore
	mu    sync.Mutex
	// bits holds the float64 bits of the offset, NaN until resolved.
	bits atomic.Uint64
}

func newCalibration(store CalibrationStore) *calibration {
	c := &calibration{store: store}
	c.bits.Store(math.Float64bits(math.NaN()))
	return c
}

// resolve returns the offset in degrees, reading the store on first use.
// A read error is returned and the next call tries again.
func (c *calibration) resolve() (float64, error) {
	if v := math.Float64frombits(c.bits.Load()); !math.IsNaN(v) {
		return v, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v := math.Float64frombits(c.bits.Load()); !math.IsNaN(v) {
		return v, nil
	}
	v, err := c.read()
	if err != nil {
		return 0, err
	}
	c.bits.Store(math.Float64bits(v))
	return v, nil
}

func (c *calibration) read() (float64, error) {
	if c.store == nil {
		return 0, nil
	}
	version, err := c.store.CalibrationVersion()
	if err != nil {
		return 0, fmt.Errorf("tsens: calibration version: %w", err)
	}
	if version != 1 && version != 2 {
		// Not calibrated.
		return 0, nil
	}
	trim, err := c.store.SignedTrim(efuse.TempSensor)
	if err != nil {
		return 0, fmt.Errorf("tsens: calibration trim: %w", err)
	}
	return float64(trim) / 10, nil
}
