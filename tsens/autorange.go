// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tsens

import (
	"math"
	"sync"

	"github.com/GermanBionicSystems/tempsensor/common"
)

// Conversion factors from a raw code to degrees.
const (
	adcFactor    = 0.4386
	dacFactor    = 27.88
	offsetFactor = 20.52
)

// autoRange is the default RawReader. When a reading falls outside of the
// active range, it switches to the most accurate range containing it and
// reads again.
type autoRange struct {
	d  *Dev
	mu sync.Mutex
	r  Range
}

func (a *autoRange) setRange(r Range) {
	a.mu.Lock()
	a.r = r
	a.mu.Unlock()
}

func (a *autoRange) ReadRawValue() (int16, bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	desc := ranges[a.r]
	raw, err := a.d.ReadRaw()
	if err != nil {
		return 0, false, err
	}
	v := convert(raw, desc.Offset)
	if desc.Contains(float64(v)) {
		return v, false, nil
	}
	next, ok := bestRange(float64(v))
	if !ok || next == a.r {
		return v, false, nil
	}
	desc = ranges[next]
	if err := common.TsensDAC.Write8(&a.d.analog, desc.DAC); err != nil {
		return 0, false, wrap("auto range", err)
	}
	a.r = next
	if raw, err = a.d.ReadRaw(); err != nil {
		return 0, false, err
	}
	return convert(raw, desc.Offset), true, nil
}

// convert returns the uncalibrated temperature of a raw code read with the
// DAC range of the given offset.
func convert(raw uint32, offset int8) int16 {
	return int16(math.Round(adcFactor*float64(raw) - dacFactor*float64(offset) - offsetFactor))
}
