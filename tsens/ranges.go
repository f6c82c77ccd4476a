// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tsens

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
)

// Range selects one of the DAC ranges of the sensor.
type Range uint8

const (
	RangeL0 Range = iota
	RangeL1
	RangeL2
	RangeL3
	RangeL4

	// RangeUnknown is reported by GetConfig when the DAC holds a value that
	// matches no range, for example when it was set outside this driver.
	RangeUnknown Range = 0xff
)

func (r Range) String() string {
	if r < Range(len(ranges)) {
		return fmt.Sprintf("L%d", uint8(r))
	}
	if r == RangeUnknown {
		return "Unknown"
	}
	return fmt.Sprintf("Range(%d)", uint8(r))
}

// RangeDescriptor describes a DAC range.
type RangeDescriptor struct {
	Range Range
	// Offset is the select code of the range, used by the raw conversion.
	Offset int8
	// DAC is the value written to the DAC calibration register.
	DAC             uint8
	MinCelsius      int
	MaxCelsius      int
	MaxErrorCelsius int
}

// Contains reports whether c lies in the span of the range.
func (r RangeDescriptor) Contains(c float64) bool {
	return c >= float64(r.MinCelsius) && c <= float64(r.MaxCelsius)
}

// Span returns the bounds of the range.
func (r RangeDescriptor) Span() (lo, hi physic.Temperature) {
	return physic.ZeroCelsius + physic.Temperature(r.MinCelsius)*physic.Kelvin,
		physic.ZeroCelsius + physic.Temperature(r.MaxCelsius)*physic.Kelvin
}

var ranges = [...]RangeDescriptor{
	//        Range    Offset DAC   min  max error
	{RangeL0, -2, 5, 50, 125, 3},
	{RangeL1, -1, 7, 20, 100, 2},
	{RangeL2, 0, 15, -10, 80, 1},
	{RangeL3, 1, 11, -30, 50, 2},
	{RangeL4, 2, 10, -40, 20, 3},
}

const (
	minCelsius = -40
	maxCelsius = 125

	// MinimumTemperature is the lowest temperature the sensor can report.
	MinimumTemperature physic.Temperature = physic.ZeroCelsius + minCelsius*physic.Kelvin
	// MaximumTemperature is the highest temperature the sensor can report.
	MaximumTemperature physic.Temperature = physic.ZeroCelsius + maxCelsius*physic.Kelvin
)

// Lookup returns the descriptor of r. ok is false if r is not a range of
// the table.
func Lookup(r Range) (d RangeDescriptor, ok bool) {
	if r >= Range(len(ranges)) {
		return RangeDescriptor{}, false
	}
	return ranges[r], true
}

// LookupDAC returns the range programmed by the DAC value v.
func LookupDAC(v uint8) (Range, bool) {
	for _, d := range ranges {
		if d.DAC == v {
			return d.Range, true
		}
	}
	return RangeUnknown, false
}

// Ranges returns a copy of the range table.
func Ranges() []RangeDescriptor {
	out := make([]RangeDescriptor, len(ranges))
	copy(out, ranges[:])
	return out
}

// bestRange returns the most accurate range whose span contains c.
func bestRange(c float64) (Range, bool) {
	best, found := RangeUnknown, false
	for _, d := range ranges {
		if !d.Contains(c) {
			continue
		}
		if !found || d.MaxErrorCelsius < ranges[best].MaxErrorCelsius {
			best, found = d.Range, true
		}
	}
	return best, found
}
