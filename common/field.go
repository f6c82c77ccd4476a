// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package common contains register helpers used across multiple packages.
// Peripheral registers are reached through an mmr.Dev8: a one byte register
// index followed by the register value.
package common

import (
	"periph.io/x/conn/v3/mmr"
)

// Field is a bit field inside a register.
type Field struct {
	Reg   uint8
	Shift uint8
	Width uint8
}

// Mask returns the in-place mask of the field.
func (f Field) Mask() uint32 {
	return (uint32(1)<<f.Width - 1) << f.Shift
}

// Extract returns the field value from a register word.
func (f Field) Extract(word uint32) uint32 {
	return (word & f.Mask()) >> f.Shift
}

// Insert returns word with the field replaced by v. Bits of v that do not
// fit in the field are dropped.
func (f Field) Insert(word, v uint32) uint32 {
	return word&^f.Mask() | (v<<f.Shift)&f.Mask()
}

// Read reads the field from a 32 bit register.
func (f Field) Read(d *mmr.Dev8) (uint32, error) {
	w, err := d.ReadUint32(f.Reg)
	if err != nil {
		return 0, err
	}
	return f.Extract(w), nil
}

// Write does a read-modify-write of the field in a 32 bit register.
func (f Field) Write(d *mmr.Dev8, v uint32) error {
	w, err := d.ReadUint32(f.Reg)
	if err != nil {
		return err
	}
	return d.WriteUint32(f.Reg, f.Insert(w, v))
}

// Read8 reads the field from an 8 bit register.
func (f Field) Read8(d *mmr.Dev8) (uint8, error) {
	b, err := d.ReadUint8(f.Reg)
	if err != nil {
		return 0, err
	}
	return uint8(f.Extract(uint32(b))), nil
}

// Write8 does a read-modify-write of the field in an 8 bit register.
func (f Field) Write8(d *mmr.Dev8, v uint8) error {
	b, err := d.ReadUint8(f.Reg)
	if err != nil {
		return err
	}
	return d.WriteUint8(f.Reg, uint8(f.Insert(uint32(b), uint32(v))))
}

// SetBits sets mask in a 32 bit register.
func SetBits(d *mmr.Dev8, reg uint8, mask uint32) error {
	w, err := d.ReadUint32(reg)
	if err != nil {
		return err
	}
	return d.WriteUint32(reg, w|mask)
}

// ClearBits clears mask in a 32 bit register.
func ClearBits(d *mmr.Dev8, reg uint8, mask uint32) error {
	w, err := d.ReadUint32(reg)
	if err != nil {
		return err
	}
	return d.WriteUint32(reg, w&^mask)
}

// SignMagnitude decodes a sign-magnitude value of the given width, where
// the most significant bit is the sign.
func SignMagnitude(v uint32, bits uint8) int32 {
	if bits == 0 {
		return 0
	}
	sign := uint32(1) << (bits - 1)
	mag := int32(v & (sign - 1))
	if v&sign != 0 {
		return -mag
	}
	return mag
}
