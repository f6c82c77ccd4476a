// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sarpwr manages the power of the analog temperature sensor block.
//
// The block is shared: every user acquires it before use and releases it
// after. The hardware is only switched on the first Acquire and off on the
// last Release.
package sarpwr

import (
	"encoding/binary"
	"fmt"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/mmr"

	"github.com/GermanBionicSystems/tempsensor/common"
)

var powerBits = common.TsensPowerUp.Mask() | common.TsensPowerUpForce.Mask()

// Domain is a reference counted power switch. It is safe for concurrent use.
type Domain struct {
	mu   sync.Mutex
	d    mmr.Dev8
	refs int
}

// New returns a Domain driving the power bits of the SAR register window c.
func New(c conn.Conn) *Domain {
	return &Domain{d: mmr.Dev8{Conn: c, Order: binary.LittleEndian}}
}

// Acquire takes a reference, powering the block up if it was the first.
func (p *Domain) Acquire() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refs == 0 {
		if err := common.SetBits(&p.d, common.TsensPowerUp.Reg, powerBits); err != nil {
			return fmt.Errorf("sarpwr: power up: %w", err)
		}
	}
	p.refs++
	return nil
}

// Release drops a reference, powering the block down if it was the last.
// Releasing with no reference held does nothing.
func (p *Domain) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.refs {
	case 0:
		return nil
	case 1:
		if err := common.ClearBits(&p.d, common.TsensPowerUp.Reg, powerBits); err != nil {
			return fmt.Errorf("sarpwr: power down: %w", err)
		}
	}
	p.refs--
	return nil
}

// Refs returns the number of references held.
func (p *Domain) Refs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.refs
}

func (p *Domain) String() string {
	return fmt.Sprintf("sarpwr{%s}", p.d.Conn)
}
