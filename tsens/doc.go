// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tsens drives the on-die analog temperature sensor of the
// Espressif ESP32-S2.
//
// The sensor has five DAC ranges. Each trades measurement span for
// accuracy:
//
//	L0   50°C ~ 125°C   error < 3°C
//	L1   20°C ~ 100°C   error < 2°C
//	L2  -10°C ~  80°C   error < 1°C
//	L3  -30°C ~  50°C   error < 2°C
//	L4  -40°C ~  20°C   error < 3°C
//
// Readings are corrected with the factory trim burnt into eFuse, read once
// on the first conversion.
//
// Digital registers are reached through a register window conn.Conn (see
// package common for the layout) and the DAC through the internal analog
// I²C bus.
package tsens
