// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tempsensor is a container for the on-die temperature sensor
// driver and its collaborators.
//
// The driver itself lives in package tsens.
package tempsensor
