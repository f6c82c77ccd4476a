// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tsens

import (
	"time"
)

// Poller waits for a conversion to complete. It calls ready until it
// reports true and returns nil, or returns the first error.
type Poller func(ready func() (bool, error)) error

// Spin polls without bound. If the hardware never reports ready, it never
// returns.
func Spin(ready func() (bool, error)) error {
	for {
		ok, err := ready()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
}

// PollBounded returns a Poller that gives up with ErrTimeout after n polls.
func PollBounded(n int) Poller {
	return func(ready func() (bool, error)) error {
		for i := 0; i < n; i++ {
			ok, err := ready()
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
		return ErrTimeout
	}
}

// PollTimeout returns a Poller that gives up with ErrTimeout once d has
// elapsed. ready is polled at least once.
func PollTimeout(d time.Duration) Poller {
	return func(ready func() (bool, error)) error {
		end := time.Now().Add(d)
		for {
			ok, err := ready()
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
			if !time.Now().Before(end) {
				return ErrTimeout
			}
		}
	}
}
