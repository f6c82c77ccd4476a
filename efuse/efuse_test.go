// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package efuse

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
)

func TestCalibrationVersion(t *testing.T) {
	for _, test := range []struct {
		name string
		word []byte
		want uint32
	}{
		{name: "uncalibrated", word: []byte{0x00, 0x00, 0x00, 0x00}, want: 0},
		{name: "v1", word: []byte{0x10, 0x00, 0x00, 0x00}, want: 1},
		{name: "v2 with neighbours", word: []byte{0x2f, 0xff, 0xff, 0xff}, want: 2},
	} {
		t.Run(test.name, func(t *testing.T) {
			pb := &conntest.Playback{
				Ops:       []conntest.IO{{W: []byte{0x54}, R: test.word}},
				D:         conn.Half,
				DontPanic: true,
			}
			got, err := New(pb).CalibrationVersion()
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Fatalf("wanted: %d, got: %d", test.want, got)
			}
			if err := pb.Close(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestSignedTrim(t *testing.T) {
	for _, test := range []struct {
		name string
		word []byte
		want int32
	}{
		{name: "positive", word: []byte{0x00, 0x19, 0x00, 0x00}, want: 50},
		{name: "negative", word: []byte{0x00, 0x99, 0x00, 0x00}, want: -50},
		{name: "negative zero", word: []byte{0x7f, 0x80, 0xff, 0xff}, want: 0},
	} {
		t.Run(test.name, func(t *testing.T) {
			pb := &conntest.Playback{
				Ops:       []conntest.IO{{W: []byte{0x6c}, R: test.word}},
				D:         conn.Half,
				DontPanic: true,
			}
			got, err := New(pb).SignedTrim(TempSensor)
			if err != nil {
				t.Fatal(err)
			}
			if got != test.want {
				t.Fatalf("wanted: %d, got: %d", test.want, got)
			}
		})
	}
}

func TestSignedTrimUnknownIndex(t *testing.T) {
	pb := &conntest.Playback{D: conn.Half, DontPanic: true}
	if _, err := New(pb).SignedTrim(Index(42)); !errors.Is(err, ErrUnknownIndex) {
		t.Fatalf("expected ErrUnknownIndex, got: %v", err)
	}
}

func TestReadError(t *testing.T) {
	// An empty playback fails every transaction.
	pb := &conntest.Playback{D: conn.Half, DontPanic: true}
	if _, err := New(pb).CalibrationVersion(); err == nil {
		t.Fatal("expected error")
	}
}
