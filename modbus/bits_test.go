// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPackBits(t *testing.T) {
	tests := []struct {
		name string
		bits []bool
		want []byte
	}{
		{"empty", nil, []byte{0x00}},
		{"single on", []bool{true}, []byte{0x01, 0x01}},
		{"full byte", []bool{true, false, true, true, false, false, true, true}, []byte{0x01, 0xCD}},
		{
			"padded",
			[]bool{
				true, false, true, true, false, false, true, true,
				true, true, false, true, false, true, true, false,
				true, false, true,
			},
			[]byte{0x03, 0xCD, 0x6B, 0x05},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PackBits(tt.bits)
			if err != nil {
				t.Fatalf("PackBits() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("PackBits() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestPackBitsTooLarge(t *testing.T) {
	if _, err := PackBits(make([]bool, 2040)); err != nil {
		t.Fatalf("PackBits(2040) error = %v", err)
	}
	_, err := PackBits(make([]bool, 2041))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("PackBits(2041) error = %v, want %v", err, ErrPayloadTooLarge)
	}
}

func TestUnpackBits(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []bool
	}{
		{"empty", nil, nil},
		{"count only", []byte{0x00}, []bool{}},
		{"one byte", []byte{0x01, 0x05}, []bool{true, false, true, false, false, false, false, false}},
		{"trailing bytes ignored", []byte{0x01, 0x01, 0xFF, 0xFF}, []bool{true, false, false, false, false, false, false, false}},
		{"count beyond input", []byte{0x04, 0x80}, []bool{false, false, false, false, false, false, false, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UnpackBits(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("UnpackBits() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBitsRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for n := 0; n <= ReadBitsQuantityMax; n += 1 + rnd.Intn(17) {
		bits := make([]bool, n)
		for i := range bits {
			bits[i] = rnd.Intn(2) == 1
		}
		packed, err := PackBits(bits)
		if err != nil {
			t.Fatalf("PackBits(%d) error = %v", n, err)
		}
		got := UnpackBits(packed)
		if len(got) < n {
			t.Fatalf("UnpackBits(%d) returned %d bits", n, len(got))
		}
		if diff := cmp.Diff(bits, got[:n]); diff != "" {
			t.Fatalf("round trip of %d bits mismatch (-want +got):\n%s", n, diff)
		}
		for _, pad := range got[n:] {
			if pad {
				t.Fatalf("round trip of %d bits has a set padding bit", n)
			}
		}
	}
}

func TestPackRegisters(t *testing.T) {
	got, err := PackRegisters([]uint16{0x000A, 0x0102})
	if err != nil {
		t.Fatalf("PackRegisters() error = %v", err)
	}
	want := []byte{0x04, 0x00, 0x0A, 0x01, 0x02}
	if !bytes.Equal(got, want) {
		t.Errorf("PackRegisters() = % X, want % X", got, want)
	}

	if _, err := PackRegisters(make([]uint16, 127)); err != nil {
		t.Errorf("PackRegisters(127) error = %v", err)
	}
	if _, err := PackRegisters(make([]uint16, 128)); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("PackRegisters(128) error = %v, want %v", err, ErrPayloadTooLarge)
	}
}

func TestUnpackRegisters(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want []uint16
	}{
		{"empty", nil, nil},
		{"two values", []byte{0x04, 0x00, 0x0A, 0x01, 0x02}, []uint16{0x000A, 0x0102}},
		{"incomplete word", []byte{0x04, 0x00, 0x01, 0x00}, []uint16{0x0001}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, UnpackRegisters(tt.in)); diff != "" {
				t.Errorf("UnpackRegisters() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegistersRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	for n := 0; n <= WriteRegQuantityMax; n++ {
		values := make([]uint16, n)
		for i := range values {
			values[i] = uint16(rnd.Intn(0x10000))
		}
		packed, err := PackRegisters(values)
		if err != nil {
			t.Fatalf("PackRegisters(%d) error = %v", n, err)
		}
		if diff := cmp.Diff(values, UnpackRegisters(packed)); diff != "" {
			t.Fatalf("round trip of %d registers mismatch (-want +got):\n%s", n, diff)
		}
	}
}
