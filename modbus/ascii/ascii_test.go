// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package ascii

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ffutop/modbus-serial/modbus"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		adu  []byte
		want string
	}{
		{"ReadHoldingRegisters", []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03}, ":1103006B00037E\r\n"},
		{"ReadCoilsResponse", []byte{0x01, 0x01, 0x02, 0xCD, 0x6B}, ":010102CD6BC4\r\n"},
		{"Exception", []byte{0xF7, 0x03, 0x02}, ":F7030204\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCodec().Encode(tt.adu)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Encode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeInvalidLength(t *testing.T) {
	for _, adu := range [][]byte{nil, {0x01}, make([]byte, 255)} {
		if _, err := NewCodec().Encode(adu); !errors.Is(err, modbus.ErrInvalidFrame) {
			t.Errorf("Encode(%d bytes) error = %v, want %v", len(adu), err, modbus.ErrInvalidFrame)
		}
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []byte
	}{
		{"Colon", ":010102CD6BC4\r\n", []byte{0x01, 0x01, 0x02, 0xCD, 0x6B}},
		{"LowerCase", ":010102cd6bc4\r\n", []byte{0x01, 0x01, 0x02, 0xCD, 0x6B}},
		{"AltStart", ">F7030204\r\n", []byte{0xF7, 0x03, 0x02}},
		{"RestartedFrame", ":0103\xff:F7030204\r\n", []byte{0xF7, 0x03, 0x02}},
		{"FirstOfTwo", ":010102CD6BC4\r\n:F7030204\r\n", []byte{0x01, 0x01, 0x02, 0xCD, 0x6B}},
		{"TrailingPartial", ":F7030204\r\n:0103", []byte{0xF7, 0x03, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCodec().Decode([]byte(tt.raw))
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Decode() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"NoStart", "010102CD6BC4\r\n", modbus.ErrInvalidFrame},
		{"NoEnd", ":010102CD6BC4", modbus.ErrInvalidFrame},
		{"TooShort", ":0102\r\n", modbus.ErrInvalidFrame},
		{"OddLength", ":010102CD6BC\r\n", modbus.ErrInvalidFrame},
		{"NotHex", ":01010ZCD6BC4\r\n", modbus.ErrInvalidFrame},
		{"LRC", ":010102CD6BC5\r\n", modbus.ErrChecksumMismatch},
		{"Payload", ":010102CD6AC4\r\n", modbus.ErrChecksumMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewCodec().Decode([]byte(tt.raw)); !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for n := 2; n <= 254; n++ {
		adu := make([]byte, n)
		for i := range adu {
			adu[i] = byte(i*17 + n)
		}
		raw, err := NewCodec().Encode(adu)
		if err != nil {
			t.Fatalf("Encode(%d bytes) error = %v", n, err)
		}
		if len(raw) > MaxSize {
			t.Fatalf("Encode(%d bytes) = %d chars, limit %d", n, len(raw), MaxSize)
		}
		got, err := NewCodec().Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%d bytes) error = %v", n, err)
		}
		if !bytes.Equal(got, adu) {
			t.Fatalf("Decode(Encode(adu)) = % X, want % X", got, adu)
		}
	}
}

func TestFrameLen(t *testing.T) {
	tests := []struct {
		name  string
		codec *Codec
		raw   string
		want  int
	}{
		{"Ended", NewCodec(), ":010102CD6BC4\r\n", 15},
		{"Partial", NewCodec(), ":010102CD6BC4\r", 0},
		{"NoStart", NewCodec(), "C4\r\n", 0},
		{"TailBeforeStart", NewCodec(), "C4\r\n:010102CD6BC4\r\n", 19},
		{"TwoFrames", NewCodec(), ":010102CD6BC4\r\n:F7030204", 15},
		{"Disabled", &Codec{}, ":010102CD6BC4\r\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.codec.FrameLen([]byte(tt.raw)); got != tt.want {
				t.Errorf("FrameLen(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
