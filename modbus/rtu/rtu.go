// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package rtu implements the Modbus RTU transmission mode: binary frames
// closed by a little-endian CRC-16 and delimited by line silence.
package rtu

import (
	"fmt"

	"github.com/ffutop/modbus-serial/modbus"
	"github.com/ffutop/modbus-serial/modbus/crc"
	"github.com/ffutop/modbus-serial/modbus/framing"
)

const (
	MinSize = 4
	MaxSize = 256

	ExceptionSize = 5
)

var _ framing.Codec = Codec{}

// Codec is the RTU framing codec.
type Codec struct{}

func (Codec) Name() string { return "rtu" }

// Encode encodes an address-prefixed PDU in an RTU frame:
//
//	Slave Address   : 1 byte
//	Function        : 1 byte
//	Data            : 0 up to 252 bytes
//	CRC             : 2 bytes
func (Codec) Encode(adu []byte) ([]byte, error) {
	length := len(adu) + 2
	if length < MinSize {
		return nil, fmt.Errorf("%w: length of frame '%v' does not meet minimum '%v'", modbus.ErrInvalidFrame, length, MinSize)
	}
	if length > MaxSize {
		return nil, fmt.Errorf("%w: length of frame '%v' must not be bigger than '%v'", modbus.ErrInvalidFrame, length, MaxSize)
	}
	raw := make([]byte, len(adu), length)
	copy(raw, adu)
	return crc.Append(raw), nil
}

// Decode splits off the trailing CRC, checks it against the remainder and
// returns the remainder. Anything shorter than the CRC itself is a checksum
// failure.
func (Codec) Decode(raw []byte) ([]byte, error) {
	length := len(raw)
	if length < 2 {
		return nil, fmt.Errorf("%w: frame length '%v' has no room for crc", modbus.ErrChecksumMismatch, length)
	}
	var crc crc.CRC
	crc.Reset().PushBytes(raw[0 : length-2])
	checksum := uint16(raw[length-1])<<8 | uint16(raw[length-2])
	if checksum != crc.Value() {
		return nil, fmt.Errorf("%w: response crc '%v' does not match expected '%v'", modbus.ErrChecksumMismatch, checksum, crc.Value())
	}
	return raw[:length-2], nil
}

// FrameLen is always 0: RTU frames end on silence only.
func (Codec) FrameLen([]byte) int { return 0 }
