// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"encoding/binary"
	"fmt"
)

// maxByteCount is the largest value of a one-byte length field.
const maxByteCount = 0xFF

// PackBits packs bits least significant bit first. The first output byte is
// the number of packed bytes that follow; unused high bits of the last byte
// are zero.
func PackBits(bits []bool) ([]byte, error) {
	n := (len(bits) + 7) / 8
	if n > maxByteCount {
		return nil, fmt.Errorf("%w: %d bits need %d bytes, limit is %d", ErrPayloadTooLarge, len(bits), n, maxByteCount)
	}
	b := make([]byte, 1+n)
	b[0] = byte(n)
	for i, on := range bits {
		if on {
			b[1+i/8] |= 1 << uint(i%8)
		}
	}
	return b, nil
}

// UnpackBits is the inverse of PackBits. It unpacks every bit of at most
// b[0] bytes, so the result is a multiple of eight long; callers truncate it
// to the quantity they asked for.
func UnpackBits(b []byte) []bool {
	if len(b) == 0 {
		return nil
	}
	n := int(b[0])
	if avail := len(b) - 1; avail < n {
		n = avail
	}
	bits := make([]bool, 0, n*8)
	for _, v := range b[1 : 1+n] {
		for j := 0; j < 8; j++ {
			bits = append(bits, (v>>uint(j))&0x01 != 0)
		}
	}
	return bits
}

// PackRegisters writes values as big-endian 16-bit words after a one-byte
// byte count.
func PackRegisters(values []uint16) ([]byte, error) {
	n := 2 * len(values)
	if n > maxByteCount {
		return nil, fmt.Errorf("%w: %d registers need %d bytes, limit is %d", ErrPayloadTooLarge, len(values), n, maxByteCount)
	}
	b := make([]byte, 1+n)
	b[0] = byte(n)
	for i, v := range values {
		binary.BigEndian.PutUint16(b[1+2*i:], v)
	}
	return b, nil
}

// UnpackRegisters is the inverse of PackRegisters. It reads b[0]/2 words,
// stopping early if b holds fewer complete words.
func UnpackRegisters(b []byte) []uint16 {
	if len(b) == 0 {
		return nil
	}
	count := int(b[0]) / 2
	if avail := (len(b) - 1) / 2; avail < count {
		count = avail
	}
	values := make([]uint16, count)
	for i := range values {
		values[i] = binary.BigEndian.Uint16(b[1+2*i:])
	}
	return values
}

// uint162Bytes writes values as consecutive big-endian words.
func uint162Bytes(values ...uint16) []byte {
	b := make([]byte, 2*len(values))
	for i, v := range values {
		binary.BigEndian.PutUint16(b[2*i:], v)
	}
	return b
}
