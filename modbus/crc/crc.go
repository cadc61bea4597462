// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package crc implements the CRC-16 used by Modbus RTU frames
// (reflected polynomial 0xA001, initial value 0xFFFF).
package crc

import "sync"

const poly = 0xA001

var (
	tableOnce sync.Once
	table     [256]uint16
)

func initTable() {
	for i := 0; i < 256; i++ {
		v := uint16(i)
		for j := 0; j < 8; j++ {
			if v&0x0001 != 0 {
				v = (v >> 1) ^ poly
			} else {
				v >>= 1
			}
		}
		table[i] = v
	}
}

// CRC accumulates a Modbus CRC-16. The zero value must be Reset before use.
type CRC struct {
	value uint16
}

// Reset restores the initial register value.
func (crc *CRC) Reset() *CRC {
	crc.value = 0xFFFF
	return crc
}

// PushBytes feeds bs into the checksum.
func (crc *CRC) PushBytes(bs []byte) *CRC {
	tableOnce.Do(initTable)

	v := crc.value
	for _, b := range bs {
		v = (v >> 8) ^ table[(v^uint16(b))&0x00FF]
	}
	crc.value = v
	return crc
}

// Value returns the checksum. It is transmitted low byte first.
func (crc *CRC) Value() uint16 {
	return crc.value
}

// Checksum returns the CRC-16 of bs. Checksum(nil) is 0xFFFF.
func Checksum(bs []byte) uint16 {
	var crc CRC
	return crc.Reset().PushBytes(bs).Value()
}

// Append appends the little-endian checksum of bs to bs.
func Append(bs []byte) []byte {
	sum := Checksum(bs)
	return append(bs, byte(sum), byte(sum>>8))
}
