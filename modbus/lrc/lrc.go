// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package lrc implements the longitudinal redundancy check of Modbus ASCII
// frames: the two's complement of the 8-bit sum of the frame bytes.
package lrc

// LRC accumulates a longitudinal redundancy check.
type LRC struct {
	sum uint8
}

func (lrc *LRC) Reset() *LRC {
	lrc.sum = 0
	return lrc
}

func (lrc *LRC) PushByte(b byte) *LRC {
	lrc.sum += b
	return lrc
}

func (lrc *LRC) PushBytes(bs []byte) *LRC {
	for _, b := range bs {
		lrc.sum += b
	}
	return lrc
}

// Value returns the check byte.
func (lrc *LRC) Value() byte {
	return uint8(-int8(lrc.sum))
}

// Checksum returns the LRC of bs. Checksum(nil) is 0.
func Checksum(bs []byte) byte {
	var lrc LRC
	return lrc.Reset().PushBytes(bs).Value()
}
