// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package ascii implements the Modbus ASCII transmission mode: frames are
// hex text between a ':' and CRLF, closed by an LRC.
package ascii

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/ffutop/modbus-serial/modbus"
	"github.com/ffutop/modbus-serial/modbus/framing"
	"github.com/ffutop/modbus-serial/modbus/lrc"
)

const (
	Start = ':'
	// AltStart is sent by some devices in place of ':'.
	AltStart = '>'
	End      = "\r\n"

	MinSize = 9
	MaxSize = 513

	hexTable = "0123456789ABCDEF"
)

var _ framing.Codec = (*Codec)(nil)

// Codec is the ASCII framing codec.
type Codec struct {
	// EOLBoundary ends a frame as soon as CRLF is received instead of
	// waiting for line silence.
	EOLBoundary bool
}

// NewCodec returns a codec that ends frames on CRLF.
func NewCodec() *Codec {
	return &Codec{EOLBoundary: true}
}

func (c *Codec) Name() string { return "ascii" }

// Encode encodes an address-prefixed PDU in an ASCII frame:
//
//	Start           : 1 char
//	Address         : 2 chars
//	Function        : 2 chars
//	Data            : 0 up to 2x252 chars
//	LRC             : 2 chars
//	End             : 2 chars
func (c *Codec) Encode(adu []byte) ([]byte, error) {
	if len(adu) < 2 || len(adu) > 254 {
		return nil, fmt.Errorf("%w: frame length '%v' is out of range [2, 254]", modbus.ErrInvalidFrame, len(adu))
	}
	raw := make([]byte, 0, 1+2*(len(adu)+1)+len(End))
	raw = append(raw, Start)
	raw = appendHex(raw, adu...)
	raw = appendHex(raw, lrc.Checksum(adu))
	return append(raw, End...), nil
}

// Decode checks the delimiters and LRC of raw and returns the decoded bytes
// without the LRC. Anything received before the last start character is
// discarded, so a frame restarted by a new ':' decodes from that point.
func (c *Codec) Decode(raw []byte) ([]byte, error) {
	if end := frameEnd(raw); end > 0 {
		// bytes after the first frame belong to the next one
		raw = raw[:end]
	}
	start := bytes.LastIndexAny(raw, string([]byte{Start, AltStart}))
	if start < 0 {
		return nil, fmt.Errorf("%w: frame is not started with '%c'", modbus.ErrInvalidFrame, Start)
	}
	raw = raw[start:]
	if !bytes.HasSuffix(raw, []byte(End)) {
		return nil, fmt.Errorf("%w: frame is not ended with %q", modbus.ErrInvalidFrame, End)
	}
	if len(raw) < MinSize {
		return nil, fmt.Errorf("%w: frame length '%v' does not meet minimum '%v'", modbus.ErrInvalidFrame, len(raw), MinSize)
	}
	text := raw[1 : len(raw)-len(End)]
	if len(text)%2 != 0 {
		return nil, fmt.Errorf("%w: frame length '%v' is not an even number", modbus.ErrInvalidFrame, len(text))
	}
	data := make([]byte, hex.DecodedLen(len(text)))
	if _, err := hex.Decode(data, text); err != nil {
		return nil, fmt.Errorf("%w: %v", modbus.ErrInvalidFrame, err)
	}
	adu, sum := data[:len(data)-1], data[len(data)-1]
	if expected := lrc.Checksum(adu); sum != expected {
		return nil, fmt.Errorf("%w: response lrc '%v' does not match expected '%v'", modbus.ErrChecksumMismatch, sum, expected)
	}
	return adu, nil
}

// FrameLen returns the length of the first started frame in raw that ends
// with CRLF, or 0 when there is none or EOLBoundary is off.
func (c *Codec) FrameLen(raw []byte) int {
	if !c.EOLBoundary {
		return 0
	}
	return frameEnd(raw)
}

// frameEnd returns the offset just past the first CRLF that follows a start
// character, or 0.
func frameEnd(raw []byte) int {
	started := false
	for i, b := range raw {
		switch {
		case b == Start || b == AltStart:
			started = true
		case b == '\n' && started && i > 0 && raw[i-1] == '\r':
			return i + 1
		}
	}
	return 0
}

func appendHex(dst []byte, data ...byte) []byte {
	for _, b := range data {
		dst = append(dst, hexTable[b>>4], hexTable[b&0x0F])
	}
	return dst
}
