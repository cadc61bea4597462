// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package framing turns a byte stream from a serial line into Modbus frames.
//
// Serial frames carry no length prefix. A frame ends when the line has been
// silent for the inter-frame timeout, or, for codecs that have one, when the
// end delimiter arrives. Decoder implements this as a two state machine:
//
//	Idle          buffer empty, no timer
//	Accumulating  buffer non-empty, silence timer running
//
// Feed moves Idle to Accumulating and restarts the timer on every chunk.
// Flush, called when the timer fires, verifies the buffer with the codec and
// returns to Idle whatever the outcome. When the codec finds a delimited frame
// followed by more bytes, Flush returns that frame and keeps the rest
// accumulating.
package framing

import (
	"errors"
	"time"

	"github.com/benbjohnson/clock"
)

// ErrIdle is returned by Flush when no bytes have been fed since the last frame.
var ErrIdle = errors.New("framing: decoder is idle")

// Codec wraps and unwraps address-prefixed PDUs for one transmission mode.
type Codec interface {
	// Name is the transmission mode, "rtu" or "ascii".
	Name() string
	// Encode returns the wire form of adu.
	Encode(adu []byte) ([]byte, error)
	// Decode verifies raw and returns the address-prefixed PDU it carries.
	Decode(raw []byte) ([]byte, error)
	// FrameLen returns the length of the first frame in raw whose end the
	// codec recognises without waiting for silence on the line, or 0.
	FrameLen(raw []byte) int
}

// State of a Decoder.
type State int

const (
	StateIdle State = iota
	StateAccumulating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	default:
		return "unknown"
	}
}

// Decoder accumulates chunks into frames. It is not safe for concurrent use;
// one request/response exchange owns it at a time.
type Decoder struct {
	codec   Codec
	clock   clock.Clock
	timeout time.Duration

	buf   []byte
	timer *clock.Timer
}

// NewDecoder returns an idle decoder. A nil clk means the wall clock.
func NewDecoder(codec Codec, clk clock.Clock, timeout time.Duration) *Decoder {
	if clk == nil {
		clk = clock.New()
	}
	return &Decoder{
		codec:   codec,
		clock:   clk,
		timeout: timeout,
	}
}

// Timeout returns the inter-frame silence timeout.
func (d *Decoder) Timeout() time.Duration {
	return d.timeout
}

// State returns the current state.
func (d *Decoder) State() State {
	if len(d.buf) == 0 {
		return StateIdle
	}
	return StateAccumulating
}

// Buffered returns the number of bytes accumulated for the current frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Feed appends p to the current frame and restarts the silence timer. It
// reports Ready, in which case the caller may Flush without waiting for
// Silence.
func (d *Decoder) Feed(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	d.buf = append(d.buf, p...)
	d.restartTimer()
	return d.Ready()
}

// Ready reports whether the codec recognises the end of a frame in the buffer.
func (d *Decoder) Ready() bool {
	return len(d.buf) > 0 && d.codec.FrameLen(d.buf) > 0
}

// Silence returns a channel that receives once the line has been quiet for
// the timeout. It is nil, and so blocks forever in a select, while idle.
func (d *Decoder) Silence() <-chan time.Time {
	if d.timer == nil {
		return nil
	}
	return d.timer.C
}

// SilenceElapsed receives from Silence without blocking. When it returns
// true the current frame has ended and the caller must Flush before feeding
// more bytes.
func (d *Decoder) SilenceElapsed() bool {
	select {
	case <-d.Silence():
		return true
	default:
		return false
	}
}

// Flush ends the current frame. The buffer is handed to the codec and the
// decoder returns to Idle; the codec's verdict, a frame or an error such as
// modbus.ErrChecksumMismatch, is returned unchanged. Bytes after a delimited
// frame stay buffered as the start of the next one.
func (d *Decoder) Flush() ([]byte, error) {
	if len(d.buf) == 0 {
		d.stopTimer()
		return nil, ErrIdle
	}
	raw := d.buf
	if n := d.codec.FrameLen(raw); n > 0 && n < len(raw) {
		d.buf = append([]byte(nil), raw[n:]...)
		d.restartTimer()
		return d.codec.Decode(raw[:n])
	}
	d.stopTimer()
	d.buf = nil
	return d.codec.Decode(raw)
}

// Reset drops any partial frame.
func (d *Decoder) Reset() {
	d.stopTimer()
	d.buf = nil
}

func (d *Decoder) restartTimer() {
	d.stopTimer()
	d.timer = d.clock.Timer(d.timeout)
}

func (d *Decoder) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
