// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package master is a Modbus serial line master. It sends one request at a
// time over a transport.Transport and waits for the matching response.
package master

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/ffutop/modbus-serial/modbus"
	"github.com/ffutop/modbus-serial/modbus/ascii"
	"github.com/ffutop/modbus-serial/modbus/framing"
	"github.com/ffutop/modbus-serial/modbus/rtu"
	"github.com/ffutop/modbus-serial/transport"
)

const (
	DefaultSilenceTimeout  = 4 * time.Millisecond
	DefaultResponseTimeout = 500 * time.Millisecond

	chunkBacklog = 64
)

var (
	// ErrRequestTimedOut is returned when no matching response arrived
	// within the response timeout.
	ErrRequestTimedOut = errors.New("modbus: request timed out")
	// ErrInvalidSlaveID rejects slave addresses above 247.
	ErrInvalidSlaveID = errors.New("modbus: invalid slave id")
	// ErrInvalidQuantity rejects quantities outside the limits of a function.
	ErrInvalidQuantity = errors.New("modbus: invalid quantity")
	// ErrBroadcastRead rejects read requests to the broadcast address.
	ErrBroadcastRead = errors.New("modbus: read requests cannot be broadcast")
)

// NewCodec returns the framing codec of mode, "rtu" or "ascii".
func NewCodec(mode string, asciiEOLBoundary bool) (framing.Codec, error) {
	switch mode {
	case "rtu":
		return rtu.Codec{}, nil
	case "ascii":
		return &ascii.Codec{EOLBoundary: asciiEOLBoundary}, nil
	default:
		return nil, fmt.Errorf("modbus: unknown transmission mode %q", mode)
	}
}

// Option configures a Master.
type Option func(*Master)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Master) { m.logger = logger }
}

// WithClock replaces the wall clock, for tests.
func WithClock(clk clock.Clock) Option {
	return func(m *Master) { m.clock = clk }
}

// WithSilenceTimeout sets the line silence that ends a frame.
func WithSilenceTimeout(d time.Duration) Option {
	return func(m *Master) { m.silenceTimeout = d }
}

// WithResponseTimeout sets how long to wait for a response beyond the time
// the request and the expected response take on the line.
func WithResponseTimeout(d time.Duration) Option {
	return func(m *Master) { m.responseTimeout = d }
}

// WithBaudRate sets the line speed used to estimate transmission time.
func WithBaudRate(baudRate int) Option {
	return func(m *Master) { m.baudRate = baudRate }
}

type chunk struct {
	data []byte
	err  error
}

// Master issues requests and decodes responses. Requests are serialized; a
// Master is safe for concurrent use.
type Master struct {
	transport transport.Transport
	codec     framing.Codec
	logger    *slog.Logger
	clock     clock.Clock

	silenceTimeout  time.Duration
	responseTimeout time.Duration
	baudRate        int

	mu      sync.Mutex
	decoder *framing.Decoder
	chunks  chan chunk
	pending []byte
	pumping bool
	closed  bool
	done    chan struct{}
}

// New returns a Master that frames requests with codec and exchanges them
// over t.
func New(t transport.Transport, codec framing.Codec, opts ...Option) *Master {
	m := &Master{
		transport:       t,
		codec:           codec,
		logger:          slog.Default(),
		clock:           clock.New(),
		silenceTimeout:  DefaultSilenceTimeout,
		responseTimeout: DefaultResponseTimeout,
		chunks:          make(chan chunk, chunkBacklog),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("mode", codec.Name())
	m.decoder = framing.NewDecoder(codec, m.clock, m.silenceTimeout)
	return m
}

// Close closes the transport and stops reading from it.
func (m *Master) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.decoder.Reset()
	return m.transport.Close()
}

// Do sends req to slaveID and returns the decoded response. Write requests
// to the broadcast address return a nil Response once the request is sent.
//
// Frames from other slaves are ignored. An exception response is returned
// as a *modbus.ExceptionError.
func (m *Master) Do(ctx context.Context, slaveID byte, req modbus.Request) (modbus.Response, error) {
	if slaveID > modbus.AddressMax {
		return nil, fmt.Errorf("%w: '%v' must be between '%v' and '%v'", ErrInvalidSlaveID, slaveID, modbus.AddressBroadcast, modbus.AddressMax)
	}
	broadcast := slaveID == modbus.AddressBroadcast
	if broadcast && isRead(req.FunctionCode()) {
		return nil, ErrBroadcastRead
	}
	adu, err := req.Encode(slaveID)
	if err != nil {
		return nil, err
	}
	raw, err := m.codec.Encode(adu)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, transport.ErrClosed
	}
	m.discardStale()
	m.startPump()

	m.logger.Debug("send to modbus slave", "slave_id", slaveID,
		"function", modbus.FunctionName(req.FunctionCode()), "request", hex.EncodeToString(raw))
	if err := m.transport.Write(ctx, raw); err != nil {
		return nil, err
	}

	if broadcast {
		// no response; keep the line quiet before the next request
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-m.clock.After(m.silenceTimeout):
		}
		return nil, nil
	}

	timeout := m.responseTimeout + m.wireTime(adu, len(raw))
	deadline := m.clock.Timer(timeout)
	defer deadline.Stop()

	for {
		frame, err := m.readFrame(ctx, deadline.C)
		switch {
		case errors.Is(err, ErrRequestTimedOut):
			return nil, fmt.Errorf("%w: no response from slave %d after %v", ErrRequestTimedOut, slaveID, timeout)
		case errors.Is(err, modbus.ErrChecksumMismatch), errors.Is(err, modbus.ErrInvalidFrame):
			m.logger.Warn("failed to decode response", "slave_id", slaveID, "err", err)
			return nil, err
		case err != nil:
			return nil, err
		}
		m.logger.Debug("recv from modbus slave", "response", hex.EncodeToString(frame))
		if len(frame) > 0 && frame[0] != slaveID {
			m.logger.Debug("ignoring response from another slave", "slave_id", slaveID, "response_slave_id", frame[0])
			continue
		}
		return req.ParseResponse(frame)
	}
}

// readFrame returns the next frame off the line, or the decoder's error for
// it. It fails with ErrRequestTimedOut once deadline fires. Caller must hold
// the mutex.
func (m *Master) readFrame(ctx context.Context, deadline <-chan time.Time) ([]byte, error) {
	for {
		if m.pending != nil {
			m.decoder.Feed(m.pending)
			m.pending = nil
		}
		if m.decoder.Ready() {
			return m.decoder.Flush()
		}

		select {
		case <-ctx.Done():
			m.decoder.Reset()
			return nil, ctx.Err()
		case <-deadline:
			m.decoder.Reset()
			return nil, ErrRequestTimedOut
		case c := <-m.chunks:
			if c.err != nil {
				m.pumping = false
				m.decoder.Reset()
				return nil, c.err
			}
			if m.decoder.SilenceElapsed() {
				// the line went quiet before this chunk, which starts the next frame
				m.pending = c.data
				return m.decoder.Flush()
			}
			m.decoder.Feed(c.data)
		case <-m.decoder.Silence():
			return m.decoder.Flush()
		}
	}
}

// wireTime estimates how long the request and its response occupy the line.
func (m *Master) wireTime(adu []byte, requestChars int) time.Duration {
	responseChars := rtu.CalculateResponseLength(adu)
	if m.codec.Name() == "ascii" {
		// hex pairs replace the two CRC bytes by one LRC byte, plus ':' and CRLF
		responseChars = 2*(responseChars-1) + 3
	}
	return rtu.CalculateDelay(m.baudRate, requestChars+responseChars)
}

// discardStale drops bytes that arrived outside of an exchange. Caller must
// hold the mutex.
func (m *Master) discardStale() {
	if n := m.decoder.Buffered(); n > 0 {
		m.logger.Debug("discarding partial frame", "bytes", n)
	}
	m.decoder.Reset()
	if len(m.pending) > 0 {
		m.logger.Debug("discarding stale input", "data", hex.EncodeToString(m.pending))
		m.pending = nil
	}
	for {
		select {
		case c := <-m.chunks:
			if c.err != nil {
				m.pumping = false
				m.logger.Debug("transport read failed between requests", "err", c.err)
				continue
			}
			m.logger.Debug("discarding stale input", "data", hex.EncodeToString(c.data))
		default:
			return
		}
	}
}

// startPump starts the goroutine that moves chunks from the transport into
// m.chunks. It stops after the first read error. Caller must hold the mutex.
func (m *Master) startPump() {
	if m.pumping {
		return
	}
	m.pumping = true
	go m.pump()
}

func (m *Master) pump() {
	for {
		data, err := m.transport.Read()
		select {
		case m.chunks <- chunk{data: data, err: err}:
		case <-m.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func isRead(functionCode byte) bool {
	switch functionCode {
	case modbus.FuncCodeReadCoils,
		modbus.FuncCodeReadDiscreteInputs,
		modbus.FuncCodeReadHoldingRegisters,
		modbus.FuncCodeReadInputRegisters:
		return true
	}
	return false
}
