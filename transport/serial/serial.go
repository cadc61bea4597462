// Copyright (c) 2014 Quoc-Viet Nguyen. All rights reserved.
// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package serial provides a Transport over a local serial port.
package serial

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	goserial "github.com/grid-x/serial"

	"github.com/ffutop/modbus-serial/internal/config"
	"github.com/ffutop/modbus-serial/transport"
)

const (
	// Default timeout
	serialTimeout     = 50 * time.Millisecond
	serialIdleTimeout = 60 * time.Second

	readBufferSize = 256
)

var _ transport.Transport = (*Port)(nil)

type openFunc func(*goserial.Config) (io.ReadWriteCloser, error)

func openSerial(c *goserial.Config) (io.ReadWriteCloser, error) {
	return goserial.Open(c)
}

// Port has configuration and I/O controller. The device is opened on the
// first Write and closed again after IdleTimeout without traffic.
type Port struct {
	// Serial port configuration.
	goserial.Config

	IdleTimeout time.Duration

	open  openFunc
	clock clock.Clock

	mu sync.Mutex
	// port is platform-dependent data structure for serial port.
	port         io.ReadWriteCloser
	closed       bool
	lastActivity time.Time
	closeTimer   *clock.Timer
}

// New allocates a Port for cfg. Zero timeouts fall back to the defaults.
func New(cfg config.SerialConfig) *Port {
	p := &Port{
		open:  openSerial,
		clock: clock.New(),
	}
	p.Config.Address = cfg.Device
	p.Config.BaudRate = cfg.BaudRate
	p.Config.DataBits = cfg.DataBits
	p.Config.StopBits = cfg.StopBits
	p.Config.Parity = cfg.Parity
	p.Config.Timeout = cfg.Timeout
	if p.Config.Timeout <= 0 {
		p.Config.Timeout = serialTimeout
	}
	p.IdleTimeout = cfg.IdleTimeout
	if p.IdleTimeout == 0 {
		p.IdleTimeout = serialIdleTimeout
	}
	return p
}

// Connect opens the device if it is not open yet.
func (p *Port) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.connect(ctx)
}

// connect connects to the serial port if it is not connected. Caller must hold the mutex.
func (p *Port) connect(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if p.closed {
		return transport.ErrClosed
	}
	if p.port == nil {
		port, err := p.open(&p.Config)
		if err != nil {
			return &transport.Error{Op: "open " + p.Config.Address, Err: err}
		}
		slog.Debug("serial port opened", "device", p.Config.Address, "baud_rate", p.Config.BaudRate)
		p.port = port
	}
	return nil
}

// Write sends p, opening the device first if needed.
func (p *Port) Write(ctx context.Context, b []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.connect(ctx); err != nil {
		return err
	}
	p.lastActivity = p.clock.Now()
	p.startCloseTimer()

	if _, err := p.port.Write(b); err != nil {
		return &transport.Error{Op: "write", Err: err}
	}
	return nil
}

// Read waits for the next chunk from the line. Read timeouts of the device
// are not errors; Read keeps waiting until data arrives or the Port is
// closed. While the device is closed for idleness Read waits for the next
// Write to reopen it.
func (p *Port) Read() ([]byte, error) {
	buf := make([]byte, readBufferSize)
	for {
		port, err := p.current()
		if err != nil {
			return nil, err
		}
		if port == nil {
			p.clock.Sleep(p.Config.Timeout)
			continue
		}

		n, err := port.Read(buf)
		if n > 0 {
			p.touch()
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			return chunk, nil
		}
		if err == nil || errors.Is(err, goserial.ErrTimeout) {
			continue
		}
		if p.replaced(port) {
			// closed under us by the idle timer or Close
			continue
		}
		if errors.Is(err, io.EOF) {
			p.clock.Sleep(p.Config.Timeout)
			continue
		}
		return nil, &transport.Error{Op: "read", Err: err}
	}
}

// Close closes the device. A closed Port cannot be reopened.
func (p *Port) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	if p.closeTimer != nil {
		p.closeTimer.Stop()
	}
	return p.close()
}

// close closes the serial port if it is connected. Caller must hold the mutex.
func (p *Port) close() (err error) {
	if p.port != nil {
		err = p.port.Close()
		p.port = nil
	}
	return
}

func (p *Port) current() (io.ReadWriteCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, transport.ErrClosed
	}
	return p.port, nil
}

func (p *Port) replaced(port io.ReadWriteCloser) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.port != port
}

func (p *Port) touch() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastActivity = p.clock.Now()
}

func (p *Port) startCloseTimer() {
	if p.IdleTimeout <= 0 {
		return
	}
	if p.closeTimer == nil {
		p.closeTimer = p.clock.AfterFunc(p.IdleTimeout, p.closeIdle)
	} else {
		p.closeTimer.Reset(p.IdleTimeout)
	}
}

// closeIdle closes the connection if last activity is passed behind IdleTimeout.
func (p *Port) closeIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.IdleTimeout <= 0 || p.port == nil {
		return
	}

	if idle := p.clock.Since(p.lastActivity); idle >= p.IdleTimeout {
		slog.Debug("closing serial port due to idle timeout", "device", p.Config.Address, "idle", idle)
		p.close()
	}
}
