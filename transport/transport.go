// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package transport defines the byte stream a Modbus master talks over.
package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Transport.
var ErrClosed = errors.New("transport: closed")

// Transport is a byte stream to the bus. It knows nothing of frames: Read
// returns whatever chunk the line delivered, which may hold part of a frame,
// a whole frame or several.
type Transport interface {
	// Write sends p completely or returns an error.
	Write(ctx context.Context, p []byte) error
	// Read blocks until at least one byte is available and returns it.
	// Once the transport is closed it returns an error wrapping ErrClosed.
	Read() ([]byte, error)
	Close() error
}

// Error is a failure of the underlying line, kept apart from protocol errors.
type Error struct {
	Op  string // "open", "write", "read"
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
