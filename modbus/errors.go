// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"errors"
	"fmt"
)

var (
	// ErrChecksumMismatch is returned by the framing codecs when the
	// CRC or LRC of a received frame does not match its contents.
	ErrChecksumMismatch = errors.New("modbus: checksum mismatch")
	// ErrPayloadTooLarge rejects a request whose byte count does not fit
	// the one-byte length field.
	ErrPayloadTooLarge = errors.New("modbus: payload too large")
	// ErrMalformedResponse is returned for responses that are too short
	// or whose byte count disagrees with the requested quantity.
	ErrMalformedResponse = errors.New("modbus: malformed response")
	// ErrInvalidFrame is returned when a frame violates the framing rules
	// of its transmission mode (length, delimiters, encoding).
	ErrInvalidFrame = errors.New("modbus: invalid frame")
)

// ExceptionError is a well-formed exception response sent by a slave.
type ExceptionError struct {
	SlaveID       byte
	FunctionCode  byte // echoed function code, exception flag set
	ExceptionCode byte
}

// Error converts known modbus exception code to error message.
func (e *ExceptionError) Error() string {
	var name string
	switch e.ExceptionCode {
	case ExceptionCodeIllegalFunction:
		name = "illegal function"
	case ExceptionCodeIllegalDataAddress:
		name = "illegal data address"
	case ExceptionCodeIllegalDataValue:
		name = "illegal data value"
	case ExceptionCodeServerDeviceFailure:
		name = "server device failure"
	case ExceptionCodeAcknowledge:
		name = "acknowledge"
	case ExceptionCodeServerDeviceBusy:
		name = "server device busy"
	case ExceptionCodeMemoryParityError:
		name = "memory parity error"
	case ExceptionCodeGatewayPathUnavailable:
		name = "gateway path unavailable"
	case ExceptionCodeGatewayTargetDeviceFailedToRespond:
		name = "gateway target device failed to respond"
	default:
		name = "unknown"
	}
	return fmt.Sprintf("modbus: slave %d %s exception '%v' (%s)",
		e.SlaveID, FunctionName(e.FunctionCode), e.ExceptionCode, name)
}

// UnexpectedFunctionCodeError is returned when a response carries neither
// the requested function code nor its exception variant.
type UnexpectedFunctionCodeError struct {
	Expected byte
	Got      byte
}

func (e *UnexpectedFunctionCodeError) Error() string {
	return fmt.Sprintf("modbus: unexpected function code 0x%02X in response to 0x%02X", e.Got, e.Expected)
}
