// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"encoding/binary"
	"fmt"
)

// Response is a decoded success response.
type Response interface {
	Slave() byte
	Function() byte
}

// Header is the address and function code every response starts with.
type Header struct {
	SlaveID      byte
	FunctionCode byte
}

func (h Header) Slave() byte    { return h.SlaveID }
func (h Header) Function() byte { return h.FunctionCode }

// ReadBitsResponse carries coil or discrete input status.
type ReadBitsResponse struct {
	Header
	ByteCount byte
	Status    []bool
}

// ReadRegistersResponse carries holding or input register values.
type ReadRegistersResponse struct {
	Header
	ByteCount byte
	Values    []uint16
}

// WriteSingleResponse is the echo of a single coil or register write.
type WriteSingleResponse struct {
	Header
	Address uint16
	Value   uint16
}

// On reports whether a single coil response echoes the ON value.
func (r *WriteSingleResponse) On() bool {
	return r.Value == CoilOn
}

// WriteMultipleResponse confirms a multiple coil or register write.
type WriteMultipleResponse struct {
	Header
	Address  uint16
	Quantity uint16
}

// parseHeader checks the function code of frame against expected. It returns
// the payload after the function code on success, an *ExceptionError when the
// slave answered with the exception variant and an
// *UnexpectedFunctionCodeError otherwise.
func parseHeader(expected byte, frame []byte) (Header, []byte, error) {
	if len(frame) < 2 {
		return Header{}, nil, fmt.Errorf("%w: response length '%v' does not meet minimum '%v'", ErrMalformedResponse, len(frame), 2)
	}
	h := Header{SlaveID: frame[0], FunctionCode: frame[1]}
	switch frame[1] {
	case expected:
		return h, frame[2:], nil
	case expected | ExceptionFlag:
		if len(frame) < 3 {
			return h, nil, fmt.Errorf("%w: exception response has no exception code", ErrMalformedResponse)
		}
		return h, nil, &ExceptionError{SlaveID: frame[0], FunctionCode: frame[1], ExceptionCode: frame[2]}
	default:
		return h, nil, &UnexpectedFunctionCodeError{Expected: expected, Got: frame[1]}
	}
}

// Response:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x01 or 0x02)
//	Byte count            : 1 byte
//	Status                : N* bytes (=N or N+1)
//
// ParseReadBitsResponse returns quantity status bits; padding bits of the
// last byte are dropped.
func ParseReadBitsResponse(functionCode byte, quantity uint16, frame []byte) (*ReadBitsResponse, error) {
	h, payload, err := parseHeader(functionCode, frame)
	if err != nil {
		return nil, err
	}
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: response has no byte count", ErrMalformedResponse)
	}
	byteCount := int(payload[0])
	switch {
	case len(payload)-1 < byteCount:
		return nil, fmt.Errorf("%w: response byte size '%v' does not match count '%v'",
			ErrMalformedResponse, len(payload)-1, byteCount)
	case byteCount*8 < int(quantity):
		return nil, fmt.Errorf("%w: response byte count '%v' is too small for quantity '%v'",
			ErrMalformedResponse, byteCount, quantity)
	}
	return &ReadBitsResponse{
		Header:    h,
		ByteCount: payload[0],
		Status:    UnpackBits(payload)[:quantity],
	}, nil
}

func ParseReadCoilsResponse(quantity uint16, frame []byte) (*ReadBitsResponse, error) {
	return ParseReadBitsResponse(FuncCodeReadCoils, quantity, frame)
}

func ParseReadDiscreteInputsResponse(quantity uint16, frame []byte) (*ReadBitsResponse, error) {
	return ParseReadBitsResponse(FuncCodeReadDiscreteInputs, quantity, frame)
}

// Response:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x03 or 0x04)
//	Byte count            : 1 byte
//	Register value        : Nx2 bytes
func ParseReadRegistersResponse(functionCode byte, quantity uint16, frame []byte) (*ReadRegistersResponse, error) {
	h, payload, err := parseHeader(functionCode, frame)
	if err != nil {
		return nil, err
	}
	if len(payload) < 1 {
		return nil, fmt.Errorf("%w: response has no byte count", ErrMalformedResponse)
	}
	byteCount := int(payload[0])
	switch {
	case len(payload)-1 < byteCount:
		return nil, fmt.Errorf("%w: response byte size '%v' does not match count '%v'",
			ErrMalformedResponse, len(payload)-1, byteCount)
	case byteCount%2 != 0:
		return nil, fmt.Errorf("%w: response byte count '%v' is odd", ErrMalformedResponse, byteCount)
	case byteCount/2 < int(quantity):
		return nil, fmt.Errorf("%w: response register count '%v' does not meet quantity '%v'",
			ErrMalformedResponse, byteCount/2, quantity)
	}
	return &ReadRegistersResponse{
		Header:    h,
		ByteCount: payload[0],
		Values:    UnpackRegisters(payload)[:quantity],
	}, nil
}

func ParseReadHoldingRegistersResponse(quantity uint16, frame []byte) (*ReadRegistersResponse, error) {
	return ParseReadRegistersResponse(FuncCodeReadHoldingRegisters, quantity, frame)
}

func ParseReadInputRegistersResponse(quantity uint16, frame []byte) (*ReadRegistersResponse, error) {
	return ParseReadRegistersResponse(FuncCodeReadInputRegisters, quantity, frame)
}

// parseWriteSingleResponse decodes the echo of 0x05 and 0x06:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte
//	Address               : 2 bytes
//	Value                 : 2 bytes
func parseWriteSingleResponse(functionCode byte, frame []byte) (*WriteSingleResponse, error) {
	h, payload, err := parseHeader(functionCode, frame)
	if err != nil {
		return nil, err
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: response data size '%v' does not match expected '%v'", ErrMalformedResponse, len(payload), 4)
	}
	return &WriteSingleResponse{
		Header:  h,
		Address: binary.BigEndian.Uint16(payload),
		Value:   binary.BigEndian.Uint16(payload[2:]),
	}, nil
}

func ParseWriteSingleCoilResponse(frame []byte) (*WriteSingleResponse, error) {
	return parseWriteSingleResponse(FuncCodeWriteSingleCoil, frame)
}

func ParseWriteSingleRegisterResponse(frame []byte) (*WriteSingleResponse, error) {
	return parseWriteSingleResponse(FuncCodeWriteSingleRegister, frame)
}

// parseWriteMultipleResponse decodes the confirmation of 0x0F and 0x10:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte
//	Starting address      : 2 bytes
//	Quantity              : 2 bytes
func parseWriteMultipleResponse(functionCode byte, frame []byte) (*WriteMultipleResponse, error) {
	h, payload, err := parseHeader(functionCode, frame)
	if err != nil {
		return nil, err
	}
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: response data size '%v' does not match expected '%v'", ErrMalformedResponse, len(payload), 4)
	}
	return &WriteMultipleResponse{
		Header:   h,
		Address:  binary.BigEndian.Uint16(payload),
		Quantity: binary.BigEndian.Uint16(payload[2:]),
	}, nil
}

func ParseWriteMultipleCoilsResponse(frame []byte) (*WriteMultipleResponse, error) {
	return parseWriteMultipleResponse(FuncCodeWriteMultipleCoils, frame)
}

func ParseWriteMultipleRegistersResponse(frame []byte) (*WriteMultipleResponse, error) {
	return parseWriteMultipleResponse(FuncCodeWriteMultipleRegisters, frame)
}
