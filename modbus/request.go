// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"fmt"
)

// Request is a master request for one of the supported functions. Encode
// produces the address-prefixed PDU; ParseResponse decodes the matching
// address-prefixed response.
type Request interface {
	FunctionCode() byte
	Encode(slaveID byte) ([]byte, error)
	ParseResponse(frame []byte) (Response, error)
}

var (
	_ Request = (*ReadBitsRequest)(nil)
	_ Request = (*ReadRegistersRequest)(nil)
	_ Request = (*WriteSingleCoilRequest)(nil)
	_ Request = (*WriteSingleRegisterRequest)(nil)
	_ Request = (*WriteMultipleCoilsRequest)(nil)
	_ Request = (*WriteMultipleRegistersRequest)(nil)
)

// ReadBitsRequest reads coils (0x01) or discrete inputs (0x02).
//
// Request:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x01 or 0x02)
//	Starting address      : 2 bytes
//	Quantity              : 2 bytes
type ReadBitsRequest struct {
	Function byte
	Address  uint16
	Quantity uint16
}

func ReadCoils(address, quantity uint16) *ReadBitsRequest {
	return &ReadBitsRequest{Function: FuncCodeReadCoils, Address: address, Quantity: quantity}
}

func ReadDiscreteInputs(address, quantity uint16) *ReadBitsRequest {
	return &ReadBitsRequest{Function: FuncCodeReadDiscreteInputs, Address: address, Quantity: quantity}
}

func (r *ReadBitsRequest) FunctionCode() byte { return r.Function }

func (r *ReadBitsRequest) Encode(slaveID byte) ([]byte, error) {
	if r.Function != FuncCodeReadCoils && r.Function != FuncCodeReadDiscreteInputs {
		return nil, fmt.Errorf("modbus: function code 0x%02X does not read bits", r.Function)
	}
	return ProtocolDataUnit{r.Function, uint162Bytes(r.Address, r.Quantity)}.Frame(slaveID), nil
}

func (r *ReadBitsRequest) ParseResponse(frame []byte) (Response, error) {
	resp, err := ParseReadBitsResponse(r.Function, r.Quantity, frame)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ReadRegistersRequest reads holding (0x03) or input (0x04) registers.
//
// Request:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x03 or 0x04)
//	Starting address      : 2 bytes
//	Quantity of registers : 2 bytes
type ReadRegistersRequest struct {
	Function byte
	Address  uint16
	Quantity uint16
}

func ReadHoldingRegisters(address, quantity uint16) *ReadRegistersRequest {
	return &ReadRegistersRequest{Function: FuncCodeReadHoldingRegisters, Address: address, Quantity: quantity}
}

func ReadInputRegisters(address, quantity uint16) *ReadRegistersRequest {
	return &ReadRegistersRequest{Function: FuncCodeReadInputRegisters, Address: address, Quantity: quantity}
}

func (r *ReadRegistersRequest) FunctionCode() byte { return r.Function }

func (r *ReadRegistersRequest) Encode(slaveID byte) ([]byte, error) {
	if r.Function != FuncCodeReadHoldingRegisters && r.Function != FuncCodeReadInputRegisters {
		return nil, fmt.Errorf("modbus: function code 0x%02X does not read registers", r.Function)
	}
	return ProtocolDataUnit{r.Function, uint162Bytes(r.Address, r.Quantity)}.Frame(slaveID), nil
}

func (r *ReadRegistersRequest) ParseResponse(frame []byte) (Response, error) {
	resp, err := ParseReadRegistersResponse(r.Function, r.Quantity, frame)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WriteSingleCoilRequest switches one coil on or off.
//
// Request:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x05)
//	Output address        : 2 bytes
//	Output value          : 2 bytes (0xFF00 on, 0x0000 off)
type WriteSingleCoilRequest struct {
	Address uint16
	On      bool
}

func WriteSingleCoil(address uint16, on bool) *WriteSingleCoilRequest {
	return &WriteSingleCoilRequest{Address: address, On: on}
}

func (r *WriteSingleCoilRequest) FunctionCode() byte { return FuncCodeWriteSingleCoil }

func (r *WriteSingleCoilRequest) Encode(slaveID byte) ([]byte, error) {
	value := uint16(CoilOff)
	if r.On {
		value = CoilOn
	}
	return ProtocolDataUnit{FuncCodeWriteSingleCoil, uint162Bytes(r.Address, value)}.Frame(slaveID), nil
}

func (r *WriteSingleCoilRequest) ParseResponse(frame []byte) (Response, error) {
	resp, err := ParseWriteSingleCoilResponse(frame)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WriteSingleRegisterRequest writes one holding register.
//
// Request:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x06)
//	Register address      : 2 bytes
//	Register value        : 2 bytes
type WriteSingleRegisterRequest struct {
	Address uint16
	Value   uint16
}

func WriteSingleRegister(address, value uint16) *WriteSingleRegisterRequest {
	return &WriteSingleRegisterRequest{Address: address, Value: value}
}

func (r *WriteSingleRegisterRequest) FunctionCode() byte { return FuncCodeWriteSingleRegister }

func (r *WriteSingleRegisterRequest) Encode(slaveID byte) ([]byte, error) {
	return ProtocolDataUnit{FuncCodeWriteSingleRegister, uint162Bytes(r.Address, r.Value)}.Frame(slaveID), nil
}

func (r *WriteSingleRegisterRequest) ParseResponse(frame []byte) (Response, error) {
	resp, err := ParseWriteSingleRegisterResponse(frame)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WriteMultipleCoilsRequest forces a sequence of coils.
//
// Request:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x0F)
//	Starting address      : 2 bytes
//	Quantity of outputs   : 2 bytes
//	Byte count            : 1 byte
//	Outputs value         : N* bytes
type WriteMultipleCoilsRequest struct {
	Address uint16
	Values  []bool
}

func WriteMultipleCoils(address uint16, values []bool) *WriteMultipleCoilsRequest {
	return &WriteMultipleCoilsRequest{Address: address, Values: values}
}

func (r *WriteMultipleCoilsRequest) FunctionCode() byte { return FuncCodeWriteMultipleCoils }

func (r *WriteMultipleCoilsRequest) Encode(slaveID byte) ([]byte, error) {
	packed, err := PackBits(r.Values)
	if err != nil {
		return nil, err
	}
	data := append(uint162Bytes(r.Address, uint16(len(r.Values))), packed...)
	return ProtocolDataUnit{FuncCodeWriteMultipleCoils, data}.Frame(slaveID), nil
}

func (r *WriteMultipleCoilsRequest) ParseResponse(frame []byte) (Response, error) {
	resp, err := ParseWriteMultipleCoilsResponse(frame)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// WriteMultipleRegistersRequest writes a block of contiguous registers.
//
// Request:
//
//	Slave Id              : 1 byte
//	Function code         : 1 byte (0x10)
//	Starting address      : 2 bytes
//	Quantity of registers : 2 bytes
//	Byte count            : 1 byte
//	Registers value       : N* bytes
type WriteMultipleRegistersRequest struct {
	Address uint16
	Values  []uint16
}

func WriteMultipleRegisters(address uint16, values []uint16) *WriteMultipleRegistersRequest {
	return &WriteMultipleRegistersRequest{Address: address, Values: values}
}

func (r *WriteMultipleRegistersRequest) FunctionCode() byte { return FuncCodeWriteMultipleRegisters }

func (r *WriteMultipleRegistersRequest) Encode(slaveID byte) ([]byte, error) {
	packed, err := PackRegisters(r.Values)
	if err != nil {
		return nil, err
	}
	data := append(uint162Bytes(r.Address, uint16(len(r.Values))), packed...)
	return ProtocolDataUnit{FuncCodeWriteMultipleRegisters, data}.Frame(slaveID), nil
}

func (r *WriteMultipleRegistersRequest) ParseResponse(frame []byte) (Response, error) {
	resp, err := ParseWriteMultipleRegistersResponse(frame)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
