// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

// Package modbus implements the protocol data unit layer of Modbus serial
// line communication: request encoders, response parsers, the responder
// side frame builders and the bit and register packing they share.
//
// Every byte sequence produced or consumed here is an address-prefixed PDU:
//
//	Slave Address   : 1 byte
//	Function        : 1 byte
//	Data            : 0 up to 252 bytes
//
// Checksums and delimiters are added by the framing codecs in modbus/rtu and
// modbus/ascii.
package modbus

import "fmt"

// Function Codes
const (
	FuncCodeReadCoils              = 0x01
	FuncCodeReadDiscreteInputs     = 0x02
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleCoil        = 0x05
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleCoils     = 0x0F
	FuncCodeWriteMultipleRegisters = 0x10
)

// ExceptionFlag is set in the function code of an exception response.
const ExceptionFlag = 0x80

// Exception Codes
const (
	ExceptionCodeIllegalFunction                    = 0x01
	ExceptionCodeIllegalDataAddress                 = 0x02
	ExceptionCodeIllegalDataValue                   = 0x03
	ExceptionCodeServerDeviceFailure                = 0x04
	ExceptionCodeAcknowledge                        = 0x05
	ExceptionCodeServerDeviceBusy                   = 0x06
	ExceptionCodeMemoryParityError                  = 0x08
	ExceptionCodeGatewayPathUnavailable             = 0x0A
	ExceptionCodeGatewayTargetDeviceFailedToRespond = 0x0B
)

// Slave addresses.
const (
	AddressBroadcast = 0
	AddressMin       = 1
	AddressMax       = 247
)

// Quantity limits of a single request.
const (
	ReadBitsQuantityMin  = 1
	ReadBitsQuantityMax  = 2000
	WriteBitsQuantityMin = 1
	WriteBitsQuantityMax = 1968
	ReadRegQuantityMin   = 1
	ReadRegQuantityMax   = 125
	WriteRegQuantityMin  = 1
	WriteRegQuantityMax  = 123
)

// CoilOn and CoilOff are the only values a Write Single Coil request carries.
const (
	CoilOn  = 0xFF00
	CoilOff = 0x0000
)

// ProtocolDataUnit (PDU) is independent of underlying communication layers.
type ProtocolDataUnit struct {
	FunctionCode byte
	Data         []byte
}

// Frame returns the address-prefixed byte form of pdu.
func (pdu ProtocolDataUnit) Frame(slaveID byte) []byte {
	b := make([]byte, 0, 2+len(pdu.Data))
	b = append(b, slaveID, pdu.FunctionCode)
	return append(b, pdu.Data...)
}

// SplitFrame separates an address-prefixed frame into its slave address and
// PDU. The PDU data aliases frame.
func SplitFrame(frame []byte) (byte, ProtocolDataUnit, error) {
	if len(frame) < 2 {
		return 0, ProtocolDataUnit{}, fmt.Errorf("%w: frame length %d is below minimum 2", ErrMalformedResponse, len(frame))
	}
	return frame[0], ProtocolDataUnit{FunctionCode: frame[1], Data: frame[2:]}, nil
}

// IsException reports whether functionCode carries the exception flag.
func IsException(functionCode byte) bool {
	return functionCode&ExceptionFlag != 0
}

// FunctionName returns a readable name for the supported function codes.
func FunctionName(functionCode byte) string {
	switch functionCode &^ ExceptionFlag {
	case FuncCodeReadCoils:
		return "read coils"
	case FuncCodeReadDiscreteInputs:
		return "read discrete inputs"
	case FuncCodeReadHoldingRegisters:
		return "read holding registers"
	case FuncCodeReadInputRegisters:
		return "read input registers"
	case FuncCodeWriteSingleCoil:
		return "write single coil"
	case FuncCodeWriteSingleRegister:
		return "write single register"
	case FuncCodeWriteMultipleCoils:
		return "write multiple coils"
	case FuncCodeWriteMultipleRegisters:
		return "write multiple registers"
	default:
		return fmt.Sprintf("function 0x%02X", functionCode&^ExceptionFlag)
	}
}
