// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import "fmt"

// The builders below produce the address-prefixed frames a slave sends back.
// They mirror the request encoders; handling requests is left to the caller.

// ExceptionFrame builds [slaveID, functionCode|0x80, exceptionCode].
func ExceptionFrame(slaveID, functionCode, exceptionCode byte) []byte {
	return []byte{slaveID, functionCode | ExceptionFlag, exceptionCode}
}

// ReadBitsResponseFrame answers a coil or discrete input read.
func ReadBitsResponseFrame(slaveID, functionCode byte, status []bool) ([]byte, error) {
	if functionCode != FuncCodeReadCoils && functionCode != FuncCodeReadDiscreteInputs {
		return nil, fmt.Errorf("modbus: function code 0x%02X does not read bits", functionCode)
	}
	packed, err := PackBits(status)
	if err != nil {
		return nil, err
	}
	return ProtocolDataUnit{functionCode, packed}.Frame(slaveID), nil
}

// ReadRegistersResponseFrame answers a holding or input register read.
func ReadRegistersResponseFrame(slaveID, functionCode byte, values []uint16) ([]byte, error) {
	if functionCode != FuncCodeReadHoldingRegisters && functionCode != FuncCodeReadInputRegisters {
		return nil, fmt.Errorf("modbus: function code 0x%02X does not read registers", functionCode)
	}
	packed, err := PackRegisters(values)
	if err != nil {
		return nil, err
	}
	return ProtocolDataUnit{functionCode, packed}.Frame(slaveID), nil
}

// WriteSingleCoilResponseFrame is the echo of a Write Single Coil request.
func WriteSingleCoilResponseFrame(slaveID byte, address uint16, on bool) []byte {
	value := uint16(CoilOff)
	if on {
		value = CoilOn
	}
	return ProtocolDataUnit{FuncCodeWriteSingleCoil, uint162Bytes(address, value)}.Frame(slaveID)
}

// WriteSingleRegisterResponseFrame is the echo of a Write Single Register request.
func WriteSingleRegisterResponseFrame(slaveID byte, address, value uint16) []byte {
	return ProtocolDataUnit{FuncCodeWriteSingleRegister, uint162Bytes(address, value)}.Frame(slaveID)
}

// WriteMultipleResponseFrame confirms a Write Multiple Coils or Write
// Multiple Registers request.
func WriteMultipleResponseFrame(slaveID, functionCode byte, address, quantity uint16) ([]byte, error) {
	if functionCode != FuncCodeWriteMultipleCoils && functionCode != FuncCodeWriteMultipleRegisters {
		return nil, fmt.Errorf("modbus: function code 0x%02X is not a multiple write", functionCode)
	}
	return ProtocolDataUnit{functionCode, uint162Bytes(address, quantity)}.Frame(slaveID), nil
}
