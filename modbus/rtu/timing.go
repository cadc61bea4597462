// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package rtu

import (
	"encoding/binary"
	"time"

	"github.com/ffutop/modbus-serial/modbus"
)

// CalculateResponseLength returns the expected length of the RTU response to
// the address-prefixed request adu. Requests that are too short to carry a
// quantity are sized as an exception response.
func CalculateResponseLength(adu []byte) int {
	length := MinSize
	if len(adu) < 2 {
		return ExceptionSize
	}
	switch adu[1] {
	case modbus.FuncCodeReadDiscreteInputs,
		modbus.FuncCodeReadCoils:
		if len(adu) < 6 {
			return ExceptionSize
		}
		count := int(binary.BigEndian.Uint16(adu[4:]))
		length += 1 + count/8
		if count%8 != 0 {
			length++
		}
	case modbus.FuncCodeReadInputRegisters,
		modbus.FuncCodeReadHoldingRegisters:
		if len(adu) < 6 {
			return ExceptionSize
		}
		count := int(binary.BigEndian.Uint16(adu[4:]))
		length += 1 + count*2
	case modbus.FuncCodeWriteSingleCoil,
		modbus.FuncCodeWriteMultipleCoils,
		modbus.FuncCodeWriteSingleRegister,
		modbus.FuncCodeWriteMultipleRegisters:
		length += 4
	default:
		return ExceptionSize
	}
	return length
}

// CalculateDelay returns the time chars characters take on the line at
// baudRate plus one inter-frame gap. Above 19200 baud the fixed 750us
// character and 1750us frame timings apply.
func CalculateDelay(baudRate, chars int) time.Duration {
	var characterDelay, frameDelay int

	if baudRate <= 0 || baudRate > 19200 {
		characterDelay = 750
		frameDelay = 1750
	} else {
		characterDelay = 15000000 / baudRate
		frameDelay = 35000000 / baudRate
	}
	return time.Duration(characterDelay*chars+frameDelay) * time.Microsecond
}

// SilenceInterval is the 3.5 character time that separates frames at baudRate.
func SilenceInterval(baudRate int) time.Duration {
	return CalculateDelay(baudRate, 0)
}
