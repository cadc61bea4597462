// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package master

import (
	"context"
	"fmt"

	"github.com/ffutop/modbus-serial/modbus"
)

func checkQuantity(quantity, min, max uint16) error {
	if quantity < min || quantity > max {
		return fmt.Errorf("%w: '%v' must be between '%v' and '%v'", ErrInvalidQuantity, quantity, min, max)
	}
	return nil
}

func checkRange(address, quantity uint16) error {
	if int(address)+int(quantity) > 0x10000 {
		return fmt.Errorf("%w: address '%v' plus quantity '%v' exceeds the address space", ErrInvalidQuantity, address, quantity)
	}
	return nil
}

// ReadCoils reads 1 to 2000 contiguous coil statuses.
func (m *Master) ReadCoils(ctx context.Context, slaveID byte, address, quantity uint16) ([]bool, error) {
	return m.readBits(ctx, slaveID, modbus.ReadCoils(address, quantity))
}

// ReadDiscreteInputs reads 1 to 2000 contiguous discrete input statuses.
func (m *Master) ReadDiscreteInputs(ctx context.Context, slaveID byte, address, quantity uint16) ([]bool, error) {
	return m.readBits(ctx, slaveID, modbus.ReadDiscreteInputs(address, quantity))
}

func (m *Master) readBits(ctx context.Context, slaveID byte, req *modbus.ReadBitsRequest) ([]bool, error) {
	if err := checkQuantity(req.Quantity, modbus.ReadBitsQuantityMin, modbus.ReadBitsQuantityMax); err != nil {
		return nil, err
	}
	if err := checkRange(req.Address, req.Quantity); err != nil {
		return nil, err
	}
	resp, err := m.Do(ctx, slaveID, req)
	if err != nil {
		return nil, err
	}
	return resp.(*modbus.ReadBitsResponse).Status, nil
}

// ReadHoldingRegisters reads 1 to 125 contiguous holding registers.
func (m *Master) ReadHoldingRegisters(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint16, error) {
	return m.readRegisters(ctx, slaveID, modbus.ReadHoldingRegisters(address, quantity))
}

// ReadInputRegisters reads 1 to 125 contiguous input registers.
func (m *Master) ReadInputRegisters(ctx context.Context, slaveID byte, address, quantity uint16) ([]uint16, error) {
	return m.readRegisters(ctx, slaveID, modbus.ReadInputRegisters(address, quantity))
}

func (m *Master) readRegisters(ctx context.Context, slaveID byte, req *modbus.ReadRegistersRequest) ([]uint16, error) {
	if err := checkQuantity(req.Quantity, modbus.ReadRegQuantityMin, modbus.ReadRegQuantityMax); err != nil {
		return nil, err
	}
	if err := checkRange(req.Address, req.Quantity); err != nil {
		return nil, err
	}
	resp, err := m.Do(ctx, slaveID, req)
	if err != nil {
		return nil, err
	}
	return resp.(*modbus.ReadRegistersResponse).Values, nil
}

// WriteSingleCoil switches one coil on or off.
func (m *Master) WriteSingleCoil(ctx context.Context, slaveID byte, address uint16, on bool) error {
	req := modbus.WriteSingleCoil(address, on)
	value := uint16(modbus.CoilOff)
	if on {
		value = modbus.CoilOn
	}
	return m.writeSingle(ctx, slaveID, req, address, value)
}

// WriteSingleRegister writes one holding register.
func (m *Master) WriteSingleRegister(ctx context.Context, slaveID byte, address, value uint16) error {
	return m.writeSingle(ctx, slaveID, modbus.WriteSingleRegister(address, value), address, value)
}

func (m *Master) writeSingle(ctx context.Context, slaveID byte, req modbus.Request, address, value uint16) error {
	resp, err := m.Do(ctx, slaveID, req)
	if err != nil || resp == nil {
		return err
	}
	echo := resp.(*modbus.WriteSingleResponse)
	if echo.Address != address {
		return fmt.Errorf("%w: response address '%v' does not match request '%v'", modbus.ErrMalformedResponse, echo.Address, address)
	}
	if echo.Value != value {
		return fmt.Errorf("%w: response value '%v' does not match request '%v'", modbus.ErrMalformedResponse, echo.Value, value)
	}
	return nil
}

// WriteMultipleCoils forces 1 to 1968 contiguous coils.
func (m *Master) WriteMultipleCoils(ctx context.Context, slaveID byte, address uint16, values []bool) error {
	quantity := len(values)
	if quantity > modbus.WriteBitsQuantityMax {
		return fmt.Errorf("%w: '%v' must be between '%v' and '%v'", ErrInvalidQuantity, quantity, modbus.WriteBitsQuantityMin, modbus.WriteBitsQuantityMax)
	}
	if err := checkQuantity(uint16(quantity), modbus.WriteBitsQuantityMin, modbus.WriteBitsQuantityMax); err != nil {
		return err
	}
	return m.writeMultiple(ctx, slaveID, modbus.WriteMultipleCoils(address, values), address, uint16(quantity))
}

// WriteMultipleRegisters writes 1 to 123 contiguous holding registers.
func (m *Master) WriteMultipleRegisters(ctx context.Context, slaveID byte, address uint16, values []uint16) error {
	quantity := len(values)
	if quantity > modbus.WriteRegQuantityMax {
		return fmt.Errorf("%w: '%v' must be between '%v' and '%v'", ErrInvalidQuantity, quantity, modbus.WriteRegQuantityMin, modbus.WriteRegQuantityMax)
	}
	if err := checkQuantity(uint16(quantity), modbus.WriteRegQuantityMin, modbus.WriteRegQuantityMax); err != nil {
		return err
	}
	return m.writeMultiple(ctx, slaveID, modbus.WriteMultipleRegisters(address, values), address, uint16(quantity))
}

func (m *Master) writeMultiple(ctx context.Context, slaveID byte, req modbus.Request, address, quantity uint16) error {
	if err := checkRange(address, quantity); err != nil {
		return err
	}
	resp, err := m.Do(ctx, slaveID, req)
	if err != nil || resp == nil {
		return err
	}
	confirm := resp.(*modbus.WriteMultipleResponse)
	if confirm.Address != address {
		return fmt.Errorf("%w: response address '%v' does not match request '%v'", modbus.ErrMalformedResponse, confirm.Address, address)
	}
	if confirm.Quantity != quantity {
		return fmt.Errorf("%w: response quantity '%v' does not match request '%v'", modbus.ErrMalformedResponse, confirm.Quantity, quantity)
	}
	return nil
}
