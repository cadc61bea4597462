// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ffutop/modbus-serial/master"
)

// command is one request parsed from the positional arguments.
type command struct {
	name    string
	slaveID byte
	address uint16

	quantity  uint16
	bits      []bool
	registers []uint16
}

func parseCommand(args []string) (*command, error) {
	if len(args) < 3 {
		return nil, fmt.Errorf("expected a function, a slave id and an address")
	}
	cmd := &command{name: args[0]}

	slaveID, err := strconv.ParseUint(args[1], 0, 8)
	if err != nil {
		return nil, fmt.Errorf("invalid slave id %q: %w", args[1], err)
	}
	cmd.slaveID = byte(slaveID)
	address, err := strconv.ParseUint(args[2], 0, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", args[2], err)
	}
	cmd.address = uint16(address)
	rest := args[3:]

	switch cmd.name {
	case "read-coils", "read-discrete-inputs", "read-holding-registers", "read-input-registers":
		if len(rest) != 1 {
			return nil, fmt.Errorf("%s expects exactly one quantity", cmd.name)
		}
		quantity, err := strconv.ParseUint(rest[0], 0, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid quantity %q: %w", rest[0], err)
		}
		cmd.quantity = uint16(quantity)
	case "write-coil", "write-register":
		if len(rest) != 1 {
			return nil, fmt.Errorf("%s expects exactly one value", cmd.name)
		}
		fallthrough
	case "write-coils", "write-registers":
		if len(rest) == 0 {
			return nil, fmt.Errorf("%s expects at least one value", cmd.name)
		}
		for _, s := range rest {
			if strings.Contains(cmd.name, "coil") {
				on, err := strconv.ParseBool(s)
				if err != nil {
					return nil, fmt.Errorf("invalid coil value %q: %w", s, err)
				}
				cmd.bits = append(cmd.bits, on)
				continue
			}
			v, err := strconv.ParseUint(s, 0, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid register value %q: %w", s, err)
			}
			cmd.registers = append(cmd.registers, uint16(v))
		}
	default:
		return nil, fmt.Errorf("unknown function %q", cmd.name)
	}
	return cmd, nil
}

func (c *command) run(ctx context.Context, m *master.Master, out io.Writer) error {
	switch c.name {
	case "read-coils":
		bits, err := m.ReadCoils(ctx, c.slaveID, c.address, c.quantity)
		if err != nil {
			return err
		}
		printBits(out, c.address, bits)
	case "read-discrete-inputs":
		bits, err := m.ReadDiscreteInputs(ctx, c.slaveID, c.address, c.quantity)
		if err != nil {
			return err
		}
		printBits(out, c.address, bits)
	case "read-holding-registers":
		values, err := m.ReadHoldingRegisters(ctx, c.slaveID, c.address, c.quantity)
		if err != nil {
			return err
		}
		printRegisters(out, c.address, values)
	case "read-input-registers":
		values, err := m.ReadInputRegisters(ctx, c.slaveID, c.address, c.quantity)
		if err != nil {
			return err
		}
		printRegisters(out, c.address, values)
	case "write-coil":
		return m.WriteSingleCoil(ctx, c.slaveID, c.address, c.bits[0])
	case "write-register":
		return m.WriteSingleRegister(ctx, c.slaveID, c.address, c.registers[0])
	case "write-coils":
		return m.WriteMultipleCoils(ctx, c.slaveID, c.address, c.bits)
	case "write-registers":
		return m.WriteMultipleRegisters(ctx, c.slaveID, c.address, c.registers)
	}
	return nil
}

func printBits(out io.Writer, address uint16, bits []bool) {
	for i, on := range bits {
		v := 0
		if on {
			v = 1
		}
		fmt.Fprintf(out, "%d\t%d\n", int(address)+i, v)
	}
}

func printRegisters(out io.Writer, address uint16, values []uint16) {
	for i, v := range values {
		fmt.Fprintf(out, "%d\t%d\t0x%04X\n", int(address)+i, v, v)
	}
}
