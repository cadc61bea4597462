// Copyright (c) 2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package modbus

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRequestEncode(t *testing.T) {
	tests := []struct {
		name    string
		request Request
		want    []byte
	}{
		{"read coils", ReadCoils(0x0013, 0x0025), []byte{0x11, 0x01, 0x00, 0x13, 0x00, 0x25}},
		{"read discrete inputs", ReadDiscreteInputs(0x00C4, 0x0016), []byte{0x11, 0x02, 0x00, 0xC4, 0x00, 0x16}},
		{"read holding registers", ReadHoldingRegisters(0x006B, 0x0003), []byte{0x11, 0x03, 0x00, 0x6B, 0x00, 0x03}},
		{"read input registers", ReadInputRegisters(0x0008, 0x0001), []byte{0x11, 0x04, 0x00, 0x08, 0x00, 0x01}},
		{"write single coil on", WriteSingleCoil(0x00AC, true), []byte{0x11, 0x05, 0x00, 0xAC, 0xFF, 0x00}},
		{"write single coil off", WriteSingleCoil(0x00AC, false), []byte{0x11, 0x05, 0x00, 0xAC, 0x00, 0x00}},
		{"write single register", WriteSingleRegister(0x0001, 0x0003), []byte{0x11, 0x06, 0x00, 0x01, 0x00, 0x03}},
		{
			"write multiple coils",
			WriteMultipleCoils(0x0013, []bool{true, false, true, true, false, false, true, true, true, false}),
			[]byte{0x11, 0x0F, 0x00, 0x13, 0x00, 0x0A, 0x02, 0xCD, 0x01},
		},
		{
			"write multiple registers",
			WriteMultipleRegisters(0x0001, []uint16{0x000A, 0x0102}),
			[]byte{0x11, 0x10, 0x00, 0x01, 0x00, 0x02, 0x04, 0x00, 0x0A, 0x01, 0x02},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.Encode(0x11)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode() = % X, want % X", got, tt.want)
			}
			if got[1] != tt.request.FunctionCode() {
				t.Errorf("FunctionCode() = %#02x, encoded %#02x", tt.request.FunctionCode(), got[1])
			}
		})
	}
}

func TestRequestEncodeErrors(t *testing.T) {
	if _, err := WriteMultipleCoils(0, make([]bool, 2041)).Encode(1); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("WriteMultipleCoils(2041) error = %v, want %v", err, ErrPayloadTooLarge)
	}
	if _, err := WriteMultipleRegisters(0, make([]uint16, 128)).Encode(1); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("WriteMultipleRegisters(128) error = %v, want %v", err, ErrPayloadTooLarge)
	}
	if _, err := (&ReadBitsRequest{Function: FuncCodeReadHoldingRegisters}).Encode(1); err == nil {
		t.Error("ReadBitsRequest with register function code encoded without error")
	}
	if _, err := (&ReadRegistersRequest{Function: FuncCodeReadCoils}).Encode(1); err == nil {
		t.Error("ReadRegistersRequest with bit function code encoded without error")
	}
}

// TestRequestResponseRoundTrip builds the slave answer for each request with
// the responder builders and parses it back through the request.
func TestRequestResponseRoundTrip(t *testing.T) {
	status := []bool{true, true, false, true, false, false, false, true, true, false, true}
	values := []uint16{0x1234, 0xABCD, 0x0000}

	readCoils, _ := ReadBitsResponseFrame(0x05, FuncCodeReadCoils, status)
	readInputs, _ := ReadBitsResponseFrame(0x05, FuncCodeReadDiscreteInputs, status)
	readHolding, _ := ReadRegistersResponseFrame(0x05, FuncCodeReadHoldingRegisters, values)
	readInput, _ := ReadRegistersResponseFrame(0x05, FuncCodeReadInputRegisters, values)
	writeCoils, _ := WriteMultipleResponseFrame(0x05, FuncCodeWriteMultipleCoils, 0x0010, uint16(len(status)))
	writeRegs, _ := WriteMultipleResponseFrame(0x05, FuncCodeWriteMultipleRegisters, 0x0020, uint16(len(values)))

	tests := []struct {
		name    string
		request Request
		frame   []byte
		want    Response
	}{
		{
			"read coils", ReadCoils(0x0010, uint16(len(status))), readCoils,
			&ReadBitsResponse{Header{0x05, FuncCodeReadCoils}, 2, status},
		},
		{
			"read discrete inputs", ReadDiscreteInputs(0x0010, uint16(len(status))), readInputs,
			&ReadBitsResponse{Header{0x05, FuncCodeReadDiscreteInputs}, 2, status},
		},
		{
			"read holding registers", ReadHoldingRegisters(0x0020, uint16(len(values))), readHolding,
			&ReadRegistersResponse{Header{0x05, FuncCodeReadHoldingRegisters}, 6, values},
		},
		{
			"read input registers", ReadInputRegisters(0x0020, uint16(len(values))), readInput,
			&ReadRegistersResponse{Header{0x05, FuncCodeReadInputRegisters}, 6, values},
		},
		{
			"write single coil", WriteSingleCoil(0x0030, true), WriteSingleCoilResponseFrame(0x05, 0x0030, true),
			&WriteSingleResponse{Header{0x05, FuncCodeWriteSingleCoil}, 0x0030, CoilOn},
		},
		{
			"write single register", WriteSingleRegister(0x0031, 0xBEEF), WriteSingleRegisterResponseFrame(0x05, 0x0031, 0xBEEF),
			&WriteSingleResponse{Header{0x05, FuncCodeWriteSingleRegister}, 0x0031, 0xBEEF},
		},
		{
			"write multiple coils", WriteMultipleCoils(0x0010, status), writeCoils,
			&WriteMultipleResponse{Header{0x05, FuncCodeWriteMultipleCoils}, 0x0010, uint16(len(status))},
		},
		{
			"write multiple registers", WriteMultipleRegisters(0x0020, values), writeRegs,
			&WriteMultipleResponse{Header{0x05, FuncCodeWriteMultipleRegisters}, 0x0020, uint16(len(values))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ParseResponse(tt.frame)
			if err != nil {
				t.Fatalf("ParseResponse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseResponse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRequestParseResponseError(t *testing.T) {
	got, err := ReadCoils(0, 8).ParseResponse([]byte{0x01, 0x81, 0x04})
	if got != nil {
		t.Errorf("ParseResponse() = %#v, want nil response", got)
	}
	var exc *ExceptionError
	if !errors.As(err, &exc) || exc.ExceptionCode != ExceptionCodeServerDeviceFailure {
		t.Errorf("ParseResponse() error = %v, want server device failure exception", err)
	}
}
