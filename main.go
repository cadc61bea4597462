// Copyright (c) 2025 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ffutop/modbus-serial/internal/config"
	"github.com/ffutop/modbus-serial/master"
	"github.com/ffutop/modbus-serial/transport/serial"
)

const usage = `Usage: modbus-serial [flags] <function> <slave> <address> [quantity|values...]

Functions:
  read-coils               <slave> <address> <quantity>
  read-discrete-inputs     <slave> <address> <quantity>
  read-holding-registers   <slave> <address> <quantity>
  read-input-registers     <slave> <address> <quantity>
  write-coil               <slave> <address> <0|1>
  write-register           <slave> <address> <value>
  write-coils              <slave> <address> <0|1>...
  write-registers          <slave> <address> <value>...
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one request. Results go to out, diagnostics to errOut.
func run(args []string, out, errOut io.Writer) int {
	cfg, err := config.LoadConfig("modbus-serial", args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(out, usage)
			return 0
		}
		fmt.Fprintf(errOut, "Failed to load configuration: %v\n", err)
		return 2
	}

	cmd, err := parseCommand(cfg.Args)
	if err != nil {
		fmt.Fprintf(errOut, "%v\n\n%s", err, usage)
		return 2
	}

	setupLogger(cfg.Log, errOut)
	if cfg.ConfigFile != "" {
		slog.Debug("configuration loaded", "file", cfg.ConfigFile)
	}

	codec, err := master.NewCodec(cfg.Mode, cfg.ASCIIEOLBoundary)
	if err != nil {
		slog.Error("Invalid transmission mode", "err", err)
		return 2
	}

	port := serial.New(cfg.Serial)
	m := master.New(port, codec,
		master.WithLogger(slog.Default()),
		master.WithSilenceTimeout(cfg.SilenceTimeout),
		master.WithResponseTimeout(cfg.ResponseTimeout),
		master.WithBaudRate(cfg.Serial.BaudRate),
	)
	defer m.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Debug("sending request", "device", cfg.Serial.Device, "function", cmd.name, "slave_id", cmd.slaveID, "address", cmd.address)
	if err := cmd.run(ctx, m, out); err != nil {
		slog.Error("Request failed", "function", cmd.name, "slave_id", cmd.slaveID, "err", err)
		return 1
	}
	return 0
}

func setupLogger(cfg config.LogConfig, errOut io.Writer) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.File != "" && cfg.File != "-" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(errOut, "Failed to open log file, falling back to stderr: %v\n", err)
			handler = slog.NewTextHandler(errOut, opts)
		} else {
			handler = slog.NewTextHandler(f, opts)
		}
	} else {
		handler = slog.NewTextHandler(errOut, opts)
	}
	slog.SetDefault(slog.New(handler))
}
