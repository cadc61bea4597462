// Copyright (c) 2025-2026 Li Jinling. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD-3 Clause License. See the LICENSE file for details.

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ffutop/modbus-serial/modbus/rtu"
)

// Transmission modes.
const (
	ModeRTU   = "rtu"
	ModeASCII = "ascii"
)

// asciiSilence is the longest gap allowed between characters of an ASCII frame.
const asciiSilence = time.Second

// Config defines the global configuration structure
type Config struct {
	Mode             string        `mapstructure:"mode"`               // rtu, ascii
	SilenceTimeout   time.Duration `mapstructure:"silence_timeout"`    // Inter-frame silence, 0 derives it from the baud rate
	ResponseTimeout  time.Duration `mapstructure:"response_timeout"`   // Overall deadline of one request
	ASCIIEOLBoundary bool          `mapstructure:"ascii_eol_boundary"` // End ASCII frames on CRLF
	Serial           SerialConfig  `mapstructure:"serial"`
	Log              LogConfig     `mapstructure:"log"`

	// ConfigFile is the file the configuration was read from, if any.
	ConfigFile string `mapstructure:"-"`
	// Args holds the positional command line arguments.
	Args []string `mapstructure:"-"`
}

// LogConfig defines logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	File  string `mapstructure:"file"`  // Log file path
}

// SerialConfig defines serial line settings
type SerialConfig struct {
	Device      string        `mapstructure:"device"`
	BaudRate    int           `mapstructure:"baud_rate"`
	DataBits    int           `mapstructure:"data_bits"`
	Parity      string        `mapstructure:"parity"`
	StopBits    int           `mapstructure:"stop_bits"`
	Timeout     time.Duration `mapstructure:"timeout"`      // Read timeout of the port
	IdleTimeout time.Duration `mapstructure:"idle_timeout"` // Close the port after this much inactivity
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeRTU)
	v.SetDefault("silence_timeout", 4*time.Millisecond)
	v.SetDefault("response_timeout", 500*time.Millisecond)
	v.SetDefault("ascii_eol_boundary", true)
	v.SetDefault("serial.device", "/dev/ttyUSB0")
	v.SetDefault("serial.baud_rate", 19200)
	v.SetDefault("serial.data_bits", 8)
	v.SetDefault("serial.parity", "N")
	v.SetDefault("serial.stop_bits", 1)
	v.SetDefault("serial.timeout", 50*time.Millisecond)
	v.SetDefault("serial.idle_timeout", 60*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
}

// NewFlagSet defines the command line flags. Their defaults are taken from v.
func NewFlagSet(name string, v *viper.Viper) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "Configuration file path.")
	fs.StringP("mode", "m", v.GetString("mode"), "Transmission mode (rtu, ascii).")
	fs.DurationP("silence_timeout", "t", v.GetDuration("silence_timeout"), "Inter-frame silence timeout, 0 derives it from the baud rate.")
	fs.DurationP("response_timeout", "W", v.GetDuration("response_timeout"), "Response wait time.")
	fs.Bool("ascii_eol_boundary", v.GetBool("ascii_eol_boundary"), "End ASCII frames on CRLF without waiting for silence.")
	fs.StringP("serial.device", "p", v.GetString("serial.device"), "Serial port device name.")
	fs.IntP("serial.baud_rate", "s", v.GetInt("serial.baud_rate"), "Serial port speed.")
	fs.Int("serial.data_bits", v.GetInt("serial.data_bits"), "Serial port data bits.")
	fs.String("serial.parity", v.GetString("serial.parity"), "Serial port parity (N, E, O).")
	fs.Int("serial.stop_bits", v.GetInt("serial.stop_bits"), "Serial port stop bits.")
	fs.Duration("serial.timeout", v.GetDuration("serial.timeout"), "Serial port read timeout.")
	fs.Duration("serial.idle_timeout", v.GetDuration("serial.idle_timeout"), "Close the port after this much inactivity, 0 keeps it open.")
	fs.StringP("log.level", "v", v.GetString("log.level"), "Log verbosity level (debug, info, warn, error).")
	fs.StringP("log.file", "L", v.GetString("log.file"), "Log file name ('-' for logging to STDOUT only).")
	return fs
}

// LoadConfig loads configuration from the command line and the config file.
// Command line flags take precedence over the file, the file over defaults.
func LoadConfig(name string, args []string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	fs := NewFlagSet(name, v)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind pflags: %w", err)
	}

	configFile, _ := fs.GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/modbus-serial/")
		v.AddConfigPath("$HOME/.modbus-serial")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		// flags and defaults are enough without a file
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.ConfigFile = v.ConfigFileUsed()
	config.Args = fs.Args()

	fixup(&config)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func fixup(c *Config) {
	c.Mode = strings.ToLower(c.Mode)
	c.Serial.Parity = strings.ToUpper(c.Serial.Parity)
	c.Log.Level = strings.ToLower(c.Log.Level)
	if c.SilenceTimeout == 0 {
		if c.Mode == ModeASCII {
			c.SilenceTimeout = asciiSilence
		} else {
			c.SilenceTimeout = rtu.SilenceInterval(c.Serial.BaudRate)
		}
	}
}

// Validate reports every invalid setting of c.
func (c *Config) Validate() error {
	var errs []error
	if c.Mode != ModeRTU && c.Mode != ModeASCII {
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"silence_timeout", c.SilenceTimeout},
		{"response_timeout", c.ResponseTimeout},
		{"serial.timeout", c.Serial.Timeout},
		{"serial.idle_timeout", c.Serial.IdleTimeout},
	} {
		if d.value < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative: %v", d.key, d.value))
		}
	}
	if c.Serial.BaudRate <= 0 {
		errs = append(errs, fmt.Errorf("serial.baud_rate must be positive: %d", c.Serial.BaudRate))
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		errs = append(errs, fmt.Errorf("serial.data_bits must be between 5 and 8: %d", c.Serial.DataBits))
	}
	switch c.Serial.Parity {
	case "N", "E", "O":
	default:
		errs = append(errs, fmt.Errorf("serial.parity must be N, E or O: %q", c.Serial.Parity))
	}
	if c.Serial.StopBits != 1 && c.Serial.StopBits != 2 {
		errs = append(errs, fmt.Errorf("serial.stop_bits must be 1 or 2: %d", c.Serial.StopBits))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
