//
// config.go
//
// Copyright (c) 2025 Dyslex7c
//
// All rights reserved.
//

// Package config holds the server configuration: the listen
// endpoint, Bob's multiplicative share, the public key override, and
// the transport limits.
package config

import (
	"encoding/hex"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

const (
	defaultListenAddr         = "0.0.0.0"
	defaultPort               = 8080
	defaultMaxFrameSize       = 1 << 20
	defaultReadTimeoutSeconds = 30
)

// Config is the server configuration. Zero-valued listen address,
// port, maximum frame size and read timeout are filled by
// WithDefaults; the other fields keep their zero values.
type Config struct {
	// The address the TCP listener binds to.
	ListenAddr string `yaml:"listenAddr"`
	// The TCP port the listener binds to.
	Port int `yaml:"port"`
	// Bob's multiplicative share. Zero means the share is adopted
	// from the correlation delta of each session.
	YShare uint32 `yaml:"yShare"`
	// Hex-encoded public key sent in the setup message. Empty means
	// the placeholder sequence 0x00..0x40.
	PublicKey string `yaml:"publicKey"`
	// Maximum accepted frame payload size in bytes.
	MaxFrameSize uint32 `yaml:"maxFrameSize"`
	// Per-read deadline in seconds. A negative value disables the
	// deadline.
	ReadTimeoutSeconds int `yaml:"readTimeoutSeconds"`
	// Enables debug logging and the per-session timing report.
	Verbose bool `yaml:"verbose"`
}

// WithDefaults returns a copy of the Config with any missing fields
// set to their default values.
func (c Config) WithDefaults() Config {
	cpy := c
	if cpy.ListenAddr == "" {
		cpy.ListenAddr = defaultListenAddr
	}
	if cpy.Port == 0 {
		cpy.Port = defaultPort
	}
	if cpy.MaxFrameSize == 0 {
		cpy.MaxFrameSize = defaultMaxFrameSize
	}
	if cpy.ReadTimeoutSeconds == 0 {
		cpy.ReadTimeoutSeconds = defaultReadTimeoutSeconds
	}
	return cpy
}

// ReadTimeout returns the per-read deadline, or zero when disabled.
func (c Config) ReadTimeout() time.Duration {
	if c.ReadTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("invalid port: %d", c.Port)
	}
	if _, err := c.PublicKeyBytes(); err != nil {
		return err
	}
	return nil
}

// PublicKeyBytes decodes the public key override, or nil when unset.
func (c Config) PublicKeyBytes() ([]byte, error) {
	if c.PublicKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.PublicKey)
	if err != nil {
		return nil, errors.Wrap(err, "public key")
	}
	if len(key) > 256 {
		return nil, errors.Errorf("public key too large: %d bytes", len(key))
	}
	return key, nil
}

// Load reads a YAML configuration file.
func Load(path string) (Config, error) {
	var c Config
	data, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, "load config")
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, errors.Wrap(err, "load config")
	}
	return c, nil
}

// CreateLogger builds the process logger.
func (c Config) CreateLogger() (*zap.Logger, error) {
	var logger *zap.Logger
	var err error
	if c.Verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	return logger, errors.Wrap(err, "create logger")
}
