package gpib

import (
	"io"
	"log/slog"
	"time"
)

// Config holds the session configuration for a GPIB device. The snapshot
// is taken at construction and handed to the driver on Connect; it is not
// consulted again afterwards.
type Config struct {
	SecondaryAddress int           // Secondary address, 0 means not used
	Timeout          time.Duration // I/O timeout, NoTimeout disables it
	SendEOI          bool          // Assert EOI with the last byte of every write
	EOSMode          EOSMode       // End-of-string handling bits
	EOSChar          byte          // End-of-string character
	Logger           *slog.Logger  // Diagnostic logging target
}

// Option is a functional option for configuring a GPIB device
type Option func(*Config) error

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
		SendEOI: true,
		EOSMode: EOSNone,
		EOSChar: 0,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// session converts the configuration into the driver's session snapshot.
func (c Config) session() SessionConfig {
	return SessionConfig{
		Timeout: QuantizeTimeout(c.Timeout),
		SendEOI: c.SendEOI,
		EOS:     uint16(c.EOSMode) | uint16(c.EOSChar),
	}
}

// WithSecondaryAddress sets the device's secondary address. Valid values
// are 0 (not used) or 0x60 through 0x7e.
func WithSecondaryAddress(sad int) Option {
	return func(c *Config) error {
		if sad != 0 && (sad < 0x60 || sad > 0x7e) {
			return ErrInvalidConfig
		}
		c.SecondaryAddress = sad
		return nil
	}
}

// WithTimeout sets the I/O timeout. The duration is quantized to the
// nearest discrete driver timeout code on connect; pass NoTimeout to
// disable timeouts entirely.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout < 0 && timeout != NoTimeout {
			return ErrInvalidConfig
		}
		c.Timeout = timeout
		return nil
	}
}

// WithNoTimeout disables the I/O timeout. Operations may then block the
// dispatcher worker indefinitely.
func WithNoTimeout() Option {
	return func(c *Config) error {
		c.Timeout = NoTimeout
		return nil
	}
}

// WithSendEOI controls whether EOI is asserted with the last byte of each
// write. Enabled by default.
func WithSendEOI(enable bool) Option {
	return func(c *Config) error {
		c.SendEOI = enable
		return nil
	}
}

// WithEOS sets the end-of-string mode bits and the end-of-string
// character.
func WithEOS(mode EOSMode, char byte) Option {
	return func(c *Config) error {
		if mode&^(EOSRead|EOSWrite|EOSBinary) != 0 {
			return ErrInvalidConfig
		}
		c.EOSMode = mode
		c.EOSChar = char
		return nil
	}
}

// WithLogger sets the logger used for diagnostic output. Logging is
// discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		if logger == nil {
			return ErrInvalidConfig
		}
		c.Logger = logger
		return nil
	}
}
