package gpib

import (
	"log/slog"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Timeout != 10*time.Second {
		t.Errorf("Expected Timeout 10s, got %v", config.Timeout)
	}

	if !config.SendEOI {
		t.Error("Expected SendEOI true")
	}

	if config.EOSMode != EOSNone {
		t.Errorf("Expected EOSMode None, got %v", config.EOSMode)
	}

	if config.EOSChar != 0 {
		t.Errorf("Expected EOSChar NUL, got %d", config.EOSChar)
	}

	if config.SecondaryAddress != 0 {
		t.Errorf("Expected SecondaryAddress 0, got %d", config.SecondaryAddress)
	}

	if config.Logger == nil {
		t.Error("Expected non-nil default logger")
	}
}

func TestFunctionalOptions(t *testing.T) {
	config := DefaultConfig()

	// Test WithTimeout
	err := WithTimeout(3 * time.Second)(&config)
	if err != nil {
		t.Errorf("WithTimeout failed: %v", err)
	}
	if config.Timeout != 3*time.Second {
		t.Errorf("Expected Timeout 3s, got %v", config.Timeout)
	}

	// Test WithNoTimeout
	err = WithNoTimeout()(&config)
	if err != nil {
		t.Errorf("WithNoTimeout failed: %v", err)
	}
	if config.Timeout != NoTimeout {
		t.Errorf("Expected Timeout NoTimeout, got %v", config.Timeout)
	}

	// Test WithSendEOI
	err = WithSendEOI(false)(&config)
	if err != nil {
		t.Errorf("WithSendEOI failed: %v", err)
	}
	if config.SendEOI {
		t.Error("Expected SendEOI false")
	}

	// Test WithEOS
	err = WithEOS(EOSRead|EOSBinary, '\n')(&config)
	if err != nil {
		t.Errorf("WithEOS failed: %v", err)
	}
	if config.EOSMode != EOSRead|EOSBinary {
		t.Errorf("Expected EOSMode REOS|BIN, got %v", config.EOSMode)
	}
	if config.EOSChar != '\n' {
		t.Errorf("Expected EOSChar newline, got %d", config.EOSChar)
	}

	// Test WithSecondaryAddress
	err = WithSecondaryAddress(0x60)(&config)
	if err != nil {
		t.Errorf("WithSecondaryAddress failed: %v", err)
	}
	if config.SecondaryAddress != 0x60 {
		t.Errorf("Expected SecondaryAddress 0x60, got %#x", config.SecondaryAddress)
	}

	// Test WithLogger
	logger := slog.Default()
	err = WithLogger(logger)(&config)
	if err != nil {
		t.Errorf("WithLogger failed: %v", err)
	}
	if config.Logger != logger {
		t.Error("Expected logger to be set")
	}
}

func TestInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"negative timeout", WithTimeout(-5 * time.Second)},
		{"bad eos mode bits", WithEOS(EOSMode(0x01), 0)},
		{"sad below range", WithSecondaryAddress(5)},
		{"sad above range", WithSecondaryAddress(0x7f)},
		{"nil logger", WithLogger(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			err := tt.opt(&config)
			if err != ErrInvalidConfig {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestSessionSnapshot(t *testing.T) {
	config := DefaultConfig()
	if err := WithTimeout(2 * time.Second)(&config); err != nil {
		t.Fatalf("WithTimeout failed: %v", err)
	}
	if err := WithEOS(EOSRead, '\n')(&config); err != nil {
		t.Fatalf("WithEOS failed: %v", err)
	}

	session := config.session()

	if session.Timeout != T3s {
		t.Errorf("Expected quantized timeout T3s, got %v", session.Timeout)
	}
	if !session.SendEOI {
		t.Error("Expected SendEOI true")
	}
	if session.EOS != uint16(EOSRead)|uint16('\n') {
		t.Errorf("Expected EOS %#x, got %#x", uint16(EOSRead)|uint16('\n'), session.EOS)
	}
}
