package gpib

import "errors"

// Predefined error types for robust error handling
var (
	ErrNotConnected     = errors.New("gpib device is not connected")
	ErrAlreadyConnected = errors.New("gpib device is already connected")
	ErrTimeout          = errors.New("gpib operation timed out")
	ErrShuttingDown     = errors.New("gpib device is shutting down")
	ErrInvalidConfig    = errors.New("invalid gpib configuration")
	ErrBoardNotFound    = errors.New("gpib board not found")
	ErrNoDriver         = errors.New("no gpib driver provided")

	// Simulated bus errors
	ErrBusClosed = errors.New("simulated bus is closed")
)
