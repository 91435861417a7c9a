package models

import (
	"context"
	"sync"

	gpib "github.com/allbin/go-gpib"
	"github.com/allbin/go-gpib/internal/tui/components"
)

// InputMode represents the current input mode (vim-like)
type InputMode int

const (
	InputModeNormal InputMode = iota
	InputModeInsert
)

func (m InputMode) String() string {
	switch m {
	case InputModeInsert:
		return "INSERT"
	default:
		return "NORMAL"
	}
}

// ConnectionStatusMsg reports the outcome of the background connect.
type ConnectionStatusMsg struct {
	Connected bool
	Error     error
}

// OpResultMsg carries the outcome of one bus action back into the TUI
// loop: the transcript entries it produced and the status word read
// after it. A query produces two entries, the write and the read.
type OpResultMsg struct {
	Entries []components.Entry
	Status  gpib.Status
}

// SessionModel is the shared state behind the console TUI: the device
// under control and the vim-like input mode.
type SessionModel struct {
	device *gpib.Device

	connected bool
	err       error
	ready     bool
	inputMode InputMode

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

func NewSessionModel(device *gpib.Device) *SessionModel {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionModel{
		device: device,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (m *SessionModel) Device() *gpib.Device {
	return m.device
}

func (m *SessionModel) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *SessionModel) SetConnected(connected bool) {
	m.mu.Lock()
	m.connected = connected
	m.mu.Unlock()
}

func (m *SessionModel) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *SessionModel) IsReady() bool {
	return m.ready
}

func (m *SessionModel) SetReady(ready bool) {
	m.ready = ready
}

func (m *SessionModel) GetInputMode() InputMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode
}

func (m *SessionModel) SetInputMode(mode InputMode) {
	m.mu.Lock()
	m.inputMode = mode
	m.mu.Unlock()
}

func (m *SessionModel) IsInInsertMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inputMode == InputModeInsert
}

func (m *SessionModel) Context() context.Context {
	return m.ctx
}

func (m *SessionModel) Cancel() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Cleanup tears the session down: cancels background work and closes
// the device.
func (m *SessionModel) Cleanup() {
	if m.cancel != nil {
		m.cancel()
	}
	if m.device != nil {
		_ = m.device.Close(context.Background())
	}
}
