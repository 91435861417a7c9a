package gpib

import (
	"fmt"
	"strconv"
)

// Board designates a GPIB controller board, either by the interface name
// from the driver configuration file (e.g. "gpib0") or by its index.
type Board struct {
	name    string
	index   int
	byIndex bool
}

// BoardName designates a board by its configured interface name.
func BoardName(name string) Board {
	return Board{name: name}
}

// BoardIndex designates a board by its minor number.
func BoardIndex(index int) Board {
	return Board{index: index, byIndex: true}
}

// Name returns the interface name, or "gpibN" when the board was
// designated by index.
func (b Board) Name() string {
	if b.byIndex {
		return "gpib" + strconv.Itoa(b.index)
	}
	return b.name
}

func (b Board) String() string {
	return b.Name()
}

// DeviceID identifies what a driver handle is bound to: either an
// addressed device on a board, or the controller board itself. It is
// assigned at construction and never changes.
type DeviceID struct {
	Board Board
	PAD   int // Primary address, meaningful only when BoardOnly is false
	SAD   int // Secondary address, 0 means not used
	// BoardOnly marks a handle for the controller board rather than an
	// addressed device.
	BoardOnly bool
}

func (id DeviceID) String() string {
	if id.BoardOnly {
		return id.Board.Name()
	}
	if id.SAD != 0 {
		return fmt.Sprintf("%s:%d,%d", id.Board.Name(), id.PAD, id.SAD)
	}
	return fmt.Sprintf("%s:%d", id.Board.Name(), id.PAD)
}

// SessionConfig is the immutable snapshot of driver settings taken when a
// handle is opened.
type SessionConfig struct {
	Timeout TimeoutCode
	SendEOI bool
	// EOS combines the EOSMode bits with the end-of-string character in
	// the low byte, exactly as the driver expects it.
	EOS uint16
}

// Driver opens handles against the underlying synchronous GPIB library.
// Implementations wrap a real controller stack (e.g. Linux GPIB via cgo)
// or a simulation such as SimBus.
type Driver interface {
	// Open creates a handle for the given identity with the given
	// session settings.
	Open(id DeviceID, cfg SessionConfig) (Handle, error)

	// Version returns the version string of the underlying library.
	Version() (string, error)
}

// Handle is a synchronous, blocking driver handle for one board or
// addressed device. Handles are NOT safe for concurrent use: every call
// must be serialized by the owning Device. All methods except LastStatus
// and ByteCount block the calling goroutine until the bus responds or the
// driver's own timeout elapses.
type Handle interface {
	// Close releases the handle (ibonl 0).
	Close() error

	// Command writes interface command bytes (ibcmd).
	Command(cmd []byte) error

	// Write sends data bytes to the addressed device (ibwrt).
	Write(data []byte) error

	// Read reads up to maxLen data bytes (ibrd).
	Read(maxLen int) ([]byte, error)

	// Config changes a driver setting (ibconfig).
	Config(opt ConfigOption, value int) (Status, error)

	// Ask queries a driver setting (ibask).
	Ask(opt ConfigOption) (int, error)

	// InterfaceClear pulses the IFC line (ibsic). Board handles only.
	InterfaceClear() error

	// Listener checks whether a listener is present at the address (ibln).
	Listener(pad, sad int) (bool, error)

	// Lines senses the bus control and handshake lines (iblines).
	Lines() (LineStatus, error)

	// Clear sends Selected Device Clear (ibclr).
	Clear() error

	// Wait blocks until one of the status events in mask occurs (ibwait).
	// It may return normally with the TIMO bit set instead of failing.
	Wait(mask Status) error

	// SerialPoll reads the device status byte (ibrsp).
	SerialPoll() (byte, error)

	// Trigger sends Group Execute Trigger (ibtrg).
	Trigger() error

	// RemoteEnable asserts or deasserts the REN line (ibsre). Board
	// handles only.
	RemoteEnable(enable bool) error

	// PushToLocal returns the device to local control (ibloc).
	PushToLocal() (Status, error)

	// LastStatus returns the status bits recorded by the most recent
	// operation on this handle (ibsta). It never blocks and never fails.
	LastStatus() Status

	// ByteCount returns the number of bytes transferred by the most
	// recent read or write (ibcnt).
	ByteCount() int

	// SetTimeout changes the I/O timeout for subsequent operations (ibtmo).
	SetTimeout(code TimeoutCode) (Status, error)
}
