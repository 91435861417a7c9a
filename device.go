package gpib

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Device is the asynchronous facade over one blocking driver handle. All
// bus operations are serialized onto a single worker goroutine, so a
// Device is safe for concurrent use even though the handle underneath it
// is not. Operations block only the calling goroutine, never each other's
// callers.
//
// A Device starts disconnected; Connect opens the driver handle and Close
// releases it. Every operation between the two runs in strict submission
// order.
type Device struct {
	id     DeviceID
	config Config
	driver Driver
	logger *slog.Logger

	mu     sync.Mutex
	handle Handle
	disp   *dispatcher
}

// NewDevice creates a facade for the device at the given primary address
// on the given board. The device stays disconnected until Connect.
func NewDevice(drv Driver, board Board, pad int, opts ...Option) (*Device, error) {
	if pad < 0 || pad > 30 {
		return nil, fmt.Errorf("%w: primary address %d out of range", ErrInvalidConfig, pad)
	}
	return newDevice(drv, DeviceID{Board: board, PAD: pad}, opts)
}

// NewBoard creates a facade for the controller board itself rather than
// an addressed device. Board-level operations such as InterfaceClear and
// RemoteEnable require a board handle.
func NewBoard(drv Driver, board Board, opts ...Option) (*Device, error) {
	return newDevice(drv, DeviceID{Board: board, BoardOnly: true}, opts)
}

func newDevice(drv Driver, id DeviceID, opts []Option) (*Device, error) {
	if drv == nil {
		return nil, ErrNoDriver
	}
	config := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&config); err != nil {
			return nil, err
		}
	}
	id.SAD = config.SecondaryAddress
	return &Device{
		id:     id,
		config: config,
		driver: drv,
		logger: config.Logger.With("device", id.String()),
	}, nil
}

// ID returns the immutable identity the device was constructed with.
func (d *Device) ID() DeviceID {
	return d.id
}

// Connected reports whether a driver handle is currently open.
func (d *Device) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handle != nil
}

// Connect opens the driver handle with the stored identity and session
// configuration and starts the dispatcher worker. Connecting an already
// connected device is a programming error and fails with
// ErrAlreadyConnected; it never silently reconnects.
func (d *Device) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.handle != nil {
		return ErrAlreadyConnected
	}

	handle, err := d.driver.Open(d.id, d.config.session())
	if err != nil {
		return fmt.Errorf("opening %s: %w", d.id, err)
	}

	d.handle = handle
	d.disp = newDispatcher(defaultQueueSize)
	d.logger.Info("gpib session opened", "timeout", QuantizeTimeout(d.config.Timeout).String())
	return nil
}

// Close releases the driver handle. The close call itself goes through
// the dispatcher so it runs after every previously submitted operation,
// then the dispatcher drains and stops. Closing an already disconnected
// device is a no-op, so callers may clean up unconditionally after a
// failed or partial connect.
func (d *Device) Close(ctx context.Context) error {
	d.mu.Lock()
	handle := d.handle
	disp := d.disp
	d.handle = nil
	d.disp = nil
	d.mu.Unlock()

	if handle == nil {
		return nil
	}
	defer disp.stop()

	j, err := disp.submit(ctx, func() result {
		return newResult(handle, nil, handle.Close())
	})
	if err != nil {
		return err
	}

	select {
	case r := <-j.done:
		d.logger.Info("gpib session closed")
		return classify(r.err, r.status)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session connects, runs fn and closes the device on every exit path.
func (d *Device) Session(ctx context.Context, fn func(context.Context) error) error {
	if err := d.Connect(ctx); err != nil {
		return err
	}
	err := fn(ctx)
	if cerr := d.Close(context.WithoutCancel(ctx)); err == nil {
		err = cerr
	}
	return err
}

// classify translates a failed driver call into the package error
// taxonomy. The driver reports a bus timeout through the TIMO status bit
// rather than through a distinct error value, so the status snapshot
// taken right after the failed call decides: timeout bit set means
// ErrTimeout, anything else passes through unchanged. This is the single
// place that rule lives.
func classify(err error, status Status) error {
	if err == nil {
		return nil
	}
	if status.Timeout() {
		return ErrTimeout
	}
	return err
}

// do submits one driver call to the dispatcher and suspends the calling
// goroutine until the result slot is filled. If the caller abandons the
// wait, the in-flight driver call still runs to completion on the worker
// and its result is discarded.
func (d *Device) do(ctx context.Context, fn func(Handle) (any, error)) (any, error) {
	d.mu.Lock()
	handle := d.handle
	disp := d.disp
	d.mu.Unlock()

	if handle == nil {
		return nil, ErrNotConnected
	}

	j, err := disp.submit(ctx, func() result {
		v, err := fn(handle)
		return newResult(handle, v, err)
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-j.done:
		if r.err != nil {
			return nil, classify(r.err, r.status)
		}
		return r.value, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Command writes interface command bytes, e.g. addressing or universal
// multiline commands. The bytes are sent raw.
func (d *Device) Command(ctx context.Context, cmd []byte) error {
	_, err := d.do(ctx, func(h Handle) (any, error) {
		return nil, h.Command(cmd)
	})
	return err
}

// Config changes a driver setting and returns the resulting status.
func (d *Device) Config(ctx context.Context, opt ConfigOption, value int) (Status, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.Config(opt, value)
	})
	if err != nil {
		return 0, err
	}
	return v.(Status), nil
}

// Ask queries a driver setting.
func (d *Device) Ask(ctx context.Context, opt ConfigOption) (int, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.Ask(opt)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// InterfaceClear pulses the IFC line, making the board
// controller-in-charge and resetting the bus.
func (d *Device) InterfaceClear(ctx context.Context) error {
	_, err := d.do(ctx, func(h Handle) (any, error) {
		return nil, h.InterfaceClear()
	})
	return err
}

// Write sends data bytes to the device. The bytes are sent exactly as
// given, with no implicit encoding or terminator.
func (d *Device) Write(ctx context.Context, data []byte) error {
	d.logger.Debug("writing data", "payload", data)
	_, err := d.do(ctx, func(h Handle) (any, error) {
		return nil, h.Write(data)
	})
	return err
}

// Read reads up to maxLen data bytes from the device and returns exactly
// what the driver returned, with no strip or decode.
func (d *Device) Read(ctx context.Context, maxLen int) ([]byte, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.Read(maxLen)
	})
	if err != nil {
		return nil, err
	}
	data := v.([]byte)
	d.logger.Debug("data read", "payload", data)
	return data, nil
}

// Listener checks whether a listener is present at the given address.
func (d *Device) Listener(ctx context.Context, pad, sad int) (bool, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.Listener(pad, sad)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Lines senses the status of the bus control and handshake lines.
func (d *Device) Lines(ctx context.Context) (LineStatus, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.Lines()
	})
	if err != nil {
		return 0, err
	}
	return v.(LineStatus), nil
}

// Clear sends Selected Device Clear to the device.
func (d *Device) Clear(ctx context.Context) error {
	_, err := d.do(ctx, func(h Handle) (any, error) {
		return nil, h.Clear()
	})
	return err
}

// Wait blocks until one of the status events in mask occurs. The driver's
// wait primitive may return normally on timeout instead of failing, so
// the status is read back in a second round-trip and a set TIMO bit is
// reported as ErrTimeout either way.
func (d *Device) Wait(ctx context.Context, mask Status) error {
	_, err := d.do(ctx, func(h Handle) (any, error) {
		return nil, h.Wait(mask)
	})
	if err != nil {
		return err
	}
	status, err := d.Status(ctx)
	if err != nil {
		return err
	}
	if status.Timeout() {
		return ErrTimeout
	}
	return nil
}

// SerialPoll reads the device's serial poll status byte.
func (d *Device) SerialPoll(ctx context.Context) (byte, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.SerialPoll()
	})
	if err != nil {
		return 0, err
	}
	return v.(byte), nil
}

// Trigger sends Group Execute Trigger to the device.
func (d *Device) Trigger(ctx context.Context) error {
	_, err := d.do(ctx, func(h Handle) (any, error) {
		return nil, h.Trigger()
	})
	return err
}

// RemoteEnable asserts or deasserts the REN line. Board handles only.
func (d *Device) RemoteEnable(ctx context.Context, enable bool) error {
	_, err := d.do(ctx, func(h Handle) (any, error) {
		return nil, h.RemoteEnable(enable)
	})
	return err
}

// PushToLocal returns the device to local control.
func (d *Device) PushToLocal(ctx context.Context) (Status, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.PushToLocal()
	})
	if err != nil {
		return 0, err
	}
	return v.(Status), nil
}

// Status reads the status bits recorded by the most recent operation. The
// read itself goes through the dispatcher so it reflects the operations
// submitted before it.
func (d *Device) Status(ctx context.Context) (Status, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.LastStatus(), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(Status), nil
}

// ByteCount reads the number of bytes transferred by the most recent read
// or write.
func (d *Device) ByteCount(ctx context.Context) (int, error) {
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.ByteCount(), nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// SetTimeout changes the I/O timeout for subsequent operations. The
// duration is quantized to the nearest discrete driver timeout code; pass
// NoTimeout to disable timeouts.
func (d *Device) SetTimeout(ctx context.Context, timeout time.Duration) (Status, error) {
	code := QuantizeTimeout(timeout)
	v, err := d.do(ctx, func(h Handle) (any, error) {
		return h.SetTimeout(code)
	})
	if err != nil {
		return 0, err
	}
	return v.(Status), nil
}

// Version returns the version string of the underlying driver library.
// It does not require a connection.
func (d *Device) Version() (string, error) {
	return d.driver.Version()
}
