// Package gpib exposes a synchronous, blocking GPIB (IEEE-488) driver
// through a non-blocking, context-aware Go API.
//
// Driver handles for GPIB controllers are not safe for concurrent use and
// every call on them blocks until the bus responds or the driver's own
// timeout elapses. This package serializes all bus operations onto a
// single worker goroutine per device, so callers can issue operations
// from any goroutine without stalling each other and without ever
// touching the raw handle.
//
// # Basic Usage
//
// Create a device for primary address 22 on board "gpib0" and query its
// identification:
//
//	dev, err := gpib.NewDevice(driver, gpib.BoardName("gpib0"), 22)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := dev.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Close(ctx)
//
//	err = dev.Write(ctx, []byte("*IDN?"))
//	idn, err := dev.Read(ctx, 512)
//
// # Drivers
//
// The underlying bus library is abstracted behind the Driver and Handle
// interfaces, so the package works with any synchronous GPIB stack (for
// example a cgo binding to Linux GPIB). SimBus provides a complete
// in-memory implementation for tests and development:
//
//	bus := gpib.NewSimBus()
//	bus.Attach(22, gpib.NewSimInstrument(func(req []byte) []byte {
//	    if string(req) == "*IDN?" {
//	        return []byte("ACME Instruments,Model 42,0,1.0")
//	    }
//	    return nil
//	}))
//	dev, err := gpib.NewDevice(bus, gpib.BoardIndex(0), 22)
//
// # Configuration Options
//
// Use functional options for custom session settings:
//
//	dev, err := gpib.NewDevice(driver, gpib.BoardName("gpib0"), 22,
//	    gpib.WithTimeout(3*time.Second),
//	    gpib.WithSendEOI(true),
//	    gpib.WithEOS(gpib.EOSRead, '\n'),
//	)
//
// Requested timeouts are quantized to the driver's discrete timeout codes
// (10µs up to 1000s); pass gpib.NoTimeout to disable timeouts entirely.
//
// # Board Operations
//
// Operations such as InterfaceClear and RemoteEnable act on the
// controller itself and need a board-level device:
//
//	board, err := gpib.NewBoard(driver, gpib.BoardName("gpib0"))
//	err = board.Connect(ctx)
//	err = board.RemoteEnable(ctx, true)
//
// # Timeouts and Errors
//
// The driver reports a bus timeout through the TIMO bit of its ibsta
// status word rather than through a distinct error value. The package
// normalizes this: any operation that ran into the bus timeout fails with
// gpib.ErrTimeout, every other driver failure passes through unchanged.
//
//	if errors.Is(err, gpib.ErrTimeout) {
//	    // instrument did not answer in time, maybe retry
//	}
//
// Operations on a disconnected device fail fast with ErrNotConnected, and
// operations submitted while Close is draining fail with ErrShuttingDown.
// Nothing is retried automatically; retry policy belongs to the caller.
//
// # Ordering Guarantees
//
// Per device, operations execute strictly in submission order and never
// overlap, across the whole connected lifetime. Two devices on different
// boards are fully independent. Cancelling a context abandons the wait
// for a result but does not interrupt the driver call already in flight;
// it runs to completion on the worker and its result is discarded.
//
// # Board Discovery
//
// List controller boards present on a Linux system:
//
//	boards, err := gpib.ListBoards()
//	for _, path := range boards {
//	    info, _ := gpib.GetBoardInfo(path)
//	    fmt.Printf("%s (index %d, accessible: %v)\n", info.Name, info.Index, info.Accessible)
//	}
package gpib
