package gpib

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSim(t *testing.T, bus *SimBus, id DeviceID) Handle {
	t.Helper()
	h, err := bus.Open(id, SessionConfig{Timeout: T10s, SendEOI: true})
	require.NoError(t, err)
	return h
}

func deviceID(pad int) DeviceID {
	return DeviceID{Board: BoardIndex(0), PAD: pad}
}

func boardID() DeviceID {
	return DeviceID{Board: BoardIndex(0), BoardOnly: true}
}

func TestSimBusRoundTrip(t *testing.T) {
	bus := NewSimBus()
	bus.Attach(22, NewSimInstrument(func(req []byte) []byte {
		return append([]byte("echo:"), req...)
	}))

	h := openSim(t, bus, deviceID(22))
	require.NoError(t, h.Write([]byte("hello")))
	assert.Equal(t, 5, h.ByteCount())
	assert.True(t, h.LastStatus()&StatusTACS != 0)

	got, err := h.Read(512)
	require.NoError(t, err)
	assert.Equal(t, []byte("echo:hello"), got)
	assert.True(t, h.LastStatus()&(StatusLACS|StatusEND) != 0)
}

func TestSimBusReadTruncation(t *testing.T) {
	bus := NewSimBus()
	bus.Attach(3, NewSimInstrument(func([]byte) []byte {
		return []byte("0123456789")
	}))

	h := openSim(t, bus, deviceID(3))
	require.NoError(t, h.Write([]byte("?")))

	got, err := h.Read(4)
	require.NoError(t, err)
	assert.Equal(t, []byte("0123"), got)
	assert.Equal(t, 4, h.ByteCount())
}

func TestSimBusTimeoutStatuses(t *testing.T) {
	bus := NewSimBus()
	h := openSim(t, bus, deviceID(9)) // nothing attached at 9

	err := h.Write([]byte("x"))
	require.Error(t, err)
	assert.True(t, h.LastStatus().Timeout())
	assert.True(t, h.LastStatus().Err())

	_, err = h.Read(8)
	require.Error(t, err)
	assert.True(t, h.LastStatus().Timeout())

	// An attached but silent instrument times out on read only.
	bus.Attach(9, NewSimInstrument(nil))
	require.NoError(t, h.Write([]byte("x")))
	_, err = h.Read(8)
	require.Error(t, err)
	assert.True(t, h.LastStatus().Timeout())
}

func TestSimBusListener(t *testing.T) {
	bus := NewSimBus()
	bus.Attach(4, NewSimInstrument(nil))

	h := openSim(t, bus, boardID())
	present, err := h.Listener(4, 0)
	require.NoError(t, err)
	assert.True(t, present)

	present, err = h.Listener(5, 0)
	require.NoError(t, err)
	assert.False(t, present)
}

func TestSimBusBoardOnlyOperations(t *testing.T) {
	bus := NewSimBus()

	board := openSim(t, bus, boardID())
	require.NoError(t, board.InterfaceClear())
	require.NoError(t, board.RemoteEnable(true))

	lines, err := board.Lines()
	require.NoError(t, err)
	assert.True(t, lines&BusREN != 0)

	require.NoError(t, board.RemoteEnable(false))
	lines, err = board.Lines()
	require.NoError(t, err)
	assert.True(t, lines&BusREN == 0)

	// Device handles must not perform board operations.
	dev := openSim(t, bus, deviceID(1))
	assert.Error(t, dev.InterfaceClear())
	assert.Error(t, dev.RemoteEnable(true))
	assert.True(t, dev.LastStatus().Err())
	assert.False(t, dev.LastStatus().Timeout())
}

func TestSimBusTriggerAndClear(t *testing.T) {
	bus := NewSimBus()
	inst := NewSimInstrument(func([]byte) []byte { return []byte("ok") })
	bus.Attach(6, inst)

	h := openSim(t, bus, deviceID(6))
	require.NoError(t, h.Trigger())
	require.NoError(t, h.Trigger())
	assert.Equal(t, 2, inst.Triggers())

	// Clear drops any buffered response.
	require.NoError(t, h.Write([]byte("?")))
	require.NoError(t, h.Clear())
	assert.Equal(t, 1, inst.Clears())
	_, err := h.Read(8)
	require.Error(t, err)
	assert.True(t, h.LastStatus().Timeout())
}

func TestSimBusServiceRequest(t *testing.T) {
	bus := NewSimBus()
	inst := NewSimInstrument(nil)
	bus.Attach(7, inst)

	h := openSim(t, bus, deviceID(7))

	// No request pending: ibwait returns normally with TIMO set.
	require.NoError(t, h.Wait(StatusSRQI))
	assert.True(t, h.LastStatus().Timeout())

	inst.RequestService(0x08)
	lines, err := h.Lines()
	require.NoError(t, err)
	assert.True(t, lines&BusSRQ != 0)

	require.NoError(t, h.Wait(StatusSRQI))
	assert.True(t, h.LastStatus()&StatusSRQI != 0)
	assert.False(t, h.LastStatus().Timeout())

	b, err := h.SerialPoll()
	require.NoError(t, err)
	assert.EqualValues(t, 0x48, b)

	// The poll cleared the request and the RQS bit.
	b, err = h.SerialPoll()
	require.NoError(t, err)
	assert.EqualValues(t, 0x08, b)
	require.NoError(t, h.Wait(StatusSRQI))
	assert.True(t, h.LastStatus().Timeout())
}

func TestSimBusPushToLocal(t *testing.T) {
	bus := NewSimBus()
	inst := NewSimInstrument(nil)
	bus.Attach(2, inst)

	h := openSim(t, bus, deviceID(2))
	require.False(t, inst.Local())
	_, err := h.PushToLocal()
	require.NoError(t, err)
	assert.True(t, inst.Local())
}

func TestSimBusConfigRoundTrip(t *testing.T) {
	bus := NewSimBus()
	h, err := bus.Open(deviceID(12), SessionConfig{Timeout: T3s, EOS: uint16(EOSRead) | '\n'})
	require.NoError(t, err)

	// Defaults come from the session until overridden.
	v, err := h.Ask(OptionPAD)
	require.NoError(t, err)
	assert.Equal(t, 12, v)
	v, err = h.Ask(OptionTMO)
	require.NoError(t, err)
	assert.Equal(t, int(T3s), v)
	v, err = h.Ask(OptionEOSChar)
	require.NoError(t, err)
	assert.Equal(t, int('\n'), v)

	_, err = h.Config(OptionEOT, 0)
	require.NoError(t, err)
	v, err = h.Ask(OptionEOT)
	require.NoError(t, err)
	assert.Equal(t, 0, v)

	status, err := h.SetTimeout(T100ms)
	require.NoError(t, err)
	assert.False(t, status.Err())
	v, err = h.Ask(OptionTMO)
	require.NoError(t, err)
	assert.Equal(t, int(T100ms), v)
}

func TestSimBusClosedHandle(t *testing.T) {
	bus := NewSimBus()
	bus.Attach(1, NewSimInstrument(nil))

	h := openSim(t, bus, deviceID(1))
	require.NoError(t, h.Close())

	assert.Error(t, h.Close())
	assert.Error(t, h.Write([]byte("x")))
	_, err := h.Read(1)
	assert.Error(t, err)
	assert.True(t, h.LastStatus().Err())
}

func TestSimBusClosedBusRefusesOpen(t *testing.T) {
	bus := NewSimBus()
	require.NoError(t, bus.Close())

	_, err := bus.Open(deviceID(1), SessionConfig{})
	assert.ErrorIs(t, err, ErrBusClosed)
}
