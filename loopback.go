package gpib

import (
	"errors"
	"sync"
)

// errSimIO is the generic failure raised by the simulated driver. Bus
// timeouts carry it too; the TIMO status bit is what distinguishes them,
// exactly as with a real driver.
var errSimIO = errors.New("simulated bus i/o failed")

// SimBus is an in-memory GPIB bus usable as a Driver, for tests,
// examples and the gpibctl --sim mode. Scripted instruments are attached
// per primary address and answer writes with queued responses.
type SimBus struct {
	mu          sync.Mutex
	closed      bool
	ren         bool
	instruments map[int]*SimInstrument
}

// NewSimBus creates an empty simulated bus.
func NewSimBus() *SimBus {
	return &SimBus{instruments: make(map[int]*SimInstrument)}
}

// Attach registers an instrument at the given primary address, replacing
// any previous one.
func (s *SimBus) Attach(pad int, inst *SimInstrument) {
	s.mu.Lock()
	s.instruments[pad] = inst
	s.mu.Unlock()
}

// Detach removes the instrument at the given primary address.
func (s *SimBus) Detach(pad int) {
	s.mu.Lock()
	delete(s.instruments, pad)
	s.mu.Unlock()
}

// Close detaches all instruments and fails subsequent opens.
func (s *SimBus) Close() error {
	s.mu.Lock()
	s.closed = true
	s.instruments = make(map[int]*SimInstrument)
	s.mu.Unlock()
	return nil
}

// Open implements Driver.
func (s *SimBus) Open(id DeviceID, cfg SessionConfig) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrBusClosed
	}
	return &simHandle{
		bus:     s,
		id:      id,
		timeout: cfg.Timeout,
		eos:     cfg.EOS,
		sendEOI: cfg.SendEOI,
		status:  StatusCMPL | StatusCIC,
	}, nil
}

// Version implements Driver.
func (s *SimBus) Version() (string, error) {
	return "go-gpib simulated bus 1.0", nil
}

func (s *SimBus) instrument(pad int) *SimInstrument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instruments[pad]
}

func (s *SimBus) serviceRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inst := range s.instruments {
		if inst.requesting() {
			return true
		}
	}
	return false
}

// SimInstrument is a scripted bus participant. The respond function is
// invoked once per write; a non-nil return value is queued as the
// response for the next read. A nil respond function or a nil return
// queues nothing, which makes the next read time out.
type SimInstrument struct {
	mu         sync.Mutex
	respond    func(request []byte) []byte
	pending    [][]byte
	statusByte byte
	rqs        bool
	triggers   int
	clears     int
	local      bool
}

// NewSimInstrument creates an instrument with the given respond function.
func NewSimInstrument(respond func(request []byte) []byte) *SimInstrument {
	return &SimInstrument{respond: respond}
}

// RequestService sets the serial poll status byte and asserts SRQ. The
// request is cleared by the next serial poll.
func (inst *SimInstrument) RequestService(statusByte byte) {
	inst.mu.Lock()
	inst.statusByte = statusByte | 0x40
	inst.rqs = true
	inst.mu.Unlock()
}

// Triggers returns how many Group Execute Triggers the instrument has
// received.
func (inst *SimInstrument) Triggers() int {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.triggers
}

// Clears returns how many Selected Device Clears the instrument has
// received.
func (inst *SimInstrument) Clears() int {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.clears
}

// Local reports whether the instrument has been pushed to local control.
func (inst *SimInstrument) Local() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.local
}

func (inst *SimInstrument) requesting() bool {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.rqs
}

func (inst *SimInstrument) write(data []byte) {
	inst.mu.Lock()
	respond := inst.respond
	inst.mu.Unlock()
	if respond == nil {
		return
	}
	// Run the responder outside the lock; it may call back into the
	// instrument.
	response := respond(data)
	if response == nil {
		return
	}
	inst.mu.Lock()
	inst.pending = append(inst.pending, response)
	inst.mu.Unlock()
}

func (inst *SimInstrument) read() ([]byte, bool) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if len(inst.pending) == 0 {
		return nil, false
	}
	response := inst.pending[0]
	inst.pending = inst.pending[1:]
	return response, true
}

func (inst *SimInstrument) poll() byte {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	b := inst.statusByte
	inst.rqs = false
	inst.statusByte &^= 0x40
	return b
}

// simHandle is one open session against a SimBus. Like a real driver
// handle it keeps an ibsta-style status word updated by every call and it
// is not safe for concurrent use.
type simHandle struct {
	bus     *SimBus
	id      DeviceID
	timeout TimeoutCode
	eos     uint16
	sendEOI bool
	status  Status
	count   int
	closed  bool
	options map[ConfigOption]int
}

var _ Handle = (*simHandle)(nil)

// complete records a successful operation.
func (h *simHandle) complete(extra Status) {
	h.status = StatusCMPL | StatusCIC | extra
}

// fail records a failed operation and returns the matching error.
func (h *simHandle) fail(extra Status) error {
	h.status = StatusERR | StatusCIC | extra
	return errSimIO
}

// timedOut reports a bus timeout: ERR plus TIMO, the same combination a
// real driver leaves in ibsta.
func (h *simHandle) timedOut() error {
	return h.fail(StatusTIMO)
}

func (h *simHandle) target() *SimInstrument {
	if h.id.BoardOnly {
		return nil
	}
	return h.bus.instrument(h.id.PAD)
}

func (h *simHandle) Close() error {
	if h.closed {
		return h.fail(0)
	}
	h.closed = true
	h.complete(0)
	return nil
}

func (h *simHandle) Command(cmd []byte) error {
	if h.closed {
		return h.fail(0)
	}
	h.count = len(cmd)
	h.complete(StatusATN)
	return nil
}

func (h *simHandle) Write(data []byte) error {
	if h.closed {
		return h.fail(0)
	}
	inst := h.target()
	if inst == nil {
		// Nobody listening: the handshake never completes.
		return h.timedOut()
	}
	inst.write(data)
	h.count = len(data)
	h.complete(StatusTACS | StatusEND)
	return nil
}

func (h *simHandle) Read(maxLen int) ([]byte, error) {
	if h.closed {
		return nil, h.fail(0)
	}
	inst := h.target()
	if inst == nil {
		return nil, h.timedOut()
	}
	response, ok := inst.read()
	if !ok {
		// Nothing to talk: the read runs into the timeout.
		return nil, h.timedOut()
	}
	if len(response) > maxLen {
		response = response[:maxLen]
	}
	h.count = len(response)
	h.complete(StatusLACS | StatusEND)
	return response, nil
}

func (h *simHandle) Config(opt ConfigOption, value int) (Status, error) {
	if h.closed {
		return 0, h.fail(0)
	}
	if h.options == nil {
		h.options = make(map[ConfigOption]int)
	}
	h.options[opt] = value
	h.complete(0)
	return h.status, nil
}

func (h *simHandle) Ask(opt ConfigOption) (int, error) {
	if h.closed {
		return 0, h.fail(0)
	}
	h.complete(0)
	if v, ok := h.options[opt]; ok {
		return v, nil
	}
	switch opt {
	case OptionPAD:
		return h.id.PAD, nil
	case OptionSAD:
		return h.id.SAD, nil
	case OptionTMO:
		return int(h.timeout), nil
	case OptionEOSChar:
		return int(h.eos & 0xff), nil
	default:
		return 0, nil
	}
}

func (h *simHandle) InterfaceClear() error {
	if h.closed || !h.id.BoardOnly {
		return h.fail(0)
	}
	h.complete(0)
	return nil
}

func (h *simHandle) Listener(pad, sad int) (bool, error) {
	if h.closed {
		return false, h.fail(0)
	}
	h.complete(0)
	return h.bus.instrument(pad) != nil, nil
}

func (h *simHandle) Lines() (LineStatus, error) {
	if h.closed {
		return 0, h.fail(0)
	}
	lines := ValidDAV | ValidNDAC | ValidNRFD | ValidIFC | ValidREN | ValidSRQ | ValidATN | ValidEOI
	h.bus.mu.Lock()
	if h.bus.ren {
		lines |= BusREN
	}
	h.bus.mu.Unlock()
	if h.bus.serviceRequested() {
		lines |= BusSRQ
	}
	h.complete(0)
	return lines, nil
}

func (h *simHandle) Clear() error {
	if h.closed {
		return h.fail(0)
	}
	inst := h.target()
	if inst == nil {
		return h.timedOut()
	}
	inst.mu.Lock()
	inst.clears++
	inst.pending = nil
	inst.mu.Unlock()
	h.complete(0)
	return nil
}

func (h *simHandle) Wait(mask Status) error {
	if h.closed {
		return h.fail(0)
	}
	if mask&StatusSRQI != 0 && h.bus.serviceRequested() {
		h.complete(StatusSRQI)
		return nil
	}
	// No event pending: the wait expires. Like the real driver, ibwait
	// returns normally with TIMO set rather than failing.
	h.complete(StatusTIMO)
	return nil
}

func (h *simHandle) SerialPoll() (byte, error) {
	if h.closed {
		return 0, h.fail(0)
	}
	inst := h.target()
	if inst == nil {
		return 0, h.timedOut()
	}
	h.complete(0)
	return inst.poll(), nil
}

func (h *simHandle) Trigger() error {
	if h.closed {
		return h.fail(0)
	}
	inst := h.target()
	if inst == nil {
		return h.timedOut()
	}
	inst.mu.Lock()
	inst.triggers++
	inst.mu.Unlock()
	h.complete(0)
	return nil
}

func (h *simHandle) RemoteEnable(enable bool) error {
	if h.closed || !h.id.BoardOnly {
		return h.fail(0)
	}
	h.bus.mu.Lock()
	h.bus.ren = enable
	h.bus.mu.Unlock()
	h.complete(0)
	return nil
}

func (h *simHandle) PushToLocal() (Status, error) {
	if h.closed {
		return 0, h.fail(0)
	}
	if inst := h.target(); inst != nil {
		inst.mu.Lock()
		inst.local = true
		inst.mu.Unlock()
	}
	h.complete(0)
	return h.status, nil
}

func (h *simHandle) LastStatus() Status {
	return h.status
}

func (h *simHandle) ByteCount() int {
	return h.count
}

func (h *simHandle) SetTimeout(code TimeoutCode) (Status, error) {
	if h.closed {
		return 0, h.fail(0)
	}
	h.timeout = code
	h.complete(0)
	return h.status, nil
}
