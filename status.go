package gpib

import "strings"

// Status is the ibsta status bitmask reported by the driver after every
// bus operation.
type Status uint16

const (
	StatusDCAS  Status = 1 << 0  // Device clear state
	StatusDTAS  Status = 1 << 1  // Device trigger state
	StatusLACS  Status = 1 << 2  // Board is addressed as listener
	StatusTACS  Status = 1 << 3  // Board is addressed as talker
	StatusATN   Status = 1 << 4  // ATN line is asserted
	StatusCIC   Status = 1 << 5  // Board is controller-in-charge
	StatusREM   Status = 1 << 6  // Board is in remote state
	StatusLOK   Status = 1 << 7  // Board is in lockout state
	StatusCMPL  Status = 1 << 8  // I/O has completed
	StatusEVENT Status = 1 << 9  // Clear, trigger or IFC event received
	StatusSPOLL Status = 1 << 10 // Board has been serial polled
	StatusRQS   Status = 1 << 11 // Device has requested service
	StatusSRQI  Status = 1 << 12 // SRQ line is asserted
	StatusEND   Status = 1 << 13 // EOI asserted or EOS character received
	StatusTIMO  Status = 1 << 14 // Last operation terminated due to timeout
	StatusERR   Status = 1 << 15 // Last operation failed
)

// Timeout reports whether the timeout bit is set. This single bit is the
// only signal used to distinguish a bus timeout from a generic driver
// failure.
func (s Status) Timeout() bool {
	return s&StatusTIMO != 0
}

// Err reports whether the error bit is set.
func (s Status) Err() bool {
	return s&StatusERR != 0
}

var statusNames = []struct {
	bit  Status
	name string
}{
	{StatusERR, "ERR"},
	{StatusTIMO, "TIMO"},
	{StatusEND, "END"},
	{StatusSRQI, "SRQI"},
	{StatusRQS, "RQS"},
	{StatusSPOLL, "SPOLL"},
	{StatusEVENT, "EVENT"},
	{StatusCMPL, "CMPL"},
	{StatusLOK, "LOK"},
	{StatusREM, "REM"},
	{StatusCIC, "CIC"},
	{StatusATN, "ATN"},
	{StatusTACS, "TACS"},
	{StatusLACS, "LACS"},
	{StatusDTAS, "DTAS"},
	{StatusDCAS, "DCAS"},
}

// String returns the set status bits as a space-separated list, e.g.
// "CMPL CIC TACS".
func (s Status) String() string {
	if s == 0 {
		return "0"
	}
	var names []string
	for _, sn := range statusNames {
		if s&sn.bit != 0 {
			names = append(names, sn.name)
		}
	}
	return strings.Join(names, " ")
}

// EOSMode is the end-of-string mode bitmask. It is combined with the EOS
// character into the low byte of the value handed to the driver on open.
type EOSMode uint16

const (
	EOSNone   EOSMode = 0
	EOSRead   EOSMode = 1 << 10 // REOS: terminate reads when the EOS character is received
	EOSWrite  EOSMode = 1 << 11 // XEOS: assert EOI whenever the EOS character is written
	EOSBinary EOSMode = 1 << 12 // BIN: compare all 8 bits instead of the 7 least significant
)

// LineStatus is the iblines bitmask describing the state of the bus
// control and handshake lines. The low byte reports which lines the board
// can sense, the high byte the sensed line states.
type LineStatus uint16

const (
	ValidDAV  LineStatus = 1 << 0
	ValidNDAC LineStatus = 1 << 1
	ValidNRFD LineStatus = 1 << 2
	ValidIFC  LineStatus = 1 << 3
	ValidREN  LineStatus = 1 << 4
	ValidSRQ  LineStatus = 1 << 5
	ValidATN  LineStatus = 1 << 6
	ValidEOI  LineStatus = 1 << 7

	BusDAV  LineStatus = 1 << 8
	BusNDAC LineStatus = 1 << 9
	BusNRFD LineStatus = 1 << 10
	BusIFC  LineStatus = 1 << 11
	BusREN  LineStatus = 1 << 12
	BusSRQ  LineStatus = 1 << 13
	BusATN  LineStatus = 1 << 14
	BusEOI  LineStatus = 1 << 15
)

// ConfigOption selects a driver setting for Config and Ask calls
// (the ibconfig/ibask option codes).
type ConfigOption int

const (
	OptionPAD             ConfigOption = 0x01 // Primary address
	OptionSAD             ConfigOption = 0x02 // Secondary address
	OptionTMO             ConfigOption = 0x03 // Timeout code
	OptionEOT             ConfigOption = 0x04 // Assert EOI with last data byte
	OptionAutoPoll        ConfigOption = 0x07 // Automatic serial polling
	OptionSystemControl   ConfigOption = 0x0a // Board is system controller
	OptionRemoteEnable    ConfigOption = 0x0b // Assert REN when opening devices
	OptionEOSRead         ConfigOption = 0x0c // Terminate reads on EOS character
	OptionEOSWrite        ConfigOption = 0x0d // Assert EOI when EOS character is sent
	OptionEOSCompare      ConfigOption = 0x0e // 8-bit EOS comparison
	OptionEOSChar         ConfigOption = 0x0f // EOS character
	OptionReadAdjust      ConfigOption = 0x13 // Byte-swap read pairs
	OptionEndBitIsNormal  ConfigOption = 0x1a // END bit set on EOI or EOS
	OptionUnaddressing    ConfigOption = 0x1b // Unaddress after transfers
	OptionHSCableLength   ConfigOption = 0x1f // HS488 cable length
	OptionIst             ConfigOption = 0x20 // Individual status bit
	OptionRsv             ConfigOption = 0x21 // Serial poll status byte
	OptionBoardNumber     ConfigOption = 0x200
	OptionSendLLO         ConfigOption = 0x201 // Send local lockout when opening devices
	OptionSPollTime       ConfigOption = 0x202 // Serial poll timeout
	OptionPPollTime       ConfigOption = 0x205 // Parallel poll duration
	OptionEndNotification ConfigOption = 0x206 // END bit events
)
