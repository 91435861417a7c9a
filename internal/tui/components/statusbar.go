package components

import (
	"fmt"
	"time"

	gpib "github.com/allbin/go-gpib"
	"github.com/allbin/go-gpib/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

// SessionInfo carries the bus parameters shown in the status bar.
type SessionInfo struct {
	Device  string // "gpib0:22" style designator
	Timeout time.Duration
	SendEOI bool
	Sim     bool
}

type StatusBar struct {
	title      string
	status     string
	err        error
	width      int
	info       *SessionInfo
	lastStatus gpib.Status
	hasStatus  bool
}

func NewStatusBar(title string) *StatusBar {
	return &StatusBar{
		title:  title,
		status: "Initializing...",
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetSessionInfo(info *SessionInfo) {
	sb.info = info
}

// UpdateStatusWord records the most recent ibsta word for display.
func (sb *StatusBar) UpdateStatusWord(status gpib.Status) {
	sb.lastStatus = status
	sb.hasStatus = true
}

func (sb *StatusBar) SetConnecting() {
	sb.status = "Connecting..."
	sb.err = nil
}

func (sb *StatusBar) SetConnected() {
	sb.status = "Connected"
	sb.err = nil
}

func (sb *StatusBar) SetDisconnected(err error) {
	if err != nil {
		sb.status = fmt.Sprintf("Connection failed: %v", err)
		sb.err = err
	} else {
		sb.status = "Disconnected"
		sb.err = nil
	}
}

// View renders the full-width status bar: mode, device designator,
// connection dot, session parameters, status word and clock.
func (sb *StatusBar) View(inputMode, sendingMode string, connected bool, timestamp string) string {
	terminalWidth := sb.width
	if terminalWidth <= 0 {
		terminalWidth = 80
	}

	var modeStyle lipgloss.Style
	if inputMode == "INSERT" {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Green).
			Bold(true).
			Padding(0, 1)
	} else {
		modeStyle = lipgloss.NewStyle().
			Foreground(colors.Base).
			Background(colors.Blue).
			Bold(true).
			Padding(0, 1)
	}
	mode := modeStyle.Render(inputMode)

	deviceStyle := lipgloss.NewStyle().
		Foreground(colors.Mauve).
		Bold(true).
		Padding(0, 1)
	device := ""
	if sb.info != nil {
		device = deviceStyle.Render(sb.info.Device)
	}

	var connStyle lipgloss.Style
	var connIndicator string
	switch {
	case sb.err != nil:
		connStyle = lipgloss.NewStyle().Foreground(colors.Red)
		connIndicator = "✗"
	case connected:
		connStyle = lipgloss.NewStyle().Foreground(colors.Green)
		connIndicator = "●"
	default:
		connStyle = lipgloss.NewStyle().Foreground(colors.Yellow)
		connIndicator = "○"
	}
	connection := connStyle.Render(connIndicator)

	var sessionDetails string
	if sb.info != nil {
		eoi := "EOI"
		if !sb.info.SendEOI {
			eoi = "no-EOI"
		}
		bus := "bus"
		if sb.info.Sim {
			bus = "sim"
		}
		sessionDetails = fmt.Sprintf("⚡ %s tmo:%s %s", bus, sb.info.Timeout, eoi)
	} else {
		sessionDetails = "⚡ gpib"
	}
	details := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1).
		Render(sessionDetails)

	var statusWord string
	if sb.hasStatus {
		style := lipgloss.NewStyle().Foreground(colors.Teal)
		if sb.lastStatus.Err() {
			style = lipgloss.NewStyle().Foreground(colors.Red).Bold(true)
		}
		statusWord = style.Padding(0, 1).Render("ibsta:" + sb.lastStatus.String())
	}

	clock := lipgloss.NewStyle().
		Foreground(colors.Subtext1).
		Padding(0, 1).
		Render(timestamp)

	divider := lipgloss.NewStyle().
		Foreground(colors.Surface2).
		Padding(0, 1).
		Render("│")

	var sendMode string
	if inputMode == "INSERT" {
		sendMode = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Padding(0, 1).
			Render(fmt.Sprintf("[%s] Tab to toggle", sendingMode))
	}

	var leftSide string
	if sendMode != "" {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Left, mode, device, connection, sendMode, divider)
	} else {
		leftSide = lipgloss.JoinHorizontal(lipgloss.Left, mode, device, connection, divider)
	}

	var rightSide string
	if statusWord != "" {
		rightSide = lipgloss.JoinHorizontal(lipgloss.Left, details, divider, statusWord, divider, clock)
	} else {
		rightSide = lipgloss.JoinHorizontal(lipgloss.Left, details, divider, clock)
	}

	spacerWidth := terminalWidth - lipgloss.Width(leftSide) - lipgloss.Width(rightSide)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	barStyle := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(terminalWidth)

	return barStyle.Render(lipgloss.JoinHorizontal(lipgloss.Left, leftSide, spacer, rightSide))
}
