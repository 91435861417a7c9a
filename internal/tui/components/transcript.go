package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/allbin/go-gpib/internal/tui/colors"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Direction classifies a transcript entry by what happened on the bus.
type Direction int

const (
	DirTX    Direction = iota // data written to the instrument
	DirRX                     // data read back
	DirPoll                   // serial poll result
	DirEvent                  // connection and bus events
)

// Entry is one line of the session transcript.
type Entry struct {
	Timestamp time.Time
	Dir       Direction
	Data      []byte
	Note      string // extra text for polls and events
	Err       error
}

type DisplayMode struct {
	ShowHex   bool
	ShowASCII bool
}

// Transcript renders bus traffic into a scrolling viewport.
type Transcript struct {
	viewport viewport.Model
	mode     DisplayMode
	lines    []string
	raw      []Entry
}

func NewTranscript(width, height int) *Transcript {
	return &Transcript{
		viewport: viewport.New(width, height),
		mode:     DisplayMode{ShowASCII: true},
	}
}

func (t *Transcript) SetSize(width, height int) {
	t.viewport.Width = width
	t.viewport.Height = height
}

func (t *Transcript) Width() int {
	return t.viewport.Width
}

func (t *Transcript) Add(e Entry) {
	t.raw = append(t.raw, e)
	t.lines = append(t.lines, t.format(e))
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	t.viewport.GotoBottom()
}

func (t *Transcript) Clear() {
	t.raw = nil
	t.lines = nil
	t.viewport.SetContent("")
}

func (t *Transcript) ToggleHex() {
	t.mode.ShowHex = !t.mode.ShowHex
	t.refresh()
}

func (t *Transcript) ToggleASCII() {
	t.mode.ShowASCII = !t.mode.ShowASCII
	t.refresh()
}

// refresh reformats every entry after a display mode change.
func (t *Transcript) refresh() {
	t.lines = make([]string, len(t.raw))
	for i, e := range t.raw {
		t.lines[i] = t.format(e)
	}
	t.viewport.SetContent(strings.Join(t.lines, "\n"))
	t.viewport.GotoBottom()
}

func (t *Transcript) format(e Entry) string {
	timestamp := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Render(e.Timestamp.Format("[15:04:05.000]"))

	var indicator string
	switch {
	case e.Err != nil:
		indicator = lipgloss.NewStyle().
			Foreground(colors.Red).
			Bold(true).
			Render("✗ ERR")
	case e.Dir == DirTX:
		indicator = lipgloss.NewStyle().
			Foreground(colors.Peach).
			Bold(true).
			Render("↗ TX")
	case e.Dir == DirRX:
		indicator = lipgloss.NewStyle().
			Foreground(colors.Sky).
			Bold(true).
			Render("↙ RX")
	case e.Dir == DirPoll:
		indicator = lipgloss.NewStyle().
			Foreground(colors.Teal).
			Bold(true).
			Render("◎ STB")
	default:
		indicator = lipgloss.NewStyle().
			Foreground(colors.Overlay1).
			Render("· ---")
	}

	var parts []string
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if e.Note != "" {
		parts = append(parts, e.Note)
	}
	if len(e.Data) > 0 {
		if t.mode.ShowHex {
			parts = append(parts, fmt.Sprintf("HEX: % X", e.Data))
		}
		if t.mode.ShowASCII {
			parts = append(parts, "ASCII: "+printable(e.Data))
		}
		if !t.mode.ShowHex && !t.mode.ShowASCII {
			parts = append(parts, fmt.Sprintf("BYTES: %d", len(e.Data)))
		}
	}

	return fmt.Sprintf("%s %s  %s", timestamp, indicator, strings.Join(parts, "  "))
}

// printable replaces non-printable bytes so instrument responses cannot
// emit control sequences into the terminal.
func printable(data []byte) string {
	var b strings.Builder
	for _, c := range data {
		if c >= 32 && c <= 126 {
			b.WriteByte(c)
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func (t *Transcript) Update(msg tea.Msg) (viewport.Model, tea.Cmd) {
	// Only window resizes reach the viewport; key bindings are handled
	// by the model.
	switch msg.(type) {
	case tea.WindowSizeMsg:
		return t.viewport.Update(msg)
	default:
		return t.viewport, nil
	}
}

func (t *Transcript) View() string {
	return t.viewport.View()
}
