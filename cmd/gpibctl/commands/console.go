/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	gpib "github.com/allbin/go-gpib"
	"github.com/allbin/go-gpib/internal/tui/components"
	"github.com/allbin/go-gpib/internal/tui/keys"
	"github.com/allbin/go-gpib/internal/tui/models"
	"github.com/allbin/go-gpib/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// consoleCmd represents the console command
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Interactive instrument console",
	Long: `Open an interactive console session with the addressed device.

Commands typed at the prompt are written to the instrument; commands
ending in '?' also read back and display the response. Tab toggles
between ASCII and raw hex input. In normal mode single keys run bus
actions: p serial polls, t triggers, x sends a device clear and l
returns the device to local control.

Example usage:
  gpibctl --sim console --pad 22
  gpibctl console --pad 9 --board gpib1`,
	Run: func(cmd *cobra.Command, args []string) {
		dev, err := openDevice()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		maxLen, _ := cmd.Flags().GetInt("max-len")
		if err := runConsole(dev, maxLen); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)

	consoleCmd.Flags().Int("max-len", 1024, "Maximum number of bytes per response read")
}

// consoleModel is the Bubble Tea model for the console command
type consoleModel struct {
	*models.SessionModel
	transcript *components.Transcript
	statusBar  *components.StatusBar
	input      *components.Input
	help       help.Model
	keys       keys.ConsoleKeys
	maxLen     int
}

func runConsole(dev *gpib.Device, maxLen int) error {
	m := consoleModel{
		SessionModel: models.NewSessionModel(dev),
		transcript:   components.NewTranscript(0, 0), // sized by WindowSizeMsg
		statusBar:    components.NewStatusBar("GPIB Console"),
		input:        components.NewInput("Type a command, '?' suffix reads the response..."),
		help:         help.New(),
		keys:         keys.NewConsoleKeys(),
		maxLen:       maxLen,
	}
	m.statusBar.SetConnecting()
	m.statusBar.SetSessionInfo(&components.SessionInfo{
		Device:  dev.ID().String(),
		Timeout: viper.GetDuration("timeout"),
		SendEOI: true,
		Sim:     viper.GetBool("sim"),
	})

	p := tea.NewProgram(&m, tea.WithAltScreen())

	// Connect in the background; the facade is safe to call from here.
	go func() {
		err := dev.Connect(m.Context())
		p.Send(models.ConnectionStatusMsg{Connected: err == nil, Error: err})
	}()

	_, err := p.Run()
	m.Cleanup()
	return err
}

func (m *consoleModel) Init() tea.Cmd {
	return nil
}

// busAction runs one operation against the device and reports the
// resulting transcript entries plus the status word.
func (m *consoleModel) busAction(fn func(ctx context.Context) []components.Entry) tea.Cmd {
	dev := m.Device()
	ctx := m.Context()
	return func() tea.Msg {
		entries := fn(ctx)
		status, _ := dev.Status(ctx)
		return models.OpResultMsg{Entries: entries, Status: status}
	}
}

// sendCmd writes the current input to the device. ASCII commands ending
// in '?' are treated as queries and read back.
func (m *consoleModel) sendCmd(input string) tea.Cmd {
	dev := m.Device()
	mode := m.input.GetSendingMode()
	maxLen := m.maxLen

	return m.busAction(func(ctx context.Context) []components.Entry {
		var payload []byte
		isQuery := false
		switch mode {
		case components.SendingModeHex:
			decoded, err := parseHexString(input)
			if err != nil {
				return []components.Entry{{
					Timestamp: time.Now(),
					Dir:       components.DirEvent,
					Err:       fmt.Errorf("invalid hex input: %w", err),
				}}
			}
			payload = decoded
		default:
			payload = []byte(input)
			isQuery = strings.HasSuffix(strings.TrimSpace(input), "?")
		}

		entries := []components.Entry{{
			Timestamp: time.Now(),
			Dir:       components.DirTX,
			Data:      payload,
			Err:       dev.Write(ctx, payload),
		}}
		if entries[0].Err != nil || !isQuery {
			return entries
		}

		data, err := dev.Read(ctx, maxLen)
		return append(entries, components.Entry{
			Timestamp: time.Now(),
			Dir:       components.DirRX,
			Data:      data,
			Err:       err,
		})
	})
}

func (m *consoleModel) pollCmd() tea.Cmd {
	dev := m.Device()
	return m.busAction(func(ctx context.Context) []components.Entry {
		b, err := dev.SerialPoll(ctx)
		return []components.Entry{{
			Timestamp: time.Now(),
			Dir:       components.DirPoll,
			Note:      fmt.Sprintf("0x%02X", b),
			Err:       err,
		}}
	})
}

func (m *consoleModel) triggerCmd() tea.Cmd {
	dev := m.Device()
	return m.busAction(func(ctx context.Context) []components.Entry {
		return []components.Entry{{
			Timestamp: time.Now(),
			Dir:       components.DirEvent,
			Note:      "group execute trigger",
			Err:       dev.Trigger(ctx),
		}}
	})
}

func (m *consoleModel) deviceClearCmd() tea.Cmd {
	dev := m.Device()
	return m.busAction(func(ctx context.Context) []components.Entry {
		return []components.Entry{{
			Timestamp: time.Now(),
			Dir:       components.DirEvent,
			Note:      "selected device clear",
			Err:       dev.Clear(ctx),
		}}
	})
}

func (m *consoleModel) localCmd() tea.Cmd {
	dev := m.Device()
	return m.busAction(func(ctx context.Context) []components.Entry {
		_, err := dev.PushToLocal(ctx)
		return []components.Entry{{
			Timestamp: time.Now(),
			Dir:       components.DirEvent,
			Note:      "go to local",
			Err:       err,
		}}
	})
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		inputHeight := 3
		statusBarHeight := 1
		m.transcript.SetSize(msg.Width, msg.Height-inputHeight-statusBarHeight)
		m.input.SetWidth(msg.Width)
		m.statusBar.SetWidth(msg.Width)
		m.SetReady(true)

	case models.ConnectionStatusMsg:
		m.SetConnected(msg.Connected)
		if msg.Error != nil {
			m.SetError(msg.Error)
			m.statusBar.SetDisconnected(msg.Error)
			m.transcript.Add(components.Entry{
				Timestamp: time.Now(),
				Dir:       components.DirEvent,
				Err:       msg.Error,
			})
		} else {
			m.statusBar.SetConnected()
			m.transcript.Add(components.Entry{
				Timestamp: time.Now(),
				Dir:       components.DirEvent,
				Note:      "connected to " + m.Device().ID().String(),
			})
		}

	case models.OpResultMsg:
		for _, e := range msg.Entries {
			m.transcript.Add(e)
		}
		m.statusBar.UpdateStatusWord(msg.Status)

	case tea.KeyMsg:
		if m.IsInInsertMode() {
			switch {
			case key.Matches(msg, m.keys.Escape):
				m.SetInputMode(models.InputModeNormal)
				m.input.Blur()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Enter):
				if input := m.input.Value(); input != "" && m.IsConnected() {
					cmds = append(cmds, m.sendCmd(input))
					m.input.AddToHistory(input)
					m.input.SetValue("")
				}
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Up):
				m.input.NavigateHistoryUp()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.Down):
				m.input.NavigateHistoryDown()
				return m, tea.Batch(cmds...)
			case key.Matches(msg, m.keys.ToggleSendMode):
				m.input.ToggleSendingMode()
				return m, tea.Batch(cmds...)
			}
		} else {
			switch {
			case key.Matches(msg, m.keys.Quit):
				m.Cleanup()
				return m, tea.Quit

			case key.Matches(msg, m.keys.InsertMode):
				m.SetInputMode(models.InputModeInsert)
				m.input.Focus()
				return m, tea.Batch(cmds...)

			case key.Matches(msg, m.keys.Clear):
				m.transcript.Clear()

			case key.Matches(msg, m.keys.Help):
				m.help.ShowAll = !m.help.ShowAll

			case key.Matches(msg, m.keys.ToggleHex):
				m.transcript.ToggleHex()

			case key.Matches(msg, m.keys.ToggleASCII):
				m.transcript.ToggleASCII()

			case key.Matches(msg, m.keys.Poll):
				if m.IsConnected() {
					cmds = append(cmds, m.pollCmd())
				}

			case key.Matches(msg, m.keys.Trigger):
				if m.IsConnected() {
					cmds = append(cmds, m.triggerCmd())
				}

			case key.Matches(msg, m.keys.DeviceClear):
				if m.IsConnected() {
					cmds = append(cmds, m.deviceClearCmd())
				}

			case key.Matches(msg, m.keys.Local):
				if m.IsConnected() {
					cmds = append(cmds, m.localCmd())
				}
			}
		}
	}

	var cmd tea.Cmd
	if m.IsInInsertMode() {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	switch msg.(type) {
	case tea.WindowSizeMsg:
		_, cmd = m.transcript.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *consoleModel) View() string {
	var content string
	if m.IsReady() {
		content = m.transcript.View()
	} else {
		content = "Initializing..."
	}

	isInsert := m.IsInInsertMode()
	input := m.input.ViewWithMode(isInsert)

	inputMode := m.GetInputMode().String()
	sendingMode := m.input.GetSendingMode().String()
	timestamp := time.Now().Format("15:04:05")

	width := 80
	if m.IsReady() {
		width = m.transcript.Width()
	}
	m.statusBar.SetWidth(width)
	statusBar := m.statusBar.View(inputMode, sendingMode, m.IsConnected(), timestamp)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		styles.ContentBorderStyle.Render(content),
		input,
		statusBar,
	)
}
