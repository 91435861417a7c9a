package keys

import "github.com/charmbracelet/bubbles/key"

// ConsoleKeys extend the transcript keys with input handling and the
// one-key bus actions available in normal mode.
type ConsoleKeys struct {
	TranscriptKeys
	Enter          key.Binding
	ToggleSendMode key.Binding
	Up             key.Binding
	Down           key.Binding
	Poll           key.Binding
	Trigger        key.Binding
	DeviceClear    key.Binding
	Local          key.Binding
}

func NewConsoleKeys() ConsoleKeys {
	return ConsoleKeys{
		TranscriptKeys: NewTranscriptKeys(),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		ToggleSendMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "toggle send mode"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "history up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "history down"),
		),
		Poll: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "serial poll"),
		),
		Trigger: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "trigger"),
		),
		DeviceClear: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "device clear"),
		),
		Local: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "go to local"),
		),
	}
}

func (k ConsoleKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.InsertMode, k.Poll, k.Enter, k.Quit}
}

func (k ConsoleKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.InsertMode, k.Escape, k.Clear},
		{k.Poll, k.Trigger, k.DeviceClear, k.Local},
		{k.ToggleHex, k.ToggleASCII, k.ToggleSendMode},
		{k.Up, k.Down, k.Enter, k.Help, k.Quit},
	}
}
