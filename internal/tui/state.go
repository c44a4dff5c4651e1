// Package tui holds the Bubble Tea models behind "storekit browse".
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ViewState is the screen a model is showing.
type ViewState int

const (
	// ViewStateLoading waits for the first page.
	ViewStateLoading ViewState = iota
	// ViewStateList shows the current page.
	ViewStateList
	// ViewStateError shows the last fetch failure.
	ViewStateError
	// ViewStateQuitting is entered just before tea.Quit.
	ViewStateQuitting
)

func (s ViewState) String() string {
	switch s {
	case ViewStateLoading:
		return "loading"
	case ViewStateList:
		return "list"
	case ViewStateError:
		return "error"
	case ViewStateQuitting:
		return "quitting"
	default:
		return "unknown"
	}
}

// Key names as reported by tea.KeyMsg.String.
const (
	keyQuit  = "q"
	keyCtrlC = "ctrl+c"
	keyEnter = "enter"
	keyEsc   = "esc"
	keySlash = "/"
	keyNext  = "n"
	keyPrev  = "p"
	keyRight = "right"
	keyLeft  = "left"
	keyRetry = "r"
	keyReset = "0"
)

// LoadingState is a spinner with a message.
type LoadingState struct {
	spinner spinner.Model
	message string
}

// NewLoadingState returns a dot spinner with the default message.
func NewLoadingState() *LoadingState {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle
	return &LoadingState{spinner: s, message: "Loading products..."}
}

// SetMessage replaces the message shown beside the spinner.
func (l *LoadingState) SetMessage(msg string) {
	l.message = msg
}

// Init starts the spinner.
func (l *LoadingState) Init() tea.Cmd {
	return l.spinner.Tick
}

// Update advances the spinner on its own tick messages.
func (l *LoadingState) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	l.spinner, cmd = l.spinner.Update(msg)
	return cmd
}

// RenderLoading returns the loading line.
func RenderLoading(loading *LoadingState) string {
	if loading == nil {
		return "Loading..."
	}
	return fmt.Sprintf("%s %s", loading.spinner.View(), loading.message)
}
