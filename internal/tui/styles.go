package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
const (
	ColorHeader    = lipgloss.Color("39")
	ColorLabel     = lipgloss.Color("245")
	ColorValue     = lipgloss.Color("252")
	ColorMuted     = lipgloss.Color("240")
	ColorHighlight = lipgloss.Color("229")
	ColorCritical  = lipgloss.Color("196")
	ColorAccent    = lipgloss.Color("57")
)

//nolint:gochecknoglobals // Shared read-only styles.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHighlight).
			Background(ColorAccent).
			Padding(0, 1)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorHeader).
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(ColorMuted).
			BorderBottom(true)

	ActiveHeaderStyle = HeaderStyle.Foreground(ColorHighlight)

	LabelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	ValueStyle    = lipgloss.NewStyle().Foreground(ColorValue)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	CriticalStyle = lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
	SpinnerStyle  = lipgloss.NewStyle().Foreground(ColorHeader)
)
