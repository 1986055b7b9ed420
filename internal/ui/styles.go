package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Layout constants
const (
	MinViewportWidth = 80
	MaxViewportWidth = 140
	DefaultWidth     = 110 // Used when terminal size is unknown
	TableHeight      = 15
)

// Layout holds computed dimensions for the current terminal size
type Layout struct {
	ViewportWidth int // clamped terminal width
	TableWidth    int // minus border + padding
	Height        int
}

// NewLayout creates a Layout from the terminal size, clamping the width to min/max
func NewLayout(terminalWidth, terminalHeight int) Layout {
	width := clamp(terminalWidth, MinViewportWidth, MaxViewportWidth)
	return Layout{
		ViewportWidth: width,
		TableWidth:    width - 4,
		Height:        terminalHeight,
	}
}

// DefaultLayout returns a layout using the default width
func DefaultLayout() Layout {
	return NewLayout(DefaultWidth, TableHeight+8)
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Color palette - centralized color definitions
var (
	ColorBorder    = lipgloss.Color("196") // red
	ColorHighlight = lipgloss.Color("88")  // dark red background
	ColorText      = lipgloss.Color("15")  // bright white
	ColorAccent    = lipgloss.Color("226") // bright yellow
	ColorTextDim   = lipgloss.Color("241") // gray
	ColorSuccess   = lipgloss.Color("82")  // green
	ColorCert      = lipgloss.Color("86")  // cyan
	ColorArchive   = lipgloss.Color("213") // magenta
)

// Common styles - reusable style definitions
var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	// Report banner: "=== domain Title ==="
	BannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Background(ColorHighlight).
			Padding(0, 1)

	// Section titles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	// Underline rules below section titles
	RuleStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)

	// Sub-headings inside a section ("Issuer distribution")
	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorHighlight).
			Bold(true)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	HintStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			Italic(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorBorder).
			Bold(true)

	CertTagStyle = lipgloss.NewStyle().
			Foreground(ColorCert).
			Bold(true)

	ArchiveTagStyle = lipgloss.NewStyle().
			Foreground(ColorArchive).
			Bold(true)
)

// RenderNormal renders text in the default foreground
func RenderNormal(s string) string {
	return NormalStyle.Render(s)
}

// NewAppSpinner creates the white dot spinner used for blocking fetches
func NewAppSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorText)
	return s
}

// ApplyTableStyles gives a table the app's header and selection colors
func ApplyTableStyles(t *table.Model) {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorText)
	s.Selected = SelectedStyle
	s.Cell = s.Cell.Foreground(ColorText)
	t.SetStyles(s)
}

// NewAppTheme creates a huh theme matching the app's style guide
// White text, red highlights/selection
func NewAppTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().
		Foreground(ColorText).
		Bold(true)
	t.Blurred.Title = t.Focused.Title

	t.Focused.Description = lipgloss.NewStyle().
		Foreground(ColorTextDim)
	t.Blurred.Description = t.Focused.Description

	t.Focused.Base = lipgloss.NewStyle().
		Foreground(ColorText)
	t.Blurred.Base = t.Focused.Base

	// Selected option - red background, white text
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(ColorText).
		Background(ColorBorder).
		Bold(true).
		Padding(0, 1)

	t.Focused.UnselectedOption = lipgloss.NewStyle().
		Foreground(ColorText).
		Padding(0, 1)

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(ColorBorder)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(ColorTextDim)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().
		Foreground(ColorBorder)

	return t
}
