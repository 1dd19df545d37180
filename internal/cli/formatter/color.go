package formatter

import (
	"fmt"
	"strings"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// SignatureStateColor returns the style for a milestone's signing state.
func SignatureStateColor(state domain.SignatureState) lipgloss.Style {
	switch state {
	case domain.StateLocked:
		return StyleGreen
	case domain.StateSupplierOnly, domain.StateCustomerOnly:
		return StyleYellow
	default:
		return StyleDim
	}
}

// BaselineIndicator returns a colored indicator such as "● LOCKED".
func BaselineIndicator(state domain.SignatureState) string {
	switch state {
	case domain.StateLocked:
		return StyleGreen.Render("● LOCKED")
	case domain.StateSupplierOnly:
		return StyleYellow.Render("◐ SUPPLIER SIGNED")
	case domain.StateCustomerOnly:
		return StyleYellow.Render("◐ CUSTOMER SIGNED")
	default:
		return StyleDim.Render("○ UNSIGNED")
	}
}

// BreachIndicator returns a colored breach marker or an empty-state dash.
func BreachIndicator(breached bool) string {
	if breached {
		return StyleRed.Render("▲ BREACHED")
	}
	return StyleDim.Render("—")
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
