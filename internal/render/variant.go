// Package render draws the teamboard views for a terminal.
package render

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/example/teamboard/internal/application"
)

// Variant is the closed set of emphasis styles. The zero value is VariantPrimary.
type Variant int

const (
	VariantPrimary Variant = iota
	VariantSecondary
	VariantOutline
	VariantText
	VariantDanger
	VariantGhost
)

var variantNames = [...]string{"primary", "secondary", "outline", "text", "danger", "ghost"}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return variantNames[VariantPrimary]
	}
	return variantNames[v]
}

// ParseVariant maps a name to its Variant. Unknown names yield VariantPrimary
// and false.
func ParseVariant(name string) (Variant, bool) {
	for i, n := range variantNames {
		if n == name {
			return Variant(i), true
		}
	}
	return VariantPrimary, false
}

var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "27", Dark: "62"}
	colorOnColor = lipgloss.AdaptiveColor{Light: "255", Dark: "255"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	colorSurface = lipgloss.AdaptiveColor{Light: "252", Dark: "238"}
	colorDanger  = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "28", Dark: "42"}
	colorWarning = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
)

// VariantStyle resolves v to a style built on r. Out of range values resolve
// like VariantPrimary.
func VariantStyle(r *lipgloss.Renderer, v Variant) lipgloss.Style {
	base := r.NewStyle()
	switch v {
	case VariantSecondary:
		return base.Foreground(colorOnColor).Background(colorMuted).Padding(0, 1)
	case VariantOutline:
		return base.Foreground(colorAccent).Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1)
	case VariantText:
		return base.Foreground(colorAccent).Underline(true)
	case VariantDanger:
		return base.Bold(true).Foreground(colorOnColor).Background(colorDanger).Padding(0, 1)
	case VariantGhost:
		return base.Foreground(colorMuted)
	default:
		return base.Bold(true).Foreground(colorOnColor).Background(colorAccent).Padding(0, 1)
	}
}

// Tone is the badge colour family of an availability status.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneSuccess
	ToneError
	ToneWarning
)

func (t Tone) String() string {
	switch t {
	case ToneSuccess:
		return "success"
	case ToneError:
		return "error"
	case ToneWarning:
		return "warning"
	}
	return "neutral"
}

// AvailabilityTone maps a status to its badge tone.
func AvailabilityTone(status application.AvailabilityStatus) Tone {
	switch status.Normalize() {
	case application.AvailabilityAvailable:
		return ToneSuccess
	case application.AvailabilityBusy:
		return ToneError
	case application.AvailabilityTentative:
		return ToneWarning
	}
	return ToneNeutral
}

func toneColor(t Tone) lipgloss.TerminalColor {
	switch t {
	case ToneSuccess:
		return colorSuccess
	case ToneError:
		return colorDanger
	case ToneWarning:
		return colorWarning
	}
	return colorMuted
}
