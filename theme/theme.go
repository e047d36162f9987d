package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"gridseq/midi"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	On  rune // ■ lit toggle or focused part
	Off rune // □

	StepEmpty    rune // · nothing programmed
	StepActive   rune // ● holds notes
	StepPlayhead rune // ▶ current playing
	StepBeyond   rune // - past gate length
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			On:  '■',
			Off: '□',

			StepEmpty:    '·',
			StepActive:   '●',
			StepPlayhead: '▶',
			StepBeyond:   '-',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0 // deep purple
	RoleMuted   = 0.2 // purple-magenta
	RoleFG      = 0.4 // pink-purple (readable)
	RoleAccent  = 0.5 // vivid magenta
	RoleActive  = 0.7 // soft red
	RoleWarning = 0.8 // orange
	RoleSuccess = 1.0 // bright yellow
)

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

// LED maps a controller LED level to the color the screen shows for it
func (t *Theme) LED(level uint8) RGB {
	switch level {
	case midi.LEDOff:
		return t.Palette.Lookup(RoleBG)
	case midi.LEDDim:
		return t.Palette.Lookup(RoleMuted)
	case midi.LEDBright:
		return t.Palette.Lookup(RoleActive)
	}
	return t.Palette.Lookup(RoleSuccess)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
