package sequencer

import "time"

const (
	Parts    = 8
	Patterns = 4
	Steps    = 32
	Notes    = 127

	// BPM is fixed; there is no external clock
	BPM = 120.0

	// HoldDuration separates a tap (latch) from a hold (momentary)
	HoldDuration = 300 * time.Millisecond
)

// Every part starts with C2 at velocity 100 as its last played note
const (
	defaultNote     uint8 = 48
	defaultVelocity uint8 = 100
)

// Part holds the per-track playback state. Grid content lives in the Store.
type Part struct {
	Muted bool

	// muting is set by the press that muted the part, so its release keeps
	// the mute latched instead of undoing it
	muting bool

	LastNote     uint8
	LastVelocity uint8

	// sounding[n] is true while a note-on for n is out without its note-off
	sounding [Notes]bool
}

func newPart() Part {
	return Part{LastNote: defaultNote, LastVelocity: defaultVelocity}
}

// Sounding reports whether playback left note n on
func (p *Part) Sounding(n int) bool {
	return n >= 0 && n < Notes && p.sounding[n]
}

// Toggle is one of the four latch-or-hold switches
type Toggle int

const (
	ToggleVoice Toggle = iota
	TogglePlay
	ToggleRecord
	ToggleClear
	numToggles
)

func (t Toggle) String() string {
	switch t {
	case ToggleVoice:
		return "voice"
	case TogglePlay:
		return "play"
	case ToggleRecord:
		return "record"
	case ToggleClear:
		return "clear"
	}
	return "unknown"
}
