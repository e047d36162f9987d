package sequencer

import (
	"fmt"

	"gridseq/config"
)

// Control is the logical kind of a pressed button or key
type Control int

const (
	ControlNone Control = iota
	ControlPart
	ControlMute
	ControlPattern
	ControlStep
	ControlVoice
	ControlPlay
	ControlRecord
	ControlClear
	ControlPerformance
)

// controlOrder is the lookup order for grid controls
var controlOrder = []Control{
	ControlPart, ControlMute, ControlPattern, ControlStep,
	ControlVoice, ControlPlay, ControlRecord, ControlClear,
}

// Label returns the mapping-file label for the control
func (c Control) Label() config.Label {
	switch c {
	case ControlPart:
		return config.LabelParts
	case ControlMute:
		return config.LabelMutes
	case ControlPattern:
		return config.LabelPatterns
	case ControlStep:
		return config.LabelSteps
	case ControlVoice:
		return config.LabelVoice
	case ControlPlay:
		return config.LabelPlay
	case ControlRecord:
		return config.LabelRecord
	case ControlClear:
		return config.LabelClear
	case ControlPerformance:
		return config.LabelPerformance
	}
	return ""
}

func (c Control) String() string {
	if c == ControlNone {
		return "none"
	}
	return string(c.Label())
}

// Toggle returns the switch a toggle control flips
func (c Control) Toggle() (Toggle, bool) {
	switch c {
	case ControlVoice:
		return ToggleVoice, true
	case ControlPlay:
		return TogglePlay, true
	case ControlRecord:
		return ToggleRecord, true
	case ControlClear:
		return ToggleClear, true
	}
	return 0, false
}

// size is how many indices a control kind has
func (c Control) size() int {
	switch c {
	case ControlPart, ControlMute:
		return Parts
	case ControlPattern:
		return Parts * Patterns
	case ControlStep:
		return Steps
	case ControlPerformance:
		return Notes
	}
	return 1
}

// Key identifies one control instance. Index is the position within the
// control's list, the note number for performance, and 0 for toggles.
type Key struct {
	Control Control
	Index   int
}

func (k Key) String() string {
	return fmt.Sprintf("%s[%d]", k.Control, k.Index)
}

// resolver maps incoming notes to controls using the mapping file
type resolver struct {
	cfg *config.Config
}

// Resolve finds the control a note addresses. Notes from the performance
// device are always performance input.
func (r resolver) Resolve(device string, channel, note uint8) (Key, bool) {
	if perf, ok := r.cfg.PerformanceDevice(); ok && perf == device {
		if int(note) >= Notes {
			return Key{}, false
		}
		return Key{Control: ControlPerformance, Index: int(note)}, true
	}

	for _, c := range controlOrder {
		if b := r.cfg.Single(c.Label()); b != nil {
			if b.Matches(device, channel, note) {
				return Key{Control: c}, true
			}
			continue
		}
		for i, b := range r.cfg.List(c.Label()) {
			if !b.Matches(device, channel, note) {
				continue
			}
			// Extra calibrated buttons beyond the engine's range do nothing
			if i >= c.size() {
				return Key{}, false
			}
			return Key{Control: c, Index: i}, true
		}
	}
	return Key{}, false
}

// Classify resolves a note against a mapping the same way the engine does
func Classify(cfg *config.Config, device string, channel, note uint8) (Key, bool) {
	return resolver{cfg: cfg}.Resolve(device, channel, note)
}
