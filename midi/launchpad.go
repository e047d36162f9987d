package midi

import (
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// LED levels sent as note-on velocity. On a Launchpad in programmer mode these
// are palette indices; on simpler controllers they read as brightness.
const (
	LEDOff    uint8 = 0
	LEDDim    uint8 = 1
	LEDBright uint8 = 3
	LEDFull   uint8 = 127
)

// IsLaunchpad reports whether a port name belongs to a Novation Launchpad
func IsLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

// ProgrammerMode returns the SysEx that puts a Launchpad X into programmer
// mode with full brightness, so pads light from our note-on messages.
func ProgrammerMode() []gomidi.Message {
	return []gomidi.Message{
		// F0 00 20 29 02 0C 00 7F F7
		gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x00, 0x7F}),
		// F0 00 20 29 02 0C 08 <brightness> F7
		gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x08, 0x7F}),
		// F0 00 20 29 02 0C 0A 01 01 F7
		gomidi.SysEx([]byte{0x00, 0x20, 0x29, 0x02, 0x0C, 0x0A, 0x01, 0x01}),
	}
}

// LED builds the note-on that sets a control's light
func LED(channel, note, color uint8) gomidi.Message {
	return gomidi.NoteOn(channel, note, color)
}
