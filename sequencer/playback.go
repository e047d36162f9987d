package sequencer

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// playback computes the note-on/off changes for every part at beat. A pitch
// that is still sounding is released before it retriggers or goes silent;
// Sustain leaves it running.
func (e *Engine) playback(beat int64) []gomidi.Message {
	var msgs []gomidi.Message
	for part := 0; part < Parts; part++ {
		pattern, step := e.store.CurrentStep(part, beat)
		cell := e.store.Step(part, pattern, step)
		p := &e.parts[part]
		ch := uint8(part)

		for note, velocity := range cell {
			if velocity == Sustain {
				continue
			}
			if p.sounding[note] {
				msgs = append(msgs, gomidi.NoteOff(ch, uint8(note)))
				p.sounding[note] = false
			}
			if velocity > 0 && !p.Muted {
				msgs = append(msgs, gomidi.NoteOn(ch, uint8(note), uint8(velocity)))
				p.sounding[note] = true
			}
		}
	}
	return msgs
}
