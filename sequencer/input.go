package sequencer

import (
	gomidi "gitlab.com/gomidi/midi/v2"

	"gridseq/debug"
)

// noteOn dispatches a press. The press is recorded after dispatch so that
// handlers only see other held controls.
func (e *Engine) noteOn(key Key, velocity uint8) error {
	press := Press{Key: key, Velocity: velocity, At: e.now}
	debug.Log("press", "on %s vel=%d", key, velocity)

	var err error
	switch key.Control {
	case ControlPerformance:
		press.Part = e.focused
		err = e.perform(e.focused, uint8(key.Index), velocity)

	case ControlMute:
		part := &e.parts[key.Index]
		if !part.Muted {
			part.Muted = true
			part.muting = true
			err = e.sweep(key.Index)
		}

	case ControlPart:
		if e.toggles[ToggleVoice] {
			last := &e.parts[key.Index]
			press.Part = key.Index
			press.Note = last.LastNote
			press.Previewed = true
			err = e.sendNotes([]gomidi.Message{
				gomidi.NoteOn(uint8(key.Index), last.LastNote, last.LastVelocity),
			})
		}
		e.previousFocus = e.focused
		e.focused = key.Index

	case ControlPattern:
		part, pattern := key.Index/Patterns, key.Index%Patterns
		if e.Playing() {
			e.store.Queue(part, []int{pattern})
			debug.Log("queue", "part=%d queued pattern %d", part, pattern)
		} else {
			e.store.SetSequence(part, []int{pattern}, 0)
		}

	case ControlStep:
		e.written[key.Index] = false
		pattern, _ := e.currentStep(e.focused)
		if e.presses.Has(e.patternKey(e.focused, pattern)) {
			e.store.SetLength(e.focused, pattern, key.Index+1)
			debug.Log("press", "part=%d pattern=%d length=%d", e.focused, pattern, key.Index+1)
		}

	case ControlVoice, ControlPlay, ControlRecord, ControlClear:
		err = e.flip(key.Control)

	case ControlNone:
	}

	e.presses.Add(press)
	return err
}

// noteOff dispatches a release. Releases without a recorded press are ignored.
func (e *Engine) noteOff(key Key) error {
	press, ok := e.presses.Get(key)
	if !ok {
		return nil
	}
	defer e.presses.Remove(key)

	held := e.now.Sub(press.At) >= HoldDuration
	debug.Log("press", "off %s held=%t", key, held)

	switch key.Control {
	case ControlPerformance:
		return e.sendNotes([]gomidi.Message{
			gomidi.NoteOff(uint8(press.Part), uint8(key.Index)),
		})

	case ControlMute:
		part := &e.parts[key.Index]
		if part.muting {
			part.muting = false
		} else {
			part.Muted = false
		}

	case ControlPart:
		var err error
		if press.Previewed {
			err = e.sendNotes([]gomidi.Message{
				gomidi.NoteOff(uint8(press.Part), press.Note),
			})
		}
		if held {
			e.focused = e.previousFocus
		}
		return err

	case ControlPattern:
		// Chaining several held patterns into one sequence is not supported

	case ControlStep:
		e.releaseStep(key.Index)

	case ControlVoice, ControlPlay, ControlRecord, ControlClear:
		if held {
			return e.flip(key.Control)
		}

	case ControlNone:
	}
	return nil
}

// releaseStep inserts the last played note into an empty step, or erases a
// step that was pressed without programming anything
func (e *Engine) releaseStep(index int) {
	pattern, _ := e.currentStep(e.focused)
	if e.presses.Has(e.patternKey(e.focused, pattern)) {
		// gate length edit
		return
	}

	step := e.store.Step(e.focused, pattern, index)
	if step.IsEmpty() {
		last := &e.parts[e.focused]
		step[last.LastNote] = int8(last.LastVelocity)
		return
	}
	if !e.written[index] && !e.presses.Other(ControlStep, index) {
		step.Clear()
	}
}

func (e *Engine) flip(c Control) error {
	t, ok := c.Toggle()
	if !ok {
		return nil
	}
	e.toggles[t] = !e.toggles[t]
	debug.Log("press", "%s=%t", t, e.toggles[t])
	if t == TogglePlay {
		return e.handlePlay()
	}
	return nil
}

func (e *Engine) patternKey(part, pattern int) Key {
	return Key{Control: ControlPattern, Index: part*Patterns + pattern}
}
