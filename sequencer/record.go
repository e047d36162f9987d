package sequencer

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// perform sounds a performance note on a part and writes it into the grid
// when recording or when a step button is held
func (e *Engine) perform(part int, note, velocity uint8) error {
	if err := e.sendNotes([]gomidi.Message{gomidi.NoteOn(uint8(part), note, velocity)}); err != nil {
		return err
	}

	p := &e.parts[part]
	p.LastNote = note
	p.LastVelocity = velocity

	if e.toggles[ToggleRecord] {
		pattern, step := e.currentStep(part)
		// A note played in the second half of a beat lands on the next step
		if e.clock.Microstep() >= 0.5 {
			step = (step + 1) % e.store.Length(part, pattern)
		}
		e.store.Step(part, pattern, step)[note] = int8(velocity)
		return nil
	}

	if held, ok := e.presses.First(ControlStep); ok {
		pattern, _ := e.currentStep(part)
		e.store.Step(part, pattern, held.Index)[note] = int8(velocity)
		e.written[held.Index] = true
	}
	return nil
}

// recordHeld extends every held performance note into the current step.
// A note already running into this step becomes Sustain, so a held note is
// stored as its velocity followed by a run of Sustain markers.
func (e *Engine) recordHeld(pattern, step int) {
	part := e.focused
	current := e.store.Step(part, pattern, step)
	beatStart := e.clock.BeatStartedAt()

	for _, press := range e.presses.Of(ControlPerformance) {
		velocity := int8(press.Velocity)
		hold := false
		if step > 0 && beatStart.After(press.At) {
			prev := e.store.Step(part, pattern, step-1)[press.Index]
			hold = prev == velocity || prev == Sustain
		}
		if hold {
			current[press.Index] = Sustain
		} else {
			current[press.Index] = velocity
		}
	}
}
