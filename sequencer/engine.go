// Package sequencer is the real-time engine: transport clock, press handling,
// the pattern store, recording, playback and LED feedback. An Engine is owned
// by one goroutine and advanced with Tick.
package sequencer

import (
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"

	"gridseq/config"
	"gridseq/debug"
	"gridseq/midi"
)

// Output resolves where MIDI goes. Either method may return nil when the
// port is missing; the engine then skips that output.
type Output interface {
	Notes() midi.Sender
	Device(name string) midi.Sender
}

// Engine is the whole sequencer state plus its collaborators
type Engine struct {
	cfg      *config.Config
	resolver resolver
	out      Output

	clock *Clock
	store *Store
	parts [Parts]Part

	focused       int
	previousFocus int

	toggles [numToggles]bool
	presses Presses

	// written[i] is set when a note is programmed into held step i, so its
	// release doesn't erase it
	written [Steps]bool

	// last color sent per control
	colors map[Key]uint8

	// time of the tick being processed
	now time.Time
}

// NewEngine creates a stopped engine with an empty grid
func NewEngine(cfg *config.Config, out Output) *Engine {
	e := &Engine{
		cfg:      cfg,
		resolver: resolver{cfg: cfg},
		out:      out,
		clock:    NewClock(BPM),
		store:    NewStore(),
		colors:   make(map[Key]uint8),
	}
	for i := range e.parts {
		e.parts[i] = newPart()
	}
	return e
}

// Store exposes the pattern grid
func (e *Engine) Store() *Store { return e.store }

// Clock exposes the transport clock
func (e *Engine) Clock() *Clock { return e.clock }

// Part returns a part's playback state
func (e *Engine) Part(i int) *Part { return &e.parts[i] }

// Focused is the part that receives performance input
func (e *Engine) Focused() int { return e.focused }

// Toggle reports a switch's state
func (e *Engine) Toggle(t Toggle) bool { return e.toggles[t] }

// Playing reports whether the transport runs
func (e *Engine) Playing() bool { return e.toggles[TogglePlay] }

// Tick runs one scheduler pass: clock, input, beat work and LEDs
func (e *Engine) Tick(now time.Time, batches []midi.Batch) error {
	e.now = now

	if e.Playing() {
		e.clock.Update(now)
	}

	for _, batch := range batches {
		if err := e.handleBatch(batch); err != nil {
			return err
		}
	}

	if e.clock.Advance(now) {
		if err := e.newBeat(); err != nil {
			return err
		}
	}

	return e.updateVisuals()
}

func (e *Engine) handleBatch(batch midi.Batch) error {
	for _, msg := range midi.Decode(batch.Data) {
		key, ok := e.resolver.Resolve(batch.Device, msg.Channel, msg.Note)
		if !ok {
			debug.Log("input", "unmapped %s dev=%q ch=%d note=%d", msg.Side, batch.Device, msg.Channel, msg.Note)
			continue
		}

		var err error
		if msg.Side == midi.Press {
			err = e.noteOn(key, msg.Velocity)
		} else {
			err = e.noteOff(key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// newBeat is the only place playback, recording and queue switches happen
func (e *Engine) newBeat() error {
	beat := e.clock.Beat()
	debug.LogEvery(32, "beat", "beat=%d", beat)

	for _, part := range e.store.BarBoundaries(beat) {
		e.store.ApplyQueued(part, beat)
		debug.Log("queue", "part=%d now plays %v from beat %d", part, e.store.Sequence(part).Patterns, beat)
	}

	pattern, step := e.currentStep(e.focused)

	if e.toggles[ToggleClear] {
		e.store.Step(e.focused, pattern, step).Clear()
	}

	if e.toggles[ToggleRecord] {
		e.recordHeld(pattern, step)
	}

	if !e.Playing() {
		return nil
	}
	return e.sendNotes(e.playback(beat))
}

func (e *Engine) currentStep(part int) (pattern, step int) {
	return e.store.CurrentStep(part, e.clock.Beat())
}

// handlePlay runs whenever the play switch changes
func (e *Engine) handlePlay() error {
	if e.Playing() {
		e.clock.Start(e.now)
		e.store.Reanchor(e.clock.Beat())
		debug.Log("play", "start, %s per step", e.clock.StepDuration())
		return nil
	}
	debug.Log("play", "stop at beat %d", e.clock.Beat())
	return e.sweepAll()
}

// sweep sends note-off for every pitch on a part
func (e *Engine) sweep(part int) error {
	msgs := make([]gomidi.Message, 0, Notes)
	for note := 0; note < Notes; note++ {
		msgs = append(msgs, gomidi.NoteOff(uint8(part), uint8(note)))
	}
	e.parts[part].sounding = [Notes]bool{}
	return e.sendNotes(msgs)
}

func (e *Engine) sweepAll() error {
	for part := 0; part < Parts; part++ {
		if err := e.sweep(part); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) sendNotes(msgs []gomidi.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	notes := e.out.Notes()
	if notes == nil {
		return nil
	}
	if err := notes.Send(msgs); err != nil {
		return fault.Wrap(err, fmsg.With("send notes"))
	}
	return nil
}

// Shutdown silences every part and darkens the controller
func (e *Engine) Shutdown() error {
	if err := e.sweepAll(); err != nil {
		return err
	}
	return e.darken()
}
