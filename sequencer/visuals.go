package sequencer

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	gomidi "gitlab.com/gomidi/midi/v2"

	"gridseq/debug"
	"gridseq/midi"
)

// ledBatch collects LED messages per device for one flush
type ledBatch struct {
	e     *Engine
	order []string
	msgs  map[string][]gomidi.Message
}

func (e *Engine) newLEDBatch() *ledBatch {
	return &ledBatch{e: e, msgs: make(map[string][]gomidi.Message)}
}

// set queues a color for a control unless it already shows it
func (b *ledBatch) set(c Control, index int, color uint8) {
	key := Key{Control: c, Index: index}
	if prev, ok := b.e.colors[key]; ok && prev == color {
		return
	}
	binding := b.e.cfg.Find(c.Label(), index)
	if binding == nil || b.e.out.Device(binding.Device) == nil {
		return
	}
	b.e.colors[key] = color

	if _, ok := b.msgs[binding.Device]; !ok {
		b.order = append(b.order, binding.Device)
	}
	b.msgs[binding.Device] = append(b.msgs[binding.Device], midi.LED(binding.Channel, binding.Note, color))
}

func (b *ledBatch) flush() error {
	for _, device := range b.order {
		msgs := b.msgs[device]
		debug.Log("led", "device=%q updates=%d", device, len(msgs))
		if err := b.e.out.Device(device).Send(msgs); err != nil {
			return fault.Wrap(err, fmsg.With("send LEDs"))
		}
	}
	return nil
}

func onOff(on bool) uint8 {
	if on {
		return midi.LEDFull
	}
	return midi.LEDOff
}

// updateVisuals sends the colors that changed since the last tick
func (e *Engine) updateVisuals() error {
	b := e.newLEDBatch()

	for part := 0; part < Parts; part++ {
		b.set(ControlPart, part, onOff(part == e.focused))
		b.set(ControlMute, part, onOff(e.parts[part].Muted))
	}

	for part := 0; part < Parts; part++ {
		current, _ := e.currentStep(part)
		queued := e.store.Queued(part)
		for pattern := 0; pattern < Patterns; pattern++ {
			color := midi.LEDOff
			switch {
			case pattern == current:
				color = midi.LEDBright
			case contains(queued, pattern):
				color = midi.LEDDim
			}
			b.set(ControlPattern, part*Patterns+pattern, color)
		}
	}

	pattern, playhead := e.currentStep(e.focused)
	for step := 0; step < Steps; step++ {
		color := midi.LEDOff
		switch {
		case e.Playing() && step == playhead:
			color = midi.LEDBright
		case !e.store.Step(e.focused, pattern, step).IsEmpty():
			color = midi.LEDDim
		}
		b.set(ControlStep, step, color)
	}

	for _, c := range []Control{ControlVoice, ControlPlay, ControlRecord, ControlClear} {
		t, _ := c.Toggle()
		b.set(c, 0, onOff(e.toggles[t]))
	}

	return b.flush()
}

// darken turns every mapped LED off
func (e *Engine) darken() error {
	b := e.newLEDBatch()
	for _, c := range controlOrder {
		n := c.size()
		for i := 0; i < n; i++ {
			b.set(c, i, midi.LEDOff)
		}
	}
	return b.flush()
}

func contains(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
