package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"gridseq/config"
	"gridseq/midi"
)

type fakeSender struct {
	msgs  []gomidi.Message
	sends int
}

func (f *fakeSender) Send(msgs []gomidi.Message) error {
	f.sends++
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeSender) take() []gomidi.Message {
	msgs := f.msgs
	f.msgs = nil
	f.sends = 0
	return msgs
}

type fakeOutput struct {
	notes   *fakeSender
	devices map[string]*fakeSender
}

func (o *fakeOutput) Notes() midi.Sender { return o.notes }

func (o *fakeOutput) Device(name string) midi.Sender {
	s, ok := o.devices[name]
	if !ok {
		return nil
	}
	return s
}

// Grid controller "pad" on channel 0:
//
//	parts 0-7, mutes 10-17, patterns 20-51, steps 60-91,
//	voice 100, play 101, record 102, clear 103
//
// Performance keyboard is "keys".
const (
	padParts    = 0
	padMutes    = 10
	padPatterns = 20
	padSteps    = 60
	padVoice    = 100
	padPlay     = 101
	padRecord   = 102
	padClear    = 103
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	list := func(base, n int) []config.Binding {
		out := make([]config.Binding, n)
		for i := range out {
			out[i] = config.Binding{Device: "pad", Channel: 0, Note: uint8(base + i)}
		}
		return out
	}
	single := func(note uint8) *config.Binding {
		return &config.Binding{Device: "pad", Channel: 0, Note: note}
	}
	cfg.Parts = list(padParts, Parts)
	cfg.Mutes = list(padMutes, Parts)
	cfg.Patterns = list(padPatterns, Parts*Patterns)
	cfg.Steps = list(padSteps, Steps)
	cfg.Voice = single(padVoice)
	cfg.Play = single(padPlay)
	cfg.Record = single(padRecord)
	cfg.Clear = single(padClear)
	cfg.Performance = &config.Binding{Device: "keys", Channel: 0, Note: 60}
	return cfg
}

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// one beat at 120 BPM in sixteenths
const beatLen = 125 * time.Millisecond

type rig struct {
	t     *testing.T
	e     *Engine
	out   *fakeOutput
	now   time.Time
	start time.Time
}

func newRig(t *testing.T) *rig {
	t.Helper()
	out := &fakeOutput{
		notes:   &fakeSender{},
		devices: map[string]*fakeSender{"pad": {}},
	}
	r := &rig{t: t, e: NewEngine(testConfig(), out), out: out, now: t0, start: t0}
	r.tick()
	out.notes.take()
	out.devices["pad"].take()
	return r
}

func (r *rig) tick(batches ...midi.Batch) {
	r.t.Helper()
	require.NoError(r.t, r.e.Tick(r.now, batches))
}

// after advances the wall clock by d and ticks
func (r *rig) after(d time.Duration, batches ...midi.Batch) {
	r.t.Helper()
	r.now = r.now.Add(d)
	r.tick(batches...)
}

// at moves to a point inside beat n (offset into the beat) and ticks
func (r *rig) at(n int, offset time.Duration, batches ...midi.Batch) {
	r.t.Helper()
	r.now = r.start.Add(time.Duration(n)*beatLen + offset)
	r.tick(batches...)
}

// play starts the transport with a tap on play
func (r *rig) play() {
	r.t.Helper()
	r.tick(pad(padPlay))
	r.start = r.now
	r.after(10*time.Millisecond, padUp(padPlay))
}

func (r *rig) notes() []gomidi.Message {
	return r.out.notes.take()
}

func (r *rig) leds() []gomidi.Message {
	return r.out.devices["pad"].take()
}

func pad(note uint8) midi.Batch {
	return midi.Batch{Device: "pad", Data: []byte{0x90, note, 127}}
}

func padUp(note uint8) midi.Batch {
	return midi.Batch{Device: "pad", Data: []byte{0x80, note, 0}}
}

func key(note, velocity uint8) midi.Batch {
	return midi.Batch{Device: "keys", Data: []byte{0x90, note, velocity}}
}

func keyUp(note uint8) midi.Batch {
	return midi.Batch{Device: "keys", Data: []byte{0x90, note, 0}}
}

func on(ch, note, velocity uint8) gomidi.Message {
	return gomidi.NoteOn(ch, note, velocity)
}

func off(ch, note uint8) gomidi.Message {
	return gomidi.NoteOff(ch, note)
}

// pitchEvents keeps only events for one channel and pitch
func pitchEvents(msgs []gomidi.Message, ch, note uint8) []gomidi.Message {
	var out []gomidi.Message
	for _, m := range msgs {
		if len(m) == 3 && m[0]&0x0F == ch && m[1] == note {
			out = append(out, m)
		}
	}
	return out
}
