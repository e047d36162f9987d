package sequencer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"gridseq/midi"
)

func TestPlaybackSustainEndToEnd(t *testing.T) {
	r := newRig(t)
	store := r.e.Store()
	store.SetLength(0, 0, 3)
	store.Step(0, 0, 0)[60] = 100
	store.Step(0, 0, 1)[60] = Sustain

	r.play()
	assert.Equal(t, []gomidi.Message{on(0, 60, 100)}, r.notes(), "step 0 sounds on the start tick")

	r.at(1, 10*time.Millisecond)
	assert.Empty(t, r.notes(), "sustain emits nothing")

	r.at(2, 10*time.Millisecond)
	assert.Equal(t, []gomidi.Message{off(0, 60)}, r.notes())

	r.at(3, 10*time.Millisecond)
	assert.Equal(t, []gomidi.Message{on(0, 60, 100)}, r.notes(), "pattern repeats")
	assert.True(t, r.e.Part(0).Sounding(60))
}

func TestPlaybackOneOnOneOffPerRun(t *testing.T) {
	r := newRig(t)
	store := r.e.Store()
	store.SetLength(0, 0, 4)
	store.Step(0, 0, 0)[64] = 90
	store.Step(0, 0, 1)[64] = Sustain

	r.play()
	for beat := 1; beat < 8; beat++ {
		r.at(beat, 10*time.Millisecond)
	}
	r.at(8, 10*time.Millisecond)

	events := pitchEvents(r.notes(), 0, 64)
	require.Equal(t, []gomidi.Message{
		on(0, 64, 90), off(0, 64),
		on(0, 64, 90), off(0, 64),
		on(0, 64, 90),
	}, events)
}

func TestPlaybackBatchesOneWritePerBeat(t *testing.T) {
	r := newRig(t)
	store := r.e.Store()
	store.Step(0, 0, 1)[60] = 100
	store.Step(3, 0, 1)[62] = 80
	store.Step(7, 0, 1)[64] = 70

	r.play()
	r.notes()
	r.at(1, 10*time.Millisecond)

	assert.Equal(t, 1, r.out.notes.sends)
	assert.ElementsMatch(t, []gomidi.Message{on(0, 60, 100), on(3, 62, 80), on(7, 64, 70)}, r.notes())
}

func TestPlaybackRetriggersRepeatedVelocity(t *testing.T) {
	r := newRig(t)
	store := r.e.Store()
	store.Step(0, 0, 0)[60] = 100
	store.Step(0, 0, 1)[60] = 100

	r.play()
	r.notes()
	r.at(1, 10*time.Millisecond)
	assert.Equal(t, []gomidi.Message{off(0, 60), on(0, 60, 100)}, r.notes())
}

func TestStopSweepsAllNotes(t *testing.T) {
	r := newRig(t)
	r.e.Store().Step(2, 0, 0)[60] = 100
	r.play()
	require.True(t, r.e.Part(2).Sounding(60))
	r.notes()

	r.after(50*time.Millisecond, pad(padPlay))
	msgs := r.notes()
	assert.Len(t, msgs, Parts*Notes)
	assert.Contains(t, msgs, off(2, 60))
	assert.False(t, r.e.Part(2).Sounding(60))
	assert.False(t, r.e.Playing())
}

func TestQueuedPatternWaitsForBarBoundary(t *testing.T) {
	r := newRig(t)
	store := r.e.Store()
	store.SetLength(1, 0, 4)

	r.play()
	r.at(1, 10*time.Millisecond)
	// part 1, pattern 2
	r.at(1, 40*time.Millisecond, pad(padPatterns+1*Patterns+2))
	r.at(1, 60*time.Millisecond, padUp(padPatterns+1*Patterns+2))
	assert.Equal(t, []int{2}, store.Queued(1))

	for beat := 2; beat < 4; beat++ {
		r.at(beat, 10*time.Millisecond)
		assert.Equal(t, []int{0}, store.Sequence(1).Patterns, "beat %d", beat)
	}

	r.at(4, 10*time.Millisecond)
	assert.Equal(t, Sequence{Patterns: []int{2}, Anchor: 4}, store.Sequence(1))
	assert.Empty(t, store.Queued(1))

	pattern, step := store.CurrentStep(1, 4)
	assert.Equal(t, 2, pattern)
	assert.Equal(t, 0, step)
}

func TestPatternWhileStoppedAppliesImmediately(t *testing.T) {
	r := newRig(t)
	r.tick(pad(padPatterns + 3*Patterns + 1))
	assert.Equal(t, Sequence{Patterns: []int{1}, Anchor: 0}, r.e.Store().Sequence(3))
	assert.Empty(t, r.e.Store().Queued(3))
}

func TestPlayReanchorsSequences(t *testing.T) {
	r := newRig(t)
	r.play()
	r.at(5, 10*time.Millisecond, pad(padPlay))
	r.at(5, 20*time.Millisecond, padUp(padPlay))
	require.False(t, r.e.Playing())
	r.e.Store().SetSequence(4, []int{1}, 17)

	r.after(time.Second, pad(padPlay))
	for part := 0; part < Parts; part++ {
		_, step := r.e.Store().CurrentStep(part, r.e.Clock().Beat())
		assert.Equal(t, 0, step)
	}
}

func TestRecordQuantizesToNearestStep(t *testing.T) {
	r := newRig(t)
	r.e.Store().SetLength(0, 0, 4)
	r.tick(pad(padRecord))
	r.after(10*time.Millisecond, padUp(padRecord))
	require.True(t, r.e.Toggle(ToggleRecord))
	r.play()

	r.at(1, 10*time.Millisecond)
	r.at(1, 40*time.Millisecond, key(60, 100)) // microstep 0.32
	r.at(1, 50*time.Millisecond, keyUp(60))
	assert.Equal(t, int8(100), r.e.Store().Step(0, 0, 1)[60])

	r.at(2, 10*time.Millisecond)
	r.at(2, 70*time.Millisecond, key(62, 90)) // microstep 0.56
	r.at(2, 80*time.Millisecond, keyUp(62))
	assert.Equal(t, int8(90), r.e.Store().Step(0, 0, 3)[62])
	assert.Zero(t, r.e.Store().Step(0, 0, 2)[62])

	r.at(3, 10*time.Millisecond)
	r.at(3, 100*time.Millisecond, key(64, 80)) // last step, rounds up past the end
	r.at(3, 110*time.Millisecond, keyUp(64))
	assert.Equal(t, int8(80), r.e.Store().Step(0, 0, 0)[64])
}

func TestRecordHeldNoteSustains(t *testing.T) {
	r := newRig(t)
	r.tick(pad(padRecord))
	r.after(10*time.Millisecond, padUp(padRecord))
	r.play()

	r.at(1, 10*time.Millisecond)
	r.at(1, 30*time.Millisecond, key(60, 90))
	r.at(2, 10*time.Millisecond)
	r.at(3, 10*time.Millisecond)
	r.at(3, 50*time.Millisecond, keyUp(60))
	r.at(4, 10*time.Millisecond)

	var got []int8
	for step := 0; step < 6; step++ {
		got = append(got, r.e.Store().Step(0, 0, step)[60])
	}
	assert.Equal(t, []int8{0, 90, Sustain, Sustain, 0, 0}, got)
}

func TestPerformanceSoundsOnFocusedPart(t *testing.T) {
	r := newRig(t)
	r.tick(pad(padParts + 2))
	r.after(10*time.Millisecond, padUp(padParts+2))
	require.Equal(t, 2, r.e.Focused())

	r.after(10*time.Millisecond, key(67, 110))
	assert.Equal(t, []gomidi.Message{on(2, 67, 110)}, r.notes())
	assert.Equal(t, uint8(67), r.e.Part(2).LastNote)
	assert.Equal(t, uint8(110), r.e.Part(2).LastVelocity)

	r.after(10*time.Millisecond, keyUp(67))
	assert.Equal(t, []gomidi.Message{off(2, 67)}, r.notes())
	assert.True(t, r.e.Store().Step(2, 0, 0).IsEmpty(), "nothing recorded without record or a held step")
}

func TestNoteOffFollowsPressPart(t *testing.T) {
	r := newRig(t)
	r.tick(key(60, 100))
	r.after(10*time.Millisecond, pad(padParts+4))
	r.notes()

	r.after(10*time.Millisecond, keyUp(60))
	assert.Equal(t, []gomidi.Message{off(0, 60)}, r.notes())
}

func TestStepProgramming(t *testing.T) {
	r := newRig(t)

	// Tap on an empty step inserts the last played note
	r.tick(pad(padSteps + 4))
	r.after(50*time.Millisecond, padUp(padSteps+4))
	assert.Equal(t, int8(defaultVelocity), r.e.Store().Step(0, 0, 4)[defaultNote])

	// Tap again without playing erases it
	r.after(50*time.Millisecond, pad(padSteps+4))
	r.after(50*time.Millisecond, padUp(padSteps+4))
	assert.True(t, r.e.Store().Step(0, 0, 4).IsEmpty())

	// Hold a step and play a note into it
	r.after(50*time.Millisecond, pad(padSteps+5))
	r.after(50*time.Millisecond, key(62, 70))
	r.after(50*time.Millisecond, keyUp(62))
	r.after(50*time.Millisecond, padUp(padSteps+5))
	assert.Equal(t, int8(70), r.e.Store().Step(0, 0, 5)[62])

	// Holding two steps and releasing one keeps it
	r.after(50*time.Millisecond, pad(padSteps+5))
	r.after(50*time.Millisecond, pad(padSteps+6))
	r.after(50*time.Millisecond, padUp(padSteps+5))
	assert.Equal(t, int8(70), r.e.Store().Step(0, 0, 5)[62])
	r.after(50*time.Millisecond, padUp(padSteps+6))
	assert.Equal(t, int8(70), r.e.Store().Step(0, 0, 6)[62], "empty step gets the last note")
}

func TestGateLengthEdit(t *testing.T) {
	r := newRig(t)

	r.tick(pad(padPatterns + 0))
	r.after(50*time.Millisecond, pad(padSteps+7))
	assert.Equal(t, 8, r.e.Store().Length(0, 0))

	r.after(50*time.Millisecond, padUp(padSteps+7))
	assert.True(t, r.e.Store().Step(0, 0, 7).IsEmpty(), "gate edit does not insert a note")
	r.after(50*time.Millisecond, padUp(padPatterns+0))
}

func TestToggleTapLatchesHoldReverts(t *testing.T) {
	r := newRig(t)

	r.tick(pad(padVoice))
	r.after(200*time.Millisecond, padUp(padVoice))
	assert.True(t, r.e.Toggle(ToggleVoice), "tap latches")

	r.after(time.Second, pad(padVoice))
	assert.False(t, r.e.Toggle(ToggleVoice))
	r.after(200*time.Millisecond, padUp(padVoice))
	assert.False(t, r.e.Toggle(ToggleVoice))

	r.after(time.Second, pad(padClear))
	assert.True(t, r.e.Toggle(ToggleClear))
	r.after(400*time.Millisecond, padUp(padClear))
	assert.False(t, r.e.Toggle(ToggleClear), "hold is momentary")
}

func TestHoldPlayIsMomentary(t *testing.T) {
	r := newRig(t)
	r.tick(pad(padPlay))
	assert.True(t, r.e.Playing())
	r.after(400*time.Millisecond)
	r.tick(padUp(padPlay))
	assert.False(t, r.e.Playing())
}

func TestMuteTapAndHold(t *testing.T) {
	r := newRig(t)

	r.tick(pad(padMutes + 1))
	assert.True(t, r.e.Part(1).Muted)
	msgs := r.notes()
	assert.Len(t, msgs, Notes)
	assert.Equal(t, off(1, 0), msgs[0])

	r.after(100*time.Millisecond, padUp(padMutes+1))
	assert.True(t, r.e.Part(1).Muted, "first release keeps the mute")

	r.after(100*time.Millisecond, pad(padMutes+1))
	assert.Empty(t, r.notes(), "already muted, no sweep")
	r.after(500*time.Millisecond, padUp(padMutes+1))
	assert.False(t, r.e.Part(1).Muted, "second release unmutes")
}

func TestMutedPartIsSilent(t *testing.T) {
	r := newRig(t)
	r.e.Store().Step(1, 0, 1)[60] = 100
	r.tick(pad(padMutes + 1))
	r.play()
	r.notes()

	r.at(1, 10*time.Millisecond)
	assert.Empty(t, r.notes())
	assert.False(t, r.e.Part(1).Sounding(60))
}

func TestPartFocusHoldReverts(t *testing.T) {
	r := newRig(t)

	r.tick(pad(padParts + 3))
	r.after(100*time.Millisecond, padUp(padParts+3))
	assert.Equal(t, 3, r.e.Focused())

	r.after(100*time.Millisecond, pad(padParts+5))
	assert.Equal(t, 5, r.e.Focused())
	r.after(400*time.Millisecond, padUp(padParts+5))
	assert.Equal(t, 3, r.e.Focused())
}

func TestVoicePreview(t *testing.T) {
	r := newRig(t)
	r.tick(pad(padVoice))
	r.after(10*time.Millisecond, padUp(padVoice))

	r.after(10*time.Millisecond, pad(padParts+2))
	assert.Equal(t, []gomidi.Message{on(2, defaultNote, defaultVelocity)}, r.notes())

	r.after(10*time.Millisecond, padUp(padParts+2))
	assert.Equal(t, []gomidi.Message{off(2, defaultNote)}, r.notes())
}

func TestClearWipesCurrentStep(t *testing.T) {
	r := newRig(t)
	store := r.e.Store()
	store.Step(0, 0, 1)[60] = 100
	store.Step(0, 0, 2)[60] = 100

	r.play()
	r.at(0, 50*time.Millisecond, pad(padClear))
	r.at(0, 60*time.Millisecond, padUp(padClear))
	r.at(1, 10*time.Millisecond)

	assert.True(t, store.Step(0, 0, 1).IsEmpty())
	assert.False(t, store.Step(0, 0, 2).IsEmpty())
}

func TestUnmappedAndUnpressedInputIgnored(t *testing.T) {
	r := newRig(t)
	r.tick(
		midi.Batch{Device: "pad", Data: []byte{0x90, 120, 100}},
		midi.Batch{Device: "other", Data: []byte{0x90, padPlay, 100}},
		padUp(padPlay),
		keyUp(60),
	)
	assert.False(t, r.e.Playing())
	assert.Empty(t, r.notes())
}

func TestSnapshot(t *testing.T) {
	r := newRig(t)
	r.e.Store().Step(0, 0, 3)[60] = 100
	r.tick(pad(padMutes + 6))
	r.play()

	s := r.e.Snapshot()
	assert.True(t, s.Playing)
	assert.True(t, s.Muted[6])
	assert.True(t, s.Filled[3])
	assert.False(t, s.Filled[4])
	assert.Equal(t, Steps, s.Length)
	assert.Equal(t, 1, s.Held)
}
