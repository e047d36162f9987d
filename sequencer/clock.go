package sequencer

import (
	"math"
	"time"
)

// Clock derives a sixteenth-note beat counter from wall-clock time
type Clock struct {
	bpm float64

	startedAt     time.Time
	beatStartedAt time.Time

	beat      int64
	last      int64
	microstep float64

	// restarted forces a beat event on the tick play starts, so step 0 sounds
	restarted bool
}

// NewClock creates a stopped clock at beat 0
func NewClock(bpm float64) *Clock {
	return &Clock{bpm: bpm}
}

// Start re-anchors the clock so beat 0 begins at now
func (c *Clock) Start(now time.Time) {
	c.startedAt = now
	c.beat = 0
	c.microstep = 0
	c.restarted = true
}

// Update recomputes beat and microstep. Only called while playing.
func (c *Clock) Update(now time.Time) {
	precise := now.Sub(c.startedAt).Seconds() * (c.bpm / 60) * 4
	beat := math.Floor(precise)
	c.beat = int64(beat)
	c.microstep = precise - beat
}

// Advance reports whether this tick starts a new beat and commits the beat
// as seen
func (c *Clock) Advance(now time.Time) bool {
	fresh := c.restarted || c.beat != c.last
	if fresh {
		c.beatStartedAt = now
	}
	c.last = c.beat
	c.restarted = false
	return fresh
}

// Beat is the current sixteenth-note count since play started
func (c *Clock) Beat() int64 { return c.beat }

// Microstep is the fraction of the current beat already elapsed, in [0,1)
func (c *Clock) Microstep() float64 { return c.microstep }

// BeatStartedAt is when the tick that saw the current beat ran
func (c *Clock) BeatStartedAt() time.Time { return c.beatStartedAt }

// StepDuration is the wall-clock length of one beat
func (c *Clock) StepDuration() time.Duration {
	return time.Duration(float64(time.Minute) / (c.bpm * 4))
}
