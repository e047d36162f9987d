package sequencer

// Sustain continues the note from the previous step instead of retriggering
const Sustain int8 = -1

// Step maps pitch to velocity: 0 silent, Sustain, or 1..127
type Step [Notes]int8

// IsEmpty reports whether no pitch is set on the step
func (s *Step) IsEmpty() bool {
	for _, v := range s {
		if v != 0 {
			return false
		}
	}
	return true
}

// Clear silences every pitch
func (s *Step) Clear() {
	*s = Step{}
}

// Sequence is the ordered patterns a part plays in rotation, anchored at the
// beat it became active
type Sequence struct {
	Patterns []int
	Anchor   int64
}

// Store owns the note grid, gate lengths and per-part sequences
type Store struct {
	grid      [Parts][Patterns][Steps]Step
	lengths   [Parts][Patterns]int
	sequences [Parts]Sequence
	queued    [Parts][]int
}

// NewStore creates an empty grid with full-length patterns, every part
// playing pattern 0
func NewStore() *Store {
	s := &Store{}
	for part := 0; part < Parts; part++ {
		for pattern := 0; pattern < Patterns; pattern++ {
			s.lengths[part][pattern] = Steps
		}
		s.sequences[part] = Sequence{Patterns: []int{0}}
	}
	return s
}

// Step returns the grid cell for a part, pattern and step
func (s *Store) Step(part, pattern, step int) *Step {
	return &s.grid[part][pattern][step]
}

// Length is the gate length of a pattern
func (s *Store) Length(part, pattern int) int {
	return s.lengths[part][pattern]
}

// SetLength sets the gate length, clamped to [1, Steps]
func (s *Store) SetLength(part, pattern, n int) {
	s.lengths[part][pattern] = max(1, min(n, Steps))
}

// Sequence returns the part's active sequence
func (s *Store) Sequence(part int) Sequence {
	return s.sequences[part]
}

// SetSequence replaces the active sequence immediately
func (s *Store) SetSequence(part int, patterns []int, anchor int64) {
	s.sequences[part] = Sequence{Patterns: append([]int(nil), patterns...), Anchor: anchor}
}

// Queue stages a sequence for the part's next bar boundary
func (s *Store) Queue(part int, patterns []int) {
	s.queued[part] = append([]int(nil), patterns...)
}

// Queued returns the staged sequence, empty if none
func (s *Store) Queued(part int) []int {
	return s.queued[part]
}

// Reanchor restarts every part's sequence at beat
func (s *Store) Reanchor(beat int64) {
	for part := range s.sequences {
		s.sequences[part].Anchor = beat
	}
}

// CurrentStep resolves which pattern and step a part is on at beat
func (s *Store) CurrentStep(part int, beat int64) (pattern, step int) {
	seq := s.sequences[part]
	total := 0
	for _, p := range seq.Patterns {
		total += s.lengths[part][p]
	}
	if total == 0 {
		return 0, 0
	}

	elapsed := int((beat - seq.Anchor) % int64(total))
	if elapsed < 0 {
		elapsed += total
	}
	for _, p := range seq.Patterns {
		length := s.lengths[part][p]
		if elapsed < length {
			return p, elapsed
		}
		elapsed -= length
	}
	return seq.Patterns[len(seq.Patterns)-1], 0
}

// BarBoundaries returns the parts with a queued sequence whose step is 0 at
// beat; only these may switch sequence on this beat
func (s *Store) BarBoundaries(beat int64) []int {
	var parts []int
	for part := range s.queued {
		if len(s.queued[part]) == 0 {
			continue
		}
		if _, step := s.CurrentStep(part, beat); step == 0 {
			parts = append(parts, part)
		}
	}
	return parts
}

// ApplyQueued makes the queued sequence active from beat and clears the queue
func (s *Store) ApplyQueued(part int, beat int64) {
	if len(s.queued[part]) == 0 {
		return
	}
	s.sequences[part] = Sequence{Patterns: s.queued[part], Anchor: beat}
	s.queued[part] = nil
}

// HasContent reports whether any step of the pattern within its gate
// length holds a note
func (s *Store) HasContent(part, pattern int) bool {
	for step := 0; step < s.lengths[part][pattern]; step++ {
		if !s.grid[part][pattern][step].IsEmpty() {
			return true
		}
	}
	return false
}
