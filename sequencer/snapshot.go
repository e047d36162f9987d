package sequencer

// Snapshot is a copy of the engine state for display. It shares nothing
// with the engine, so it can cross goroutines.
type Snapshot struct {
	Beat      int64
	Playing   bool
	Recording bool
	Voice     bool
	Clearing  bool

	Focused int
	Muted   [Parts]bool

	// Pattern each part is on, and what it has queued
	Current [Parts]int
	Queued  [Parts][]int
	Content [Parts][Patterns]bool

	// Focused part's pattern: playhead, gate length and which steps hold notes
	Pattern int
	Step    int
	Length  int
	Filled  [Steps]bool

	Held int
}

// Snapshot copies the state the status display needs
func (e *Engine) Snapshot() Snapshot {
	s := Snapshot{
		Beat:      e.clock.Beat(),
		Playing:   e.toggles[TogglePlay],
		Recording: e.toggles[ToggleRecord],
		Voice:     e.toggles[ToggleVoice],
		Clearing:  e.toggles[ToggleClear],
		Focused:   e.focused,
		Held:      e.presses.Len(),
	}

	for part := 0; part < Parts; part++ {
		s.Muted[part] = e.parts[part].Muted
		s.Current[part], _ = e.currentStep(part)
		for pattern := 0; pattern < Patterns; pattern++ {
			s.Content[part][pattern] = e.store.HasContent(part, pattern)
		}
		if q := e.store.Queued(part); len(q) > 0 {
			s.Queued[part] = append([]int(nil), q...)
		}
	}

	s.Pattern, s.Step = e.currentStep(e.focused)
	s.Length = e.store.Length(e.focused, s.Pattern)
	for step := 0; step < Steps; step++ {
		s.Filled[step] = !e.store.Step(e.focused, s.Pattern, step).IsEmpty()
	}
	return s
}
