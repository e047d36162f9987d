package sequencer

import "time"

// Press is a control that is physically held down
type Press struct {
	Key
	Velocity uint8
	At       time.Time

	// Part and Note record what the press sounded, so its release silences
	// the same note even if focus or the last note changed meanwhile
	Part      int
	Note      uint8
	Previewed bool
}

// Presses keeps held controls in arrival order
type Presses struct {
	list []Press
}

// Add records a press, replacing an existing one for the same key
func (ps *Presses) Add(p Press) {
	for i := range ps.list {
		if ps.list[i].Key == p.Key {
			ps.list[i] = p
			return
		}
	}
	ps.list = append(ps.list, p)
}

// Get returns the press for key
func (ps *Presses) Get(k Key) (Press, bool) {
	for _, p := range ps.list {
		if p.Key == k {
			return p, true
		}
	}
	return Press{}, false
}

// Has reports whether key is held
func (ps *Presses) Has(k Key) bool {
	_, ok := ps.Get(k)
	return ok
}

// Remove drops the press for key, if any
func (ps *Presses) Remove(k Key) {
	for i := range ps.list {
		if ps.list[i].Key == k {
			ps.list = append(ps.list[:i], ps.list[i+1:]...)
			return
		}
	}
}

// First returns the earliest held press of a control kind
func (ps *Presses) First(c Control) (Press, bool) {
	for _, p := range ps.list {
		if p.Control == c {
			return p, true
		}
	}
	return Press{}, false
}

// Other reports whether a press of kind c with a different index is held
func (ps *Presses) Other(c Control, index int) bool {
	for _, p := range ps.list {
		if p.Control == c && p.Index != index {
			return true
		}
	}
	return false
}

// Of returns every held press of a control kind, oldest first
func (ps *Presses) Of(c Control) []Press {
	var out []Press
	for _, p := range ps.list {
		if p.Control == c {
			out = append(out, p)
		}
	}
	return out
}

// Len is the number of held controls
func (ps *Presses) Len() int { return len(ps.list) }
