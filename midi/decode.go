package midi

// MIDI status bytes
const (
	NoteOff uint8 = 0x80
	NoteOn  uint8 = 0x90
	CC      uint8 = 0xB0
)

// Side says whether a note message presses or releases a key
type Side int

const (
	Release Side = iota
	Press
)

func (s Side) String() string {
	if s == Press {
		return "on"
	}
	return "off"
}

// NoteMessage is one decoded note-on/note-off
type NoteMessage struct {
	Side     Side
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// Batch is the raw input received from one device since the last poll
type Batch struct {
	Device string
	Data   []byte
}

// Decode splits raw bytes into 3-byte messages and keeps the note messages.
// Note-on with velocity 0 counts as a release.
func Decode(data []byte) []NoteMessage {
	var notes []NoteMessage
	for i := 0; i+3 <= len(data); i += 3 {
		status, note, velocity := data[i], data[i+1], data[i+2]
		if status < NoteOff || status > NoteOn+0x0F {
			continue
		}
		side := Press
		if status < NoteOn || velocity == 0 {
			side = Release
		}
		notes = append(notes, NoteMessage{
			Side:     side,
			Channel:  status % 16,
			Note:     note,
			Velocity: velocity,
		})
	}
	return notes
}
