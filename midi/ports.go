package midi

import (
	"fmt"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"gridseq/debug"
)

// Sender writes a batch of messages to one output
type Sender interface {
	Send(msgs []gomidi.Message) error
}

type portSender struct {
	name string
	send func(msg gomidi.Message) error
}

func (s *portSender) Send(msgs []gomidi.Message) error {
	for _, msg := range msgs {
		if err := s.send(msg); err != nil {
			return fault.Wrap(err, fmsg.With(fmt.Sprintf("send to %s", s.name)))
		}
	}
	return nil
}

// listener buffers raw bytes from one input until the next Drain
type listener struct {
	name    string
	stop    func()
	mu      sync.Mutex
	pending []byte
}

func (l *listener) receive(msg gomidi.Message, timestampms int32) {
	if len(msg) != 3 {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, msg...)
	l.mu.Unlock()
}

func (l *listener) take() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	data := l.pending
	l.pending = nil
	return data
}

// Ports holds the opened inputs and outputs for every configured device
type Ports struct {
	order   []string
	inputs  map[string]*listener
	outputs map[string]*portSender
	notes   *portSender
}

// scanTimeout guards against CoreMIDI hanging on port enumeration
const scanTimeout = 3 * time.Second

func scan() ([]drivers.In, []drivers.Out, error) {
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	select {
	case result := <-ch:
		return result.inPorts, result.outPorts, nil
	case <-time.After(scanTimeout):
		return nil, nil, fault.New("port scan timed out",
			fmsg.WithDesc("port scan timed out", "MIDI port enumeration hung; on macOS try: sudo killall coreaudiod midiserver"))
	}
}

// ListPorts returns the names of every input and output port
func ListPorts() (ins, outs []string, err error) {
	inPorts, outPorts, err := scan()
	if err != nil {
		return nil, nil, err
	}
	for _, p := range inPorts {
		ins = append(ins, p.String())
	}
	for _, p := range outPorts {
		outs = append(outs, p.String())
	}
	return ins, outs, nil
}

// Open listens to every named device and opens its output for LEDs. Devices
// that are not connected are skipped. output names the note port; empty
// picks the first output port.
func Open(devices []string, output string) (*Ports, error) {
	inPorts, outPorts, err := scan()
	if err != nil {
		return nil, err
	}

	p := &Ports{
		inputs:  make(map[string]*listener),
		outputs: make(map[string]*portSender),
	}

	for _, name := range devices {
		// Several ports can share a name; the last one wins
		var in drivers.In
		for _, port := range inPorts {
			if port.String() == name {
				in = port
			}
		}
		if in == nil {
			debug.Log("ports", "input %q not connected", name)
		} else {
			l := &listener{name: name}
			stop, err := gomidi.ListenTo(in, l.receive)
			if err != nil {
				p.Close()
				return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("listen to %s", name)))
			}
			l.stop = stop
			p.inputs[name] = l
			p.order = append(p.order, name)
			debug.Log("ports", "listening to %q", name)
		}

		out := findOut(outPorts, name)
		if out == nil {
			continue
		}
		s, err := openSender(out)
		if err != nil {
			p.Close()
			return nil, err
		}
		if IsLaunchpad(name) {
			if err := s.Send(ProgrammerMode()); err != nil {
				p.Close()
				return nil, err
			}
		}
		p.outputs[name] = s
	}

	var notesOut drivers.Out
	if output == "" {
		if len(outPorts) > 0 {
			notesOut = outPorts[0]
		}
	} else {
		notesOut = findOut(outPorts, output)
	}
	if notesOut == nil {
		p.Close()
		return nil, fault.New("no note output",
			fmsg.WithDesc("no note output", fmt.Sprintf("MIDI output %q not found", output)),
			ftag.With(ftag.NotFound))
	}
	if s, ok := p.outputs[notesOut.String()]; ok {
		p.notes = s
	} else {
		s, err := openSender(notesOut)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.notes = s
	}
	debug.Log("ports", "notes go to %q", notesOut.String())

	return p, nil
}

func findOut(outPorts []drivers.Out, name string) drivers.Out {
	var out drivers.Out
	for _, port := range outPorts {
		if port.String() == name {
			out = port
		}
	}
	return out
}

func openSender(out drivers.Out) (*portSender, error) {
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("open output %s", out.String())))
	}
	return &portSender{name: out.String(), send: send}, nil
}

// Drain returns what each input received since the last call, in device
// order. It never blocks on input.
func (p *Ports) Drain() []Batch {
	var batches []Batch
	for _, name := range p.order {
		if data := p.inputs[name].take(); len(data) > 0 {
			batches = append(batches, Batch{Device: name, Data: data})
		}
	}
	return batches
}

// Notes returns the note output
func (p *Ports) Notes() Sender {
	if p.notes == nil {
		return nil
	}
	return p.notes
}

// Device returns the LED output for a device, or nil if it is not connected
func (p *Ports) Device(name string) Sender {
	s, ok := p.outputs[name]
	if !ok {
		return nil
	}
	return s
}

// Close stops every listener and releases the driver
func (p *Ports) Close() {
	for _, l := range p.inputs {
		if l.stop != nil {
			l.stop()
		}
	}
	p.inputs = make(map[string]*listener)
	p.order = nil
	gomidi.CloseDriver()
}
