package devices

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	midi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/Houston4444/OsciTronix/logging"
)

var midiInLog, midiOutLog *slog.Logger

func init() {
	midiInLog = logging.Get(logging.MIDI_IN)
	midiOutLog = logging.Get(logging.MIDI_OUT)
}

// ErrPortNotOpen is returned by Send before Run has opened the output port.
var ErrPortNotOpen = errors.New("MIDI output port is not open")

// sysExBufferSize fits the largest amplifier dump with room to spare.
const sysExBufferSize = 1024

// MidiDevice is a sysex link to a single MIDI device. Incoming sysex messages are matched
// against the patterns registered with SysEx.Match and handed to their callbacks.
type MidiDevice struct {
	inPort  drivers.In
	outPort drivers.Out

	SysEx *sysEx

	mu        sync.Mutex
	sysex     []*sysExMatch
	onConnect []func(in, out bool)
}

func NewMidiDevice(inPort drivers.In, outPort drivers.Out) *MidiDevice {
	d := &MidiDevice{
		inPort:  inPort,
		outPort: outPort,
		sysex:   []*sysExMatch{},
	}
	d.SysEx = &sysEx{device: d}
	return d
}

type sysEx struct {
	device *MidiDevice
}

// Match returns a binding point for every sysex message starting with pattern. The
// pattern includes the leading 0xF0.
func (ep *sysEx) Match(pattern []byte) *sysExMatch {
	return &sysExMatch{
		pattern: bytes.Clone(pattern),
		device:  ep.device,
	}
}

func (ep *sysEx) Set(value []byte) error {
	midiOutLog.Debug("Sending SysEx", "data", value)
	if ep.device.outPort == nil || !ep.device.outPort.IsOpen() {
		return ErrPortNotOpen
	}
	return ep.device.outPort.Send(value)
}

type sysExMatch struct {
	pattern  []byte
	device   *MidiDevice
	callback func([]byte) error
}

func (ep *sysExMatch) Bind(callback func([]byte) error) {
	ep.callback = callback
	ep.device.mu.Lock()
	ep.device.sysex = append(ep.device.sysex, ep)
	ep.device.mu.Unlock()
}

// Send writes one complete sysex message.
func (d *MidiDevice) Send(data []byte) error {
	return d.SysEx.Set(data)
}

// OnConnect registers fn to learn whether the input and output ports are usable. It is
// called once both ports have been opened and again when Run returns.
func (d *MidiDevice) OnConnect(fn func(in, out bool)) {
	d.mu.Lock()
	d.onConnect = append(d.onConnect, fn)
	d.mu.Unlock()
}

func (d *MidiDevice) reportConnect(in, out bool) {
	d.mu.Lock()
	fns := append([]func(bool, bool){}, d.onConnect...)
	d.mu.Unlock()
	for _, fn := range fns {
		fn(in, out)
	}
}

// Run opens both ports and dispatches incoming sysex messages until ctx is done.
func (d *MidiDevice) Run(ctx context.Context) error {
	midiInLog.Info("Starting MIDI device", "inPort", d.inPort.String(), "outPort", d.outPort.String())

	inOK := d.inPort.Open() == nil
	outOK := d.outPort.Open() == nil
	if inOK {
		defer d.inPort.Close()
	}
	if outOK {
		defer d.outPort.Close()
	}
	if !inOK {
		d.reportConnect(false, outOK)
		return fmt.Errorf("opening MIDI input %q: %w", d.inPort.String(), ErrPortNotOpen)
	}

	stop, err := midi.ListenTo(d.inPort, d.handle, midi.UseSysEx(), midi.SysExBufferSize(sysExBufferSize))
	if err != nil {
		d.reportConnect(false, outOK)
		return fmt.Errorf("listening on %q: %w", d.inPort.String(), err)
	}
	defer stop()

	d.reportConnect(true, outOK)
	<-ctx.Done()
	d.reportConnect(false, false)
	return nil
}

func (d *MidiDevice) handle(msg midi.Message, timestampms int32) {
	data := msg.Bytes()
	if len(data) == 0 || data[0] != 0xF0 {
		midiInLog.Debug("Ignoring non-sysex message", "msg", msg.String())
		return
	}
	midiInLog.Debug("Received SysEx", "data", data, "timestamp", timestampms)

	d.mu.Lock()
	matches := make([]*sysExMatch, 0, len(d.sysex))
	for _, m := range d.sysex {
		if bytes.HasPrefix(data, m.pattern) {
			matches = append(matches, m)
		}
	}
	d.mu.Unlock()

	for _, m := range matches {
		if err := m.callback(bytes.Clone(data)); err != nil {
			midiInLog.Error("failed to process SysEx", "err", err)
		}
	}
}

// FindInPort returns the first input port whose name contains fragment, ignoring case.
func FindInPort(fragment string) (drivers.In, error) {
	lower := strings.ToLower(fragment)
	for _, in := range midi.GetInPorts() {
		if strings.Contains(strings.ToLower(in.String()), lower) {
			return in, nil
		}
	}
	return nil, fmt.Errorf("no MIDI input contains %q", fragment)
}

// FindOutPort returns the first output port whose name contains fragment, ignoring case.
func FindOutPort(fragment string) (drivers.Out, error) {
	lower := strings.ToLower(fragment)
	for _, out := range midi.GetOutPorts() {
		if strings.Contains(strings.ToLower(out.String()), lower) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("no MIDI output contains %q", fragment)
}
