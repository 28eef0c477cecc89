// Package gomidi connects the hub to hardware controllers through RtMidi. It
// needs cgo; see the cmd package for the fallback.
package gomidi

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch/hub"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Port is a hub.ControllerPort backed by RtMidi. Control change messages
// from the open input are forwarded to the Controller channel of the
// broker; Send writes to the open output.
type Port struct {
	driver *rtmididrv.Driver
	broker *hub.Broker
	log    logrus.FieldLogger

	in   drivers.In
	stop func()
	out  drivers.Out
	send func(midi.Message) error
}

var ErrNoDriver = errors.New("no MIDI driver available")

// NewPort opens the driver. If that fails, the port still works but has no
// devices.
func NewPort(broker *hub.Broker, log logrus.FieldLogger) *Port {
	p := &Port{broker: broker, log: log}
	var err error
	// there's not much we can do if this fails, so just use p.driver = nil
	// to indicate no driver available
	if p.driver, err = rtmididrv.New(); err != nil {
		log.WithError(err).Warn("could not open MIDI driver")
		p.driver = nil
	}
	return p
}

// Inputs lists the names of the input devices.
func (p *Port) Inputs() []string {
	if p.driver == nil {
		return nil
	}
	ins, err := p.driver.Ins()
	if err != nil {
		return nil
	}
	ret := make([]string, len(ins))
	for i, in := range ins {
		ret[i] = in.String()
	}
	return ret
}

// Outputs lists the names of the output devices.
func (p *Port) Outputs() []string {
	if p.driver == nil {
		return nil
	}
	outs, err := p.driver.Outs()
	if err != nil {
		return nil
	}
	ret := make([]string, len(outs))
	for i, out := range outs {
		ret[i] = out.String()
	}
	return ret
}

// OpenInput opens the first input whose name starts with namePrefix, closing
// the currently open input. An empty prefix takes the first input.
func (p *Port) OpenInput(namePrefix string) error {
	if p.driver == nil {
		return ErrNoDriver
	}
	ins, err := p.driver.Ins()
	if err != nil {
		return errors.Wrap(err, "could not list MIDI inputs")
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		p.closeInput()
		if err := in.Open(); err != nil {
			return errors.Wrapf(err, "opening MIDI input %s failed", in)
		}
		stop, err := midi.ListenTo(in, p.handleMessage)
		if err != nil {
			in.Close()
			return errors.Wrapf(err, "listening to MIDI input %s failed", in)
		}
		p.in, p.stop = in, stop
		p.log.WithField("input", in.String()).Info("opened MIDI input")
		return nil
	}
	return errors.Errorf("could not find any MIDI input starting with %q", namePrefix)
}

// OpenOutput opens the first output whose name starts with namePrefix,
// closing the currently open output. An empty prefix takes the first
// output.
func (p *Port) OpenOutput(namePrefix string) error {
	if p.driver == nil {
		return ErrNoDriver
	}
	outs, err := p.driver.Outs()
	if err != nil {
		return errors.Wrap(err, "could not list MIDI outputs")
	}
	for _, out := range outs {
		if !strings.HasPrefix(out.String(), namePrefix) {
			continue
		}
		p.closeOutput()
		send, err := midi.SendTo(out)
		if err != nil {
			return errors.Wrapf(err, "opening MIDI output %s failed", out)
		}
		p.out, p.send = out, send
		p.log.WithField("output", out.String()).Info("opened MIDI output")
		return nil
	}
	return errors.Errorf("could not find any MIDI output starting with %q", namePrefix)
}

// Send writes a control change to the open output. Without an open output,
// the message is silently dropped.
func (p *Port) Send(cc hub.ControlChange) error {
	if p.send == nil {
		return nil
	}
	return p.send(midi.ControlChange(uint8(cc.Channel), uint8(cc.Controller), uint8(cc.Value)))
}

func (p *Port) Close() error {
	if p.driver == nil {
		return nil
	}
	p.closeInput()
	p.closeOutput()
	return p.driver.Close()
}

func (p *Port) closeInput() {
	if p.stop != nil {
		p.stop()
		p.stop = nil
	}
	if p.in != nil && p.in.IsOpen() {
		p.in.Close()
	}
	p.in = nil
}

func (p *Port) closeOutput() {
	if p.out != nil && p.out.IsOpen() {
		p.out.Close()
	}
	p.out, p.send = nil, nil
}

// handleMessage runs on the driver goroutine.
func (p *Port) handleMessage(msg midi.Message, timestampms int32) {
	var channel, controller, value uint8
	if !msg.GetControlChange(&channel, &controller, &value) {
		return
	}
	cc := hub.ControlChange{Channel: int(channel), Controller: int(controller), Value: int(value)}
	if !hub.TrySend(p.broker.Controller, cc) { // if the channel is full, just drop the message
		p.log.WithField("controller", cc.Controller).Debug("controller queue full, dropped message")
	}
}
