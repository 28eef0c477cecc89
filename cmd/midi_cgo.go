//go:build cgo

package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch/hub"
	"github.com/vsariola/sketch/hub/gomidi"
)

// NewControllerPort opens the MIDI input and output whose names start with
// the given prefixes. An empty prefix leaves that direction closed.
func NewControllerPort(broker *hub.Broker, input, output string, log logrus.FieldLogger) hub.ControllerPort {
	p := gomidi.NewPort(broker, log)
	if input != "" {
		if err := p.OpenInput(input); err != nil {
			log.WithError(err).Warn("MIDI input not opened")
		}
	}
	if output != "" {
		if err := p.OpenOutput(output); err != nil {
			log.WithError(err).Warn("MIDI output not opened")
		}
	}
	return p
}
