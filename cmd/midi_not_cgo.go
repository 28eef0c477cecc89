//go:build !cgo

package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch/hub"
)

func NewControllerPort(broker *hub.Broker, input, output string, log logrus.FieldLogger) hub.ControllerPort {
	// with no cgo, we cannot use MIDI, so return a null port
	if input != "" || output != "" {
		log.Warn("built without cgo, MIDI is not available")
	}
	return hub.NullControllerPort{}
}
