// Package config loads the preferences of the sketch host: built-in
// defaults, overridden by an optional user file.
package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch/hub"
	"gopkg.in/yaml.v2"
)

type (
	Preferences struct {
		FPS                    float64
		BPM                    float64
		TransitionBeats        float64
		HighResolution         bool
		CaptureBypassed        bool
		BypassSkipsTransitions bool
		MIDI                   MIDIPreferences
		Listen                 string
		StateFile              string
		ScriptPoll             time.Duration
		LogLevel               string

		YmlError error `yaml:"-"`
	}

	MIDIPreferences struct {
		Input  string // name prefix of the controller input
		Output string // name prefix of the controller output
	}
)

//go:embed preferences.yml
var defaultPreferencesYaml []byte

const appDir = "sketchhub"

func loadDefaultPreferences() Preferences {
	var preferences Preferences
	err := yaml.UnmarshalStrict(defaultPreferencesYaml, &preferences)
	if err != nil {
		panic(errors.Wrap(err, "failed to unmarshal preferences"))
	}
	return preferences
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	return readYml(filepath.Join(configDir, appDir, filename), target)
}

func readYml(path string, target interface{}) (exists bool, err error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return true, yaml.UnmarshalStrict(bytes, target)
}

// MakePreferences returns the defaults overridden by the user's
// preferences.yml. A broken user file is reported in YmlError; the defaults
// are used for whatever it failed to set.
func MakePreferences() Preferences {
	preferences := loadDefaultPreferences()
	exists, err := ReadCustomConfigYml("preferences.yml", &preferences)
	if exists {
		preferences.YmlError = err
	}
	return preferences.expand()
}

// LoadPreferences is like MakePreferences, but reads the overrides from the
// given file.
func LoadPreferences(path string) (Preferences, error) {
	preferences := loadDefaultPreferences()
	path, err := homedir.Expand(path)
	if err != nil {
		return preferences, err
	}
	if _, err := readYml(path, &preferences); err != nil {
		return preferences.expand(), errors.Wrapf(err, "could not read preferences %s", path)
	}
	return preferences.expand(), nil
}

func (p Preferences) expand() Preferences {
	if s, err := homedir.Expand(p.StateFile); err == nil {
		p.StateFile = s
	}
	return p
}

// DefaultStateFile is the state file used when neither the flags nor the
// preferences name one: <UserConfigDir>/sketchhub/<script name>.state.yml.
func DefaultStateFile(scriptPath string) string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	name := filepath.Base(scriptPath)
	name = name[:len(name)-len(filepath.Ext(name))]
	return filepath.Join(configDir, appDir, name+".state.yml")
}

// Options returns the hub options set by the preferences.
func (p Preferences) Options() hub.Options {
	o := hub.DefaultOptions()
	if p.FPS > 0 {
		o.FPS = p.FPS
	}
	if p.BPM > 0 {
		o.BPM = p.BPM
	}
	o.TransitionBeats = max(p.TransitionBeats, 0)
	o.HighResolution = p.HighResolution
	o.CaptureBypassed = p.CaptureBypassed
	o.BypassSkipsTransitions = p.BypassSkipsTransitions
	return o
}

// Level parses LogLevel, falling back to info.
func (p Preferences) Level() logrus.Level {
	l, err := logrus.ParseLevel(p.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
