package config_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch/config"
)

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "preferences.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	p, err := config.LoadPreferences(write(t, "{}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if p.FPS != 60 || p.BPM != 120 || p.TransitionBeats != 4 || p.ScriptPoll != 500*time.Millisecond {
		t.Fatalf("defaults = %+v", p)
	}
	o := p.Options()
	if !o.CaptureBypassed || o.BypassSkipsTransitions || o.HighResolution {
		t.Fatalf("options = %+v", o)
	}
	if p.Level() != logrus.InfoLevel {
		t.Fatalf("level = %v", p.Level())
	}
}

func TestOverrides(t *testing.T) {
	p, err := config.LoadPreferences(write(t, `
bpm: 90
highresolution: true
midi:
  input: nanoKONTROL
scriptpoll: 2s
loglevel: debug
`))
	if err != nil {
		t.Fatal(err)
	}
	if p.BPM != 90 || p.FPS != 60 || p.MIDI.Input != "nanoKONTROL" || p.ScriptPoll != 2*time.Second {
		t.Fatalf("preferences = %+v", p)
	}
	if o := p.Options(); o.BPM != 90 || !o.HighResolution {
		t.Fatalf("options = %+v", o)
	}
	if p.Level() != logrus.DebugLevel {
		t.Fatalf("level = %v", p.Level())
	}
}

func TestUnknownKeyRejected(t *testing.T) {
	if _, err := config.LoadPreferences(write(t, "frames_per_second: 30\n")); err == nil {
		t.Fatal("unknown key was accepted")
	}
}

func TestMissingFile(t *testing.T) {
	p, err := config.LoadPreferences(filepath.Join(t.TempDir(), "nope.yml"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("missing file gave %v, want a wrapped fs.ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), "nope.yml") {
		t.Errorf("error %q does not name the file", err)
	}
	if p.FPS != 60 {
		t.Fatalf("defaults not returned: %+v", p)
	}
}

func TestDefaultStateFile(t *testing.T) {
	got := config.DefaultStateFile("/some/where/waves.yml")
	if got == "" {
		t.Skip("no user config directory")
	}
	if !strings.HasSuffix(got, filepath.Join("sketchhub", "waves.state.yml")) {
		t.Fatalf("state file = %s", got)
	}
}
