package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch"
	"github.com/vsariola/sketch/cmd"
	"github.com/vsariola/sketch/config"
	"github.com/vsariola/sketch/hub"
	"github.com/vsariola/sketch/surface"
	"github.com/vsariola/sketch/uniform"
	"github.com/vsariola/sketch/version"
)

var (
	scriptFlag      = flag.String("script", "", "load the control script from `file`")
	stateFlag       = flag.String("state", "", "read and write the persisted state to `file`")
	prefsFlag       = flag.String("preferences", "", "read preferences from `file` instead of the user config directory")
	listenFlag      = flag.String("listen", "", "serve the control surface on `address`")
	midiInputFlag   = flag.String("midi-input", "", "connect MIDI input to matching device name prefix")
	midiOutputFlag  = flag.String("midi-output", "", "connect MIDI output to matching device name prefix")
	uniformsFlag    = flag.String("uniforms", "", "print the uniform block in `language` (glsl, wgsl) and exit")
	verboseFlag     = flag.Bool("v", false, "log debug messages")
	printFramesFlag = flag.Bool("print-uniforms", false, "log the uniform values of every frame")
	versionFlag     = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [script.yml]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.String())
		return
	}
	scriptArg := *scriptFlag
	if scriptArg == "" && flag.NArg() == 1 {
		scriptArg = flag.Arg(0)
	}
	if scriptArg == "" || flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	prefs := config.MakePreferences()
	if *prefsFlag != "" {
		var err error
		if prefs, err = config.LoadPreferences(*prefsFlag); err != nil {
			log.WithError(err).Fatal("could not load preferences")
		}
	}
	if prefs.YmlError != nil {
		log.WithError(prefs.YmlError).Warn("preferences.yml is broken, using defaults")
	}
	log.SetLevel(prefs.Level())
	if *verboseFlag {
		log.SetLevel(logrus.DebugLevel)
	}
	overrideIfPassed("listen", &prefs.Listen, *listenFlag)
	overrideIfPassed("midi-input", &prefs.MIDI.Input, *midiInputFlag)
	overrideIfPassed("midi-output", &prefs.MIDI.Output, *midiOutputFlag)

	scriptPath, err := homedir.Expand(scriptArg)
	if err != nil {
		log.WithError(err).Fatal("invalid script path")
	}
	script, err := readScript(scriptPath)
	if err != nil {
		log.WithError(err).Fatal("could not read script")
	}

	if *uniformsFlag != "" {
		reg, errs := hub.Build(script)
		for _, e := range errs {
			log.WithError(e).Warn("broken entry left out")
		}
		out, err := uniform.Generate(*uniformsFlag, uniform.LayoutOf(reg))
		if err != nil {
			log.WithError(err).Fatal("could not generate uniforms")
		}
		fmt.Print(out)
		return
	}

	statePath := prefs.StateFile
	if *stateFlag != "" {
		if statePath, err = homedir.Expand(*stateFlag); err != nil {
			log.WithError(err).Fatal("invalid state path")
		}
	}
	if statePath == "" {
		statePath = config.DefaultStateFile(scriptPath)
	}

	log.WithField("version", version.String()).Info("sketchhub starting")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	broker := hub.NewBroker()
	port := cmd.NewControllerPort(broker, prefs.MIDI.Input, prefs.MIDI.Output, log)
	defer port.Close()
	h, _ := hub.New(broker, script, port, log, prefs.Options())
	if statePath != "" {
		if err := h.LoadState(statePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Warn("state not restored")
		}
	}

	if prefs.Listen != "" {
		srv := surface.NewServer(broker, log)
		go func() {
			if err := srv.Run(ctx, prefs.Listen); err != nil {
				log.WithError(err).Error("control surface stopped")
			}
		}()
	}
	if prefs.ScriptPoll > 0 {
		go watchScript(ctx, scriptPath, prefs.ScriptPoll, broker, log)
	}

	run(ctx, h, prefs.FPS, log)

	if statePath != "" {
		if err := h.SaveState(statePath); err != nil {
			log.WithError(err).Error("state not saved")
		} else {
			log.WithField("file", statePath).Info("state saved")
		}
	}
}

// run is the frame loop. It is the only goroutine touching the hub.
func run(ctx context.Context, h *hub.Hub, fps float64, log logrus.FieldLogger) {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()
	last := time.Now()
	var uniforms []float32
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			h.Frame(now.Sub(last))
			last = now
			uniforms = h.Uniforms(uniforms[:0])
			if *printFramesFlag {
				log.WithField("beats", h.Clock().Beats()).Debugf("uniforms %v", uniforms)
			}
		}
	}
}

// watchScript polls the modification time of the script and queues a reload
// whenever it changes.
func watchScript(ctx context.Context, path string, interval time.Duration, broker *hub.Broker, log logrus.FieldLogger) {
	var modTime time.Time
	if st, err := os.Stat(path); err == nil {
		modTime = st.ModTime()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		st, err := os.Stat(path)
		if err != nil || !st.ModTime().After(modTime) {
			continue
		}
		modTime = st.ModTime()
		script, err := readScript(path)
		if err != nil {
			log.WithError(err).Warn("script not reloaded")
			continue
		}
		if !hub.TrySend(broker.ToHub, any(&hub.ReloadScriptMsg{Script: &script})) {
			log.Warn("command queue full, script not reloaded")
		}
	}
}

func readScript(path string) (sketch.Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return sketch.Script{}, err
	}
	defer f.Close()
	return sketch.ReadScript(f)
}

func overrideIfPassed(name string, target *string, value string) {
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			*target = value
		}
	})
}
