package hub

import (
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch"
)

type (
	// Hub is the Control Hub of one sketch. It is owned by the frame loop:
	// apart from the Broker channels, none of its methods may be called
	// concurrently.
	Hub struct {
		broker *Broker
		port   ControllerPort
		log    logrus.FieldLogger
		opts   Options

		script sketch.Script
		reg    *Registry
		clock  Clock

		interp          *Interpolation
		transitionBeats float64
		slots           [NumSlots]Snapshot
		rand            *rand.Rand

		bindings      Bindings
		overrides     map[string]sketch.Value
		learning      string
		bridgeOn      bool
		highRes       bool
		hiRes         map[ChannelID]highResState
		resendPending bool

		alerts []Alert
	}

	Options struct {
		FPS             float64
		BPM             float64
		TransitionBeats float64
		HighResolution  bool
		// CaptureBypassed tells if bypassed controls are written into
		// snapshot slots.
		CaptureBypassed bool
		// BypassSkipsTransitions leaves bypassed controls out of snapshot
		// and randomization transitions, so they keep their base value when
		// the bypass is lifted.
		BypassSkipsTransitions bool
		// Seed seeds the randomizer; 0 seeds it from the wall clock.
		Seed uint64
	}
)

func DefaultOptions() Options {
	return Options{
		FPS:             60,
		BPM:             120,
		TransitionBeats: 4,
		CaptureBypassed: true,
	}
}

// New creates a hub for the script. The script is loaded even if some of
// its entries are broken; the problems are returned as LoadErrors and also
// reported as alerts.
func New(broker *Broker, script sketch.Script, port ControllerPort, log logrus.FieldLogger, opts Options) (*Hub, LoadErrors) {
	if port == nil {
		port = NullControllerPort{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	h := &Hub{
		broker:          broker,
		port:            port,
		log:             log,
		opts:            opts,
		clock:           NewClock(opts.BPM, opts.FPS),
		transitionBeats: opts.TransitionBeats,
		rand:            rand.New(rand.NewPCG(seed, seed>>32)),
		overrides:       map[string]sketch.Value{},
		bridgeOn:        true,
		highRes:         opts.HighResolution,
		hiRes:           map[ChannelID]highResState{},
	}
	reg, errs := Build(script)
	h.script, h.reg = script.Copy(), reg
	h.reportLoadErrors(errs)
	h.evaluateCurves()
	h.commit()
	return h, errs
}

func (h *Hub) Registry() *Registry   { return h.reg }
func (h *Hub) Script() sketch.Script { return h.script.Copy() }
func (h *Hub) Clock() *Clock         { return &h.clock }

// Interpolation returns the active transition, or nil.
func (h *Hub) Interpolation() *Interpolation { return h.interp }

// Frame runs one frame: it drains the host commands and the controller
// queue, advances the clock, evaluates the curves, resolves every control
// and finally updates the disabled flags. Values resolved during the frame
// depend only on what was drained at its start.
func (h *Hub) Frame(elapsed time.Duration) {
	h.drainCommands()
	h.drainController()
	h.clock.Tick(elapsed)
	h.evaluateCurves()
	if h.interp != nil && h.interp.Done(h.clock.Beats()) {
		h.finishInterpolation()
	}
	h.commit()
	if h.resendPending {
		h.MIDI().ResendAll().Do()
		h.resendPending = false
	}
}

func (h *Hub) drainCommands() {
	for {
		select {
		case msg := <-h.broker.ToHub:
			if err := h.Apply(msg); err != nil {
				h.alert("CommandFailed", Warning, "%v", err)
			}
		default:
			return
		}
	}
}

// drainController applies the queued controller messages. While the bridge
// is disabled they are thrown away.
func (h *Hub) drainController() {
	for {
		select {
		case cc := <-h.broker.Controller:
			if h.bridgeOn {
				h.handleControlChange(cc)
			}
		default:
			return
		}
	}
}

func (h *Hub) evaluateCurves() {
	beats := h.clock.Beats()
	for c := range h.reg.All() {
		c.evaluate(beats)
	}
}

// commit resolves every control, stores the values shown to the host and
// the controller, and then evaluates the disabled predicates against them.
func (h *Hub) commit() {
	for c := range h.reg.All() {
		v := h.resolve(c)
		if v.Equal(c.value) {
			continue
		}
		c.value = v
		if c.Kind.Interactive() {
			h.send(EventValueChanged, ValueChanged{Name: c.Name, Value: v})
		}
	}
	env := predicateEnv(h.reg.All(), func(c *Control) sketch.Value { return c.value })
	for c := range h.reg.All() {
		c.isDisabled = c.disabled != nil && c.disabled.eval(env)
	}
}

func (h *Hub) reportLoadErrors(errs LoadErrors) {
	for _, e := range errs {
		h.alert("InvalidScript", Warning, "%v", e)
	}
}
