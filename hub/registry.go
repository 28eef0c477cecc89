package hub

import (
	"hash/fnv"
	"iter"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/pkg/errors"
	"github.com/vsariola/sketch"
	"github.com/vsariola/sketch/automation"
)

type (
	// Control is one named control of the registry: its declaration and its
	// runtime state.
	Control struct {
		Name     string
		Label    string
		Kind     sketch.ControlKind
		Bounds   sketch.Bounds
		Default  sketch.Value
		Options  []string
		Excluded bool
		Bypassed bool

		signal   automation.Signal
		chain    *automation.Chain
		disabled *predicate
		refs     []string
		declared []float64 // range as written in the script

		base       sketch.Value // edited by the host, snapshots and the randomizer
		curve      float64      // signal (and chain) output of the current frame
		value      sketch.Value // resolved value committed at the end of the frame
		isDisabled bool
	}

	// Registry holds the controls in declaration order.
	Registry struct {
		controls []*Control
		index    map[string]*Control
	}
)

func (c *Control) Value() sketch.Value { return c.value }
func (c *Control) Base() sketch.Value  { return c.base }
func (c *Control) Disabled() bool      { return c.isDisabled }
func (c *Control) HasCurve() bool      { return c.signal != nil }

// Number is the numeric form of a value of this control, as fed to the
// renderer: selects give the option index.
func (c *Control) Number(v sketch.Value) float64 {
	if c.Kind == sketch.Select {
		return float64(max(0, slices.Index(c.Options, v.Text())))
	}
	return v.Float()
}

// Coerce checks that v is a valid value for the control, converting and
// snapping it as needed.
func (c *Control) Coerce(v sketch.Value) (sketch.Value, error) {
	switch c.Kind {
	case sketch.Slider:
		if v.Kind() == sketch.FloatKind && !math.IsNaN(v.Float()) {
			return sketch.FloatValue(c.Bounds.Snap(v.Float())), nil
		}
	case sketch.Checkbox:
		switch v.Kind() {
		case sketch.BoolKind:
			return v, nil
		case sketch.FloatKind:
			return sketch.BoolValue(v.Float() != 0), nil
		}
	case sketch.Select:
		switch v.Kind() {
		case sketch.StringKind:
			if slices.Contains(c.Options, v.Text()) {
				return v, nil
			}
		case sketch.FloatKind:
			if i := int(v.Float()); float64(i) == v.Float() && i >= 0 && i < len(c.Options) {
				return sketch.StringValue(c.Options[i]), nil
			}
		}
	default:
		return sketch.Value{}, errors.Wrapf(ErrInvalidValue, "%s %q cannot be edited", c.Kind, c.Name)
	}
	return sketch.Value{}, errors.Wrapf(ErrInvalidValue, "%v is not a valid value for %s %q", v, c.Kind, c.Name)
}

// Scale maps a normalized controller value n in [0, 1] to a value of the
// control.
func (c *Control) Scale(n float64) sketch.Value {
	n = math.Max(0, math.Min(1, n))
	switch c.Kind {
	case sketch.Checkbox:
		return sketch.BoolValue(n >= 0.5)
	case sketch.Select:
		if len(c.Options) == 0 {
			return sketch.StringValue("")
		}
		i := min(int(n*float64(len(c.Options))), len(c.Options)-1)
		return sketch.StringValue(c.Options[i])
	}
	return sketch.FloatValue(c.Bounds.Denormalize(n))
}

// Normalize is the inverse of Scale, used when mirroring values back to a
// controller. A select maps to the middle of the band of its option.
func (c *Control) Normalize(v sketch.Value) float64 {
	switch c.Kind {
	case sketch.Checkbox:
		return v.Float()
	case sketch.Select:
		if len(c.Options) == 0 {
			return 0
		}
		return (c.Number(v) + 0.5) / float64(len(c.Options))
	}
	return c.Bounds.Normalize(v.Float())
}

// Random draws a uniformly distributed value within the bounds of the
// control, snapped to its step.
func (c *Control) Random(r *rand.Rand) sketch.Value {
	switch c.Kind {
	case sketch.Checkbox:
		return sketch.BoolValue(r.IntN(2) == 1)
	case sketch.Select:
		if len(c.Options) == 0 {
			return c.Default
		}
		return sketch.StringValue(c.Options[r.IntN(len(c.Options))])
	}
	if c.Bounds.Step > 0 {
		k := r.IntN(c.Bounds.Steps() + 1)
		return sketch.FloatValue(c.Bounds.Snap(c.Bounds.Min + float64(k)*c.Bounds.Step))
	}
	return sketch.FloatValue(c.Bounds.Min + r.Float64()*(c.Bounds.Max-c.Bounds.Min))
}

// compatible reports if runtime state (values, bindings, snapshot entries)
// of o can be carried over to c across a script reload.
func (c *Control) compatible(o *Control) bool {
	if c.Kind != o.Kind {
		return false
	}
	if c.Kind == sketch.CurveControl {
		// undeclared bounds follow the curve values, so editing a
		// breakpoint does not make the control a different one
		return slices.Equal(c.declared, o.declared) && c.Bounds.Step == o.Bounds.Step
	}
	return c.Bounds == o.Bounds && slices.Equal(c.Options, o.Options)
}

func (c *Control) evaluate(beats float64) {
	if c.signal == nil {
		return
	}
	v := c.signal.At(beats)
	if c.chain != nil {
		v = c.chain.Process(v, beats)
	}
	c.curve = v
}

// Registry methods

func (r *Registry) Len() int { return len(r.controls) }

func (r *Registry) Control(name string) (*Control, bool) {
	c, ok := r.index[name]
	return c, ok
}

// All iterates the controls in declaration order.
func (r *Registry) All() iter.Seq[*Control] {
	return func(yield func(*Control) bool) {
		for _, c := range r.controls {
			if !yield(c) {
				return
			}
		}
	}
}

func (r *Registry) Names() []string {
	ret := make([]string, len(r.controls))
	for i, c := range r.controls {
		ret[i] = c.Name
	}
	return ret
}

// Build compiles a script into a registry. Problems are collected into
// LoadErrors rather than failing the whole load: a control with a malformed
// curve, effect or disabled expression falls back to its declared default
// and the rest of the script loads normally. Entries of unknown type are
// skipped.
func Build(script sketch.Script) (*Registry, LoadErrors) {
	var errs LoadErrors
	r := &Registry{index: make(map[string]*Control, len(script.Entries))}
	effects := map[string]automation.Effect{}
	for i := range script.Entries {
		e := &script.Entries[i]
		if e.Type != sketch.TypeEffect {
			continue
		}
		eff, err := buildEffect(e)
		if err != nil {
			errs.add(e.Name, err)
			continue
		}
		effects[e.Name] = eff
	}
	for i := range script.Entries {
		e := &script.Entries[i]
		if e.Type == sketch.TypeEffect {
			continue
		}
		kind, ok := e.ControlKind()
		if !ok {
			errs.add(e.Name, errors.Wrapf(ErrInvalidEntry, "unknown type %q", e.Type))
			continue
		}
		c := &Control{Name: e.Name, Label: e.Label, Kind: kind, Excluded: e.Excluded, Bypassed: e.Bypassed}
		c.declared = slices.Clone(e.Range)
		if err := c.declare(e, &script, effects); err != nil {
			errs.add(e.Name, err)
		}
		c.base, c.value = c.Default, c.Default
		r.controls = append(r.controls, c)
		r.index[c.Name] = c
	}
	// disabled predicates can refer to any control, so they are compiled last
	types := predicateEnv(r.All(), func(c *Control) sketch.Value { return c.Default })
	for i := range script.Entries {
		e := &script.Entries[i]
		c, ok := r.index[e.Name]
		if !ok || e.Disabled == "" {
			continue
		}
		x, refs, err := compilePredicate(e.Disabled, types)
		if err != nil {
			errs.add(e.Name, err)
			continue
		}
		c.disabled, c.refs = x, refs
	}
	return r, errs
}

// declare fills in the declaration of the control from the entry. On error,
// the control is still usable: it holds its declared default and no curve.
func (c *Control) declare(e *sketch.Entry, s *sketch.Script, effects map[string]automation.Effect) error {
	switch c.Kind {
	case sketch.Separator:
		return nil
	case sketch.Checkbox:
		c.Default = sketch.BoolValue(false)
		if e.Default != nil {
			d, err := c.Coerce(*e.Default)
			if err != nil {
				return err
			}
			c.Default = d
		}
		return nil
	case sketch.Select:
		c.Options = slices.Clone(e.Options)
		if len(c.Options) == 0 {
			c.Default = sketch.StringValue("")
			return errors.Wrap(ErrInvalidEntry, "select has no options")
		}
		c.Default = sketch.StringValue(c.Options[0])
		if e.Default != nil {
			d, err := c.Coerce(*e.Default)
			if err != nil {
				return err
			}
			c.Default = d
		}
		return nil
	case sketch.Slider:
		c.Bounds = sketch.Bounds{Min: 0, Max: 1}
		c.Default = sketch.FloatValue(0)
		min, max, err := e.RangeOr(0, 1)
		if err != nil {
			return errors.Wrap(ErrInvalidEntry, err.Error())
		}
		b := sketch.Bounds{Min: min, Max: max, Step: e.Step}
		if !b.Valid() {
			return errors.Wrapf(ErrInvalidEntry, "invalid bounds %+v", b)
		}
		c.Bounds, c.Default = b, sketch.FloatValue(b.Min)
		if e.Default != nil {
			d, err := c.Coerce(*e.Default)
			if err != nil {
				return err
			}
			c.Default = d
		}
		return nil
	}
	// curve controls
	c.Bounds = sketch.Bounds{Min: 0, Max: 1}
	c.Default = sketch.FloatValue(0)
	if e.Default != nil && e.Default.Kind() == sketch.FloatKind {
		c.Default = *e.Default
	}
	sig, chain, err := buildSignal(e, s, effects)
	if err != nil {
		return err
	}
	lo, hi := sig.Range()
	if chain != nil {
		if last, ok := lastFolder(e, effects); ok {
			lo, hi = last.Min, last.Max
		}
	}
	min, max, err := e.RangeOr(lo, hi)
	if err != nil {
		return errors.Wrap(ErrInvalidEntry, err.Error())
	}
	c.Bounds = sketch.Bounds{Min: min, Max: max, Step: e.Step}
	if e.Default == nil {
		c.Default = sketch.FloatValue(min)
	}
	c.signal, c.chain = sig, chain
	return nil
}

func buildSignal(e *sketch.Entry, s *sketch.Script, effects map[string]automation.Effect) (automation.Signal, *automation.Chain, error) {
	stem := e.Stem
	if stem == 0 {
		h := fnv.New64a()
		h.Write([]byte(e.Name))
		stem = h.Sum64()
	}
	switch e.Type {
	case sketch.TypeAutomate:
		loop, err := automation.ParseLoopMode(e.Loop)
		if err != nil {
			return nil, nil, err
		}
		bps := make([]automation.Breakpoint, len(e.Breakpoints))
		for i, b := range e.Breakpoints {
			kind, err := automation.ParseKind(b.Kind)
			if err != nil {
				return nil, nil, errors.WithMessagef(err, "breakpoint %d", i)
			}
			easing, err := automation.ParseEasing(b.Easing)
			if err != nil {
				return nil, nil, errors.WithMessagef(err, "breakpoint %d", i)
			}
			bps[i] = automation.Breakpoint{Position: b.Position, Value: b.Value, Kind: kind, Easing: easing, Amplitude: b.Amplitude}
		}
		var phase float64
		if n := len(bps); n > 0 {
			phase = e.Phase * bps[n-1].Position
		}
		c, err := automation.NewCurve(bps, loop, phase, stem)
		return c, nil, err
	case sketch.TypeTriangle, sketch.TypeRamp, sketch.TypeRandomSlewed:
		min, max, err := e.RangeOr(0, 1)
		if err != nil {
			return nil, nil, errors.Wrap(ErrInvalidCurve, err.Error())
		}
		beats := e.Beats
		if beats == 0 {
			beats = 4
		}
		switch e.Type {
		case sketch.TypeTriangle:
			c, err := automation.TriangleCurve(beats, min, max, e.Phase)
			return c, nil, err
		case sketch.TypeRamp:
			c, err := automation.RampCurve(beats, min, max, e.Phase)
			return c, nil, err
		}
		r, err := automation.NewRandomSlewed(beats, min, max, e.Slew, stem)
		return r, nil, err
	case sketch.TypeMod:
		src, ok := s.Entry(e.Source)
		if !ok || src.Type == sketch.TypeMod {
			return nil, nil, errors.Wrapf(ErrInvalidCurve, "mod source %q is not a curve", e.Source)
		}
		if k, ok := src.ControlKind(); !ok || k != sketch.CurveControl {
			return nil, nil, errors.Wrapf(ErrInvalidCurve, "mod source %q is not a curve", e.Source)
		}
		sig, _, err := buildSignal(src, s, effects)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "mod source %q", e.Source)
		}
		chain := make([]automation.Effect, len(e.Modulators))
		for i, name := range e.Modulators {
			eff, ok := effects[name]
			if !ok {
				return nil, nil, errors.Wrapf(ErrInvalidCurve, "unknown effect %q", name)
			}
			chain[i] = eff
		}
		return sig, automation.NewChain(chain...), nil
	}
	return nil, nil, errors.Wrapf(ErrInvalidEntry, "%q is not a curve type", e.Type)
}

func buildEffect(e *sketch.Entry) (automation.Effect, error) {
	kind, err := automation.ParseEffectKind(e.Kind)
	if err != nil {
		return automation.Effect{}, err
	}
	shape, err := automation.ParseFoldShape(e.Shape)
	if err != nil {
		return automation.Effect{}, err
	}
	min, max, err := e.RangeOr(0, 1)
	if err != nil {
		return automation.Effect{}, errors.Wrap(ErrInvalidCurve, err.Error())
	}
	eff := automation.Effect{
		Kind:       kind,
		Rise:       e.Rise,
		Fall:       e.Fall,
		Gain:       e.Gain,
		Iterations: e.Iterations,
		Symmetry:   e.Symmetry,
		Bias:       e.Bias,
		Shape:      shape,
		Min:        min,
		Max:        max,
	}
	if eff.Gain == 0 {
		eff.Gain = 1
	}
	if eff.Iterations == 0 {
		eff.Iterations = 1
	}
	return eff, eff.Validate()
}

func lastFolder(e *sketch.Entry, effects map[string]automation.Effect) (automation.Effect, bool) {
	for i := len(e.Modulators) - 1; i >= 0; i-- {
		if eff, ok := effects[e.Modulators[i]]; ok && eff.Kind == automation.WaveFolder {
			return eff, true
		}
	}
	return automation.Effect{}, false
}
