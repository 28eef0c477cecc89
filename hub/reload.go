package hub

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch"
)

// Reload replaces the script while keeping as much runtime state as
// possible. Controls present in both scripts with the same kind, bounds and
// options keep their base value, controller override, binding, snapshot
// entries and the target of an in-flight transition. Curve controls are
// compared by their declared range, and a modulator chain running the same
// effects keeps its state. A bypass toggled by the host survives unless the
// script changed the declared one. A control whose kind or bounds changed
// starts over from its declared default and loses all of those; this is
// reported as a StaleMapping alert. Controls removed from the script are
// dropped together with their bindings.
func (h *Hub) Reload(script sketch.Script) LoadErrors {
	reg, errs := Build(script)
	old := h.reg
	slotsChanged := false
	for c := range reg.All() {
		o, ok := old.Control(c.Name)
		if !ok {
			continue
		}
		if c.compatible(o) {
			if c.Kind.Interactive() {
				c.base = o.base
			}
			c.value = o.value
			c.isDisabled = o.isDisabled
			if sameBypass(&h.script, &script, c.Name) {
				c.Bypassed = o.Bypassed
			}
			if c.chain != nil {
				c.chain.Adopt(o.chain)
			}
			continue
		}
		_, bound := h.bindings.Channel(c.Name)
		h.forget(c.Name)
		slotsChanged = h.pruneSlots(c.Name) || slotsChanged
		h.log.WithFields(logrus.Fields{"control": c.Name, "bound": bound}).Debug("incompatible control after reload")
		h.alert("StaleMapping", Warning, "%s changed from %s to %s; its binding and snapshot entries were dropped", c.Name, describe(o), describe(c))
	}
	for o := range old.All() {
		if _, ok := reg.Control(o.Name); ok {
			continue
		}
		h.forget(o.Name)
		slotsChanged = h.pruneSlots(o.Name) || slotsChanged
		h.log.WithField("control", o.Name).Debug("control removed by reload")
	}
	h.reg, h.script = reg, script.Copy()
	if h.interp != nil && h.interp.Len() == 0 {
		h.interp = nil
	}
	h.reportLoadErrors(errs)
	h.evaluateCurves()
	h.commit()
	if slotsChanged {
		h.send(EventSnapshotsChanged, SnapshotsChanged{Slots: h.Snapshots().List()})
	}
	h.send(EventScriptReloaded, ScriptReloaded{Controls: reg.Names()})
	h.resendPending = true
	return errs
}

func sameBypass(a, b *sketch.Script, name string) bool {
	ea, ok := a.Entry(name)
	if !ok {
		return false
	}
	eb, ok := b.Entry(name)
	return ok && ea.Bypassed == eb.Bypassed
}

// forget drops all runtime state attached to a control name.
func (h *Hub) forget(name string) {
	h.unlink(name)
	if h.interp != nil {
		h.interp.remove(name)
	}
	if h.learning == name {
		h.learning = ""
		h.send(EventLearningChanged, LearningChanged{})
	}
}

func describe(c *Control) string {
	switch c.Kind {
	case sketch.Slider, sketch.CurveControl:
		return fmt.Sprintf("%s [%g, %g] step %g", c.Kind, c.Bounds.Min, c.Bounds.Max, c.Bounds.Step)
	case sketch.Select:
		return fmt.Sprintf("%s %v", c.Kind, c.Options)
	}
	return c.Kind.String()
}
