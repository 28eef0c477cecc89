package hub

import (
	"maps"
	"strconv"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/vsariola/sketch"
)

// NumSlots is the number of snapshot slots, named "0" to "9".
const NumSlots = 10

type (
	// Snapshot is the captured base values of the interactive controls.
	Snapshot map[string]sketch.Value

	SnapshotModel Hub
)

func (h *Hub) Snapshots() *SnapshotModel { return (*SnapshotModel)(h) }

func slotIndex(slot string) (int, error) {
	i, err := strconv.Atoi(slot)
	if err != nil || i < 0 || i >= NumSlots || strconv.Itoa(i) != slot {
		return 0, errors.Wrapf(ErrInvalidSlot, "%q", slot)
	}
	return i, nil
}

// Capture copies the base values of all interactive controls into the
// slot, overwriting it. If a transition is in flight, it is first stopped
// where it is and the values reached so far become the base values.
func (m *SnapshotModel) Capture(slot string) error {
	i, err := slotIndex(slot)
	if err != nil {
		return err
	}
	h := (*Hub)(m)
	h.freezeInterpolation()
	s := Snapshot{}
	for c := range h.reg.All() {
		if !c.Kind.Interactive() || (c.Bypassed && !h.opts.CaptureBypassed) {
			continue
		}
		s[c.Name] = c.base
	}
	h.slots[i] = s
	h.log.WithField("slot", slot).Debug("captured snapshot")
	h.send(EventSnapshotsChanged, SnapshotsChanged{Slots: m.List()})
	return nil
}

// Recall starts a transition from the current values to the values stored
// in the slot. The transition takes TransitionBeats beats; the active
// transition, if any, is replaced.
func (m *SnapshotModel) Recall(slot string) error {
	i, err := slotIndex(slot)
	if err != nil {
		return err
	}
	h := (*Hub)(m)
	if h.slots[i] == nil {
		return errors.Wrapf(ErrSnapshotNotFound, "slot %s", slot)
	}
	h.startInterpolation(h.slots[i])
	h.log.WithFields(logrus.Fields{"slot": slot, "beats": h.transitionBeats}).Debug("recalled snapshot")
	return nil
}

func (m *SnapshotModel) Delete(slot string) error {
	i, err := slotIndex(slot)
	if err != nil {
		return err
	}
	if m.slots[i] == nil {
		return errors.Wrapf(ErrSnapshotNotFound, "slot %s", slot)
	}
	m.slots[i] = nil
	(*Hub)(m).send(EventSnapshotsChanged, SnapshotsChanged{Slots: m.List()})
	return nil
}

// Get returns a copy of the contents of a slot.
func (m *SnapshotModel) Get(slot string) (Snapshot, error) {
	i, err := slotIndex(slot)
	if err != nil {
		return nil, err
	}
	if m.slots[i] == nil {
		return nil, errors.Wrapf(ErrSnapshotNotFound, "slot %s", slot)
	}
	return maps.Clone(m.slots[i]), nil
}

// List returns the names of the slots holding a snapshot, in order.
func (m *SnapshotModel) List() []string {
	ret := []string{}
	for i, s := range m.slots {
		if s != nil {
			ret = append(ret, strconv.Itoa(i))
		}
	}
	return ret
}

// Randomize starts a transition to random values for every interactive
// control that is neither excluded nor disabled. Nothing is stored into the
// slots.
func (m *SnapshotModel) Randomize() Action { return MakeAction((*randomize)(m)) }

type randomize Hub

func (m *randomize) Do() {
	h := (*Hub)(m)
	target := map[string]sketch.Value{}
	for c := range h.reg.All() {
		if !c.Kind.Interactive() || c.Excluded || c.isDisabled {
			continue
		}
		target[c.Name] = c.Random(h.rand)
	}
	h.startInterpolation(target)
}

// TransitionBeats is the duration of snapshot and randomization transitions.
func (m *SnapshotModel) TransitionBeats() Float { return MakeFloat((*transitionBeats)(m)) }

type transitionBeats Hub

func (m *transitionBeats) Value() float64 { return m.transitionBeats }
func (m *transitionBeats) SetValue(v float64) bool {
	m.transitionBeats = v
	return true
}
func (m *transitionBeats) Range() FloatRange { return FloatRange{Min: 0, Max: 1024} }

// pruneSlots drops the entries of a control from every slot. Slots left
// empty are cleared.
func (h *Hub) pruneSlots(name string) (changed bool) {
	for i, s := range h.slots {
		if _, ok := s[name]; !ok {
			continue
		}
		delete(s, name)
		if len(s) == 0 {
			h.slots[i] = nil
		}
		changed = true
	}
	return changed
}
