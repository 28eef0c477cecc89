package hub

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type (
	// ControlChange is a controller message, inbound or outbound. Value is
	// 7-bit (0-127).
	ControlChange struct {
		Channel    int `json:"channel"`
		Controller int `json:"controller"`
		Value      int `json:"value"`
	}

	// ChannelID identifies a controller channel. In high resolution mode,
	// the ID of a pair is the ID of its MSB controller (0-31).
	ChannelID struct {
		Channel    int `json:"channel" yaml:"channel"`
		Controller int `json:"controller" yaml:"controller"`
	}

	// Bindings is a two-way map between controller channels and control
	// names that makes sure only one channel is linked to only one control
	// and vice versa.
	Bindings struct {
		ChannelBindings map[ChannelID]string
		ControlBindings map[string]ChannelID
	}

	binding struct {
		Channel    int    `json:"channel" yaml:"channel"`
		Controller int    `json:"controller" yaml:"controller"`
		Control    string `json:"control" yaml:"control"`
	}

	// ControllerPort sends messages out to an external controller, so that
	// motorized faders and LED rings follow the resolved values.
	ControllerPort interface {
		Send(ControlChange) error
		Close() error
	}

	// NullControllerPort is a mockup ControllerPort if you don't want to
	// create a real one.
	NullControllerPort struct{}

	highResState struct{ msb, lsb int }

	MIDIModel Hub
)

const (
	maxValue7  = 127
	maxValue14 = 16383
	lsbOffset  = 32
)

func (NullControllerPort) Send(ControlChange) error { return nil }
func (NullControllerPort) Close() error             { return nil }

func (h *Hub) MIDI() *MIDIModel { return (*MIDIModel)(h) }

// Bindings methods

// marshal as slice of bindings cause json doesn't support marshaling maps with
// struct keys
func (t Bindings) list() []binding {
	ret := make([]binding, 0, len(t.ChannelBindings))
	for k, v := range t.ChannelBindings {
		ret = append(ret, binding{Channel: k.Channel, Controller: k.Controller, Control: v})
	}
	slices.SortFunc(ret, func(a, b binding) int {
		return cmp.Or(cmp.Compare(a.Channel, b.Channel), cmp.Compare(a.Controller, b.Controller))
	})
	return ret
}

func (t *Bindings) fromList(l []binding) {
	*t = Bindings{}
	for _, b := range l {
		t.Link(ChannelID{Channel: b.Channel, Controller: b.Controller}, b.Control)
	}
}

func (t Bindings) MarshalJSON() ([]byte, error) { return json.Marshal(t.list()) }
func (t Bindings) MarshalYAML() (any, error)    { return t.list(), nil }
func (t Bindings) IsZero() bool                 { return len(t.ChannelBindings) == 0 }

func (t *Bindings) UnmarshalJSON(data []byte) error {
	var l []binding
	if err := json.Unmarshal(data, &l); err != nil {
		return err
	}
	t.fromList(l)
	return nil
}

func (t *Bindings) UnmarshalYAML(unmarshal func(any) error) error {
	var l []binding
	if err := unmarshal(&l); err != nil {
		return err
	}
	t.fromList(l)
	return nil
}

func (t Bindings) Len() int { return len(t.ChannelBindings) }

func (t Bindings) Control(id ChannelID) (string, bool) {
	name, ok := t.ChannelBindings[id]
	return name, ok
}

func (t Bindings) Channel(name string) (ChannelID, bool) {
	id, ok := t.ControlBindings[name]
	return id, ok
}

func (t *Bindings) Link(id ChannelID, name string) {
	if t.ChannelBindings == nil {
		t.ChannelBindings = make(map[ChannelID]string)
	}
	if t.ControlBindings == nil {
		t.ControlBindings = make(map[string]ChannelID)
	}
	if n, ok := t.ChannelBindings[id]; ok {
		delete(t.ControlBindings, n)
	}
	if i, ok := t.ControlBindings[name]; ok {
		delete(t.ChannelBindings, i)
	}
	t.ChannelBindings[id] = name
	t.ControlBindings[name] = id
}

func (t *Bindings) Unlink(name string) bool {
	id, ok := t.ControlBindings[name]
	if !ok {
		return false
	}
	delete(t.ControlBindings, name)
	delete(t.ChannelBindings, id)
	return true
}

func (t Bindings) Copy() Bindings {
	return Bindings{
		ChannelBindings: maps.Clone(t.ChannelBindings),
		ControlBindings: maps.Clone(t.ControlBindings),
	}
}

// MIDIModel methods

// Learning returns the name of the control waiting for the next controller
// message, or "" if not learning.
func (m *MIDIModel) Learning() string { return m.learning }

func (m *MIDIModel) Bindings() Bindings { return m.bindings.Copy() }

// StartLearning binds the channel of the next inbound controller message to
// the control. A pending learn of another control is cancelled.
func (m *MIDIModel) StartLearning(name string) error {
	h := (*Hub)(m)
	c, ok := h.reg.Control(name)
	if !ok {
		return errors.Wrapf(ErrUnknownControl, "%q", name)
	}
	if !c.Kind.HasValue() {
		return errors.Wrapf(ErrInvalidValue, "separator %q cannot be bound", name)
	}
	if m.learning != "" && m.learning != name {
		h.alert("LearnCancelled", Info, "Cancelled learning %s", m.learning)
	}
	m.learning = name
	h.send(EventLearningChanged, LearningChanged{Name: name})
	h.alert("Learning", Info, "Move a controller to bind it to %s", name)
	return nil
}

func (m *MIDIModel) StopLearning() Action { return MakeAction((*stopLearning)(m)) }

type stopLearning Hub

func (m *stopLearning) Enabled() bool { return m.learning != "" }
func (m *stopLearning) Do() {
	m.learning = ""
	(*Hub)(m).send(EventLearningChanged, LearningChanged{})
}

// Bind links a channel to a control explicitly. If the channel is already
// bound to another control, the request is ignored and ErrBindingConflict
// returned; learning is the way to steal a channel.
func (m *MIDIModel) Bind(id ChannelID, name string) error {
	h := (*Hub)(m)
	c, ok := h.reg.Control(name)
	if !ok {
		return errors.Wrapf(ErrUnknownControl, "%q", name)
	}
	if !c.Kind.HasValue() {
		return errors.Wrapf(ErrInvalidValue, "separator %q cannot be bound", name)
	}
	if id.Channel < 0 || id.Channel > 15 || id.Controller < 0 || id.Controller > maxValue7 {
		return errors.Wrapf(ErrInvalidValue, "channel %d controller %d", id.Channel, id.Controller)
	}
	id = h.pairedID(id)
	if other, ok := m.bindings.Control(id); ok && other != name {
		h.log.WithFields(logrus.Fields{"control": name, "channel": id.Channel, "controller": id.Controller, "bound": other}).Warn("binding conflict")
		return errors.Wrapf(ErrBindingConflict, "%v is bound to %s", id, other)
	}
	h.link(id, name)
	return nil
}

func (m *MIDIModel) Unbind(name string) error {
	h := (*Hub)(m)
	if _, ok := h.reg.Control(name); !ok {
		return errors.Wrapf(ErrUnknownControl, "%q", name)
	}
	h.unlink(name)
	return nil
}

// UnbindAll removes all controller bindings.
func (m *MIDIModel) UnbindAll() Action { return MakeAction((*unbindAll)(m)) }

type unbindAll Hub

func (m *unbindAll) Enabled() bool { return m.bindings.Len() > 0 }
func (m *unbindAll) Do() {
	for _, name := range slices.Sorted(maps.Keys(m.bindings.ControlBindings)) {
		(*Hub)(m).unlink(name)
	}
	(*Hub)(m).alert("UnbindAll", Info, "Removed all controller bindings")
}

// Enabled controls whether inbound controller messages are applied. While
// disabled, inbound messages are discarded and overrides are ignored.
func (m *MIDIModel) Enabled() Bool { return MakeBool((*bridgeEnabled)(m)) }

type bridgeEnabled Hub

func (m *bridgeEnabled) Value() bool { return m.bridgeOn }
func (m *bridgeEnabled) SetValue(v bool) {
	m.bridgeOn = v
	if v {
		m.resendPending = true
	}
}

// HighResolution controls whether controllers 0-31 are paired with 32-63
// into 14-bit values.
func (m *MIDIModel) HighResolution() Bool { return MakeBool((*highResolution)(m)) }

type highResolution Hub

func (m *highResolution) Value() bool { return m.highRes }
func (m *highResolution) SetValue(v bool) {
	m.highRes = v
	clear(m.hiRes)
	(*Hub)(m).pairBindings()
}

// pairedID maps the LSB controllers 32-63 onto their MSB partner while
// high resolution is on; those messages never arrive on their own ID.
func (h *Hub) pairedID(id ChannelID) ChannelID {
	if h.highRes && id.Controller >= lsbOffset && id.Controller < 2*lsbOffset {
		id.Controller -= lsbOffset
	}
	return id
}

// pairBindings moves the bindings of LSB controllers to their MSB partner.
// A binding whose partner is taken by another control is dropped.
func (h *Hub) pairBindings() {
	for _, b := range h.bindings.list() {
		id := ChannelID{Channel: b.Channel, Controller: b.Controller}
		to := h.pairedID(id)
		if to == id {
			continue
		}
		if other, ok := h.bindings.Control(to); ok && other != b.Control {
			h.unlink(b.Control)
			h.alert("StaleMapping", Warning, "Dropped binding of %s: %v is bound to %s", b.Control, to, other)
			continue
		}
		h.link(to, b.Control)
	}
}

// ResendAll sends the value of every bound control out to the controller.
func (m *MIDIModel) ResendAll() Action { return MakeAction((*resendAll)(m)) }

type resendAll Hub

func (m *resendAll) Enabled() bool { return m.bindings.Len() > 0 }
func (m *resendAll) Do() {
	h := (*Hub)(m)
	h.resendPending = false
	for _, b := range m.bindings.list() {
		c, ok := h.reg.Control(b.Control)
		if !ok {
			continue
		}
		n := c.Normalize(c.value)
		var err error
		if h.highRes && b.Controller < lsbOffset {
			v := int(math.Round(n * maxValue14))
			err = h.port.Send(ControlChange{Channel: b.Channel, Controller: b.Controller, Value: v >> 7})
			if err == nil {
				err = h.port.Send(ControlChange{Channel: b.Channel, Controller: b.Controller + lsbOffset, Value: v & maxValue7})
			}
		} else {
			err = h.port.Send(ControlChange{Channel: b.Channel, Controller: b.Controller, Value: int(math.Round(n * maxValue7))})
		}
		if err != nil {
			h.alert("ControllerSend", Error, "Failed to send to controller: %v", err)
			return
		}
	}
}

// handleControlChange applies one inbound controller message: it completes
// a pending learn and updates the override of the bound control.
func (h *Hub) handleControlChange(cc ControlChange) {
	id := ChannelID{Channel: cc.Channel, Controller: cc.Controller}
	value := max(0, min(cc.Value, maxValue7))
	n := float64(value) / maxValue7
	if h.highRes && cc.Controller < 2*lsbOffset {
		if cc.Controller >= lsbOffset {
			id.Controller -= lsbOffset
			st := h.hiRes[id]
			st.lsb = value
			h.hiRes[id] = st
		} else {
			h.hiRes[id] = highResState{msb: value}
		}
		st := h.hiRes[id]
		n = float64(st.msb<<7|st.lsb) / maxValue14
	}
	if h.learning != "" {
		name := h.learning
		h.learning = ""
		h.link(id, name)
		h.send(EventLearningChanged, LearningChanged{})
		h.alert("Bound", Info, "Bound %v to %s", id, name)
	}
	name, ok := h.bindings.Control(id)
	if !ok {
		return
	}
	c, ok := h.reg.Control(name)
	if !ok {
		return
	}
	h.overrides[name] = c.Scale(n)
}

func (h *Hub) link(id ChannelID, name string) {
	if prev, ok := h.bindings.Control(id); ok && prev != name {
		delete(h.overrides, prev)
		h.send(EventBindingChanged, BindingChanged{Name: prev})
	}
	h.bindings.Link(id, name)
	h.send(EventBindingChanged, BindingChanged{Name: name, Binding: &id})
	h.log.WithFields(logrus.Fields{"control": name, "channel": id.Channel, "controller": id.Controller}).Debug("bound controller")
}

func (h *Hub) unlink(name string) {
	delete(h.overrides, name)
	if h.bindings.Unlink(name) {
		h.send(EventBindingChanged, BindingChanged{Name: name})
	}
}

func (id ChannelID) String() string {
	return fmt.Sprintf("CC %d on channel %d", id.Controller, id.Channel+1)
}
