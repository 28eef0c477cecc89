package hub

import (
	"bytes"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vsariola/sketch"
	"gopkg.in/yaml.v3"
)

// State is the persisted shape of a sketch: the base values, the controller
// bindings, the transport and the snapshot slots. In YAML, values are a flat
// name -> value mapping:
//
//	values:
//	  hue: 0.5
//	  animate: true
//	bindings:
//	  - {channel: 0, controller: 1, control: hue}
//	bpm: 120
//	playing: true
type State struct {
	Values         map[string]sketch.Value `yaml:"values,omitempty" json:"values,omitempty"`
	Bindings       Bindings                `yaml:"bindings,omitempty" json:"bindings"`
	BPM            float64                 `yaml:"bpm" json:"bpm"`
	Playing        bool                    `yaml:"playing" json:"playing"`
	HighResolution bool                    `yaml:"highresolution,omitempty" json:"highresolution"`
	Transition     float64                 `yaml:"transition,omitempty" json:"transition"`
	Slots          map[string]Snapshot     `yaml:"slots,omitempty" json:"slots,omitempty"`
}

// State returns the persisted shape of the hub.
func (h *Hub) State() State {
	s := State{
		Values:         map[string]sketch.Value{},
		Bindings:       h.bindings.Copy(),
		BPM:            h.clock.Tempo(),
		Playing:        h.clock.Playing(),
		HighResolution: h.highRes,
		Transition:     h.transitionBeats,
	}
	for c := range h.reg.All() {
		if c.Kind.Interactive() {
			s.Values[c.Name] = c.base
		}
	}
	for i, snap := range h.slots {
		if snap == nil {
			continue
		}
		if s.Slots == nil {
			s.Slots = map[string]Snapshot{}
		}
		s.Slots[strconv.Itoa(i)] = maps.Clone(snap)
	}
	return s
}

// ApplyState restores a persisted state. Entries that no longer fit the
// script (unknown controls, values out of type, bindings of removed
// controls) are dropped with a warning; values out of bounds are clamped.
func (h *Hub) ApplyState(s State) {
	for _, name := range slices.Sorted(maps.Keys(s.Values)) {
		if err := h.SetValue(name, s.Values[name]); err != nil {
			h.alert("StaleState", Warning, "Ignored saved value of %s: %v", name, err)
		}
	}
	for _, b := range s.Bindings.list() {
		c, ok := h.reg.Control(b.Control)
		if !ok || !c.Kind.HasValue() {
			h.alert("StaleMapping", Warning, "Dropped binding of %s: %v", b.Control, ErrStaleMapping)
			continue
		}
		h.link(ChannelID{Channel: b.Channel, Controller: b.Controller}, b.Control)
	}
	if s.BPM > 0 {
		h.clock.SetTempo(s.BPM)
	}
	if s.Playing {
		h.clock.Play()
	} else {
		h.clock.Pause()
	}
	h.highRes = s.HighResolution
	clear(h.hiRes)
	h.pairBindings()
	if s.Transition > 0 {
		h.transitionBeats = s.Transition
	}
	for _, slot := range slices.Sorted(maps.Keys(s.Slots)) {
		i, err := slotIndex(slot)
		if err != nil {
			h.alert("StaleState", Warning, "Ignored saved snapshot: %v", err)
			continue
		}
		snap := Snapshot{}
		for name, v := range s.Slots[slot] {
			c, ok := h.reg.Control(name)
			if !ok || !c.Kind.Interactive() {
				continue
			}
			if v, err := c.Coerce(v); err == nil {
				snap[name] = v
			}
		}
		if len(snap) > 0 {
			h.slots[i] = snap
		}
	}
	h.commit()
	h.sendTransport()
	h.send(EventSnapshotsChanged, SnapshotsChanged{Slots: h.Snapshots().List()})
	h.resendPending = true
}

// SaveState writes the state into a YAML file, creating the directory if
// needed.
func (h *Hub) SaveState(path string) error {
	var b bytes.Buffer
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(h.State()); err != nil {
		return errors.Wrap(err, "could not encode state")
	}
	if err := enc.Close(); err != nil {
		return errors.Wrap(err, "could not encode state")
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return errors.Wrapf(err, "could not create directory for %s", path)
	}
	if err := os.WriteFile(path, b.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "could not write %s", path)
	}
	return nil
}

// LoadState reads a state file written by SaveState and applies it.
func (h *Hub) LoadState(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "could not read %s", path)
	}
	var s State
	if err := yaml.Unmarshal(data, &s); err != nil {
		return errors.Wrapf(err, "could not decode %s", path)
	}
	h.ApplyState(s)
	return nil
}
