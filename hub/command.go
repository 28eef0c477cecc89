package hub

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/vsariola/sketch"
)

type (
	// Envelope is the wire form of a host command:
	//
	//	{"event": "set_value", "payload": {"name": "hue", "value": 0.5}}
	Envelope struct {
		Event   string          `json:"event"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}

	SetValueMsg struct {
		Name  string       `json:"name"`
		Value sketch.Value `json:"value"`
	}

	SetBypassedMsg struct {
		Name     string `json:"name"`
		Bypassed bool   `json:"bypassed"`
	}

	CaptureSnapshotMsg struct {
		Slot string `json:"slot"`
	}

	RecallSnapshotMsg struct {
		Slot string `json:"slot"`
	}

	DeleteSnapshotMsg struct {
		Slot string `json:"slot"`
	}

	StartLearningMsg struct {
		Name string `json:"name"`
	}

	BindMsg struct {
		Name       string `json:"name"`
		Channel    int    `json:"channel"`
		Controller int    `json:"controller"`
	}

	UnbindMsg struct {
		Name string `json:"name"`
	}

	SetTempoMsg struct {
		BPM float64 `json:"bpm"`
	}

	SetBridgeEnabledMsg struct {
		Enabled bool `json:"enabled"`
	}

	SetHighResolutionMsg struct {
		Enabled bool `json:"enabled"`
	}

	SetTransitionMsg struct {
		Beats float64 `json:"beats"`
	}

	RandomizeMsg    struct{}
	StopLearningMsg struct{}
	UnbindAllMsg    struct{}
	PlayMsg         struct{}
	PauseMsg        struct{}
	AdvanceMsg      struct{}
	ResetMsg        struct{}
	ResendAllMsg    struct{}

	// ReloadScriptMsg replaces the script. Over the wire, the payload holds
	// the YAML source; in-process senders can pass the parsed Script.
	ReloadScriptMsg struct {
		Source string         `json:"source"`
		Script *sketch.Script `json:"-"`
	}

	// ControlsRequestMsg and StateRequestMsg ask the frame loop for a
	// snapshot of the hub; the answer is sent to Reply, which should be
	// buffered.
	ControlsRequestMsg struct {
		Reply chan []ControlDescriptor
	}

	StateRequestMsg struct {
		Reply chan State
	}
)

var commands = map[string]func() any{
	"set_value":           func() any { return &SetValueMsg{} },
	"set_bypassed":        func() any { return &SetBypassedMsg{} },
	"capture_snapshot":    func() any { return &CaptureSnapshotMsg{} },
	"recall_snapshot":     func() any { return &RecallSnapshotMsg{} },
	"delete_snapshot":     func() any { return &DeleteSnapshotMsg{} },
	"randomize":           func() any { return &RandomizeMsg{} },
	"start_learning":      func() any { return &StartLearningMsg{} },
	"stop_learning":       func() any { return &StopLearningMsg{} },
	"bind":                func() any { return &BindMsg{} },
	"unbind":              func() any { return &UnbindMsg{} },
	"unbind_all":          func() any { return &UnbindAllMsg{} },
	"set_tempo":           func() any { return &SetTempoMsg{} },
	"play":                func() any { return &PlayMsg{} },
	"pause":               func() any { return &PauseMsg{} },
	"advance":             func() any { return &AdvanceMsg{} },
	"reset":               func() any { return &ResetMsg{} },
	"set_bridge_enabled":  func() any { return &SetBridgeEnabledMsg{} },
	"set_high_resolution": func() any { return &SetHighResolutionMsg{} },
	"set_transition":      func() any { return &SetTransitionMsg{} },
	"resend_all":          func() any { return &ResendAllMsg{} },
	"reload_script":       func() any { return &ReloadScriptMsg{} },
}

// DecodeCommand decodes a command envelope into one of the *Msg types,
// ready to be sent to Broker.ToHub.
func DecodeCommand(data []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "malformed command envelope")
	}
	f, ok := commands[env.Event]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownCommand, "%q", env.Event)
	}
	msg := f()
	if len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, msg); err != nil {
			return nil, errors.Wrapf(err, "malformed payload of %s", env.Event)
		}
	}
	return msg, nil
}

// Apply executes one host command. Failed commands leave the hub unchanged.
func (h *Hub) Apply(msg any) error {
	switch m := msg.(type) {
	case *SetValueMsg:
		return h.SetValue(m.Name, m.Value)
	case *SetBypassedMsg:
		b := h.Bypass(m.Name)
		if !b.Enabled() {
			return errors.Wrapf(ErrUnknownControl, "%q", m.Name)
		}
		b.SetValue(m.Bypassed)
	case *CaptureSnapshotMsg:
		return h.Snapshots().Capture(m.Slot)
	case *RecallSnapshotMsg:
		return h.Snapshots().Recall(m.Slot)
	case *DeleteSnapshotMsg:
		return h.Snapshots().Delete(m.Slot)
	case *RandomizeMsg:
		h.Snapshots().Randomize().Do()
	case *StartLearningMsg:
		return h.MIDI().StartLearning(m.Name)
	case *StopLearningMsg:
		h.MIDI().StopLearning().Do()
	case *BindMsg:
		return h.MIDI().Bind(ChannelID{Channel: m.Channel, Controller: m.Controller}, m.Name)
	case *UnbindMsg:
		return h.MIDI().Unbind(m.Name)
	case *UnbindAllMsg:
		h.MIDI().UnbindAll().Do()
	case *SetTempoMsg:
		h.Transport().Tempo().SetValue(m.BPM)
	case *PlayMsg:
		h.Transport().Playing().SetValue(true)
	case *PauseMsg:
		h.Transport().Playing().SetValue(false)
	case *AdvanceMsg:
		h.Transport().Advance().Do()
	case *ResetMsg:
		h.Transport().Reset().Do()
	case *SetBridgeEnabledMsg:
		h.MIDI().Enabled().SetValue(m.Enabled)
	case *SetHighResolutionMsg:
		h.MIDI().HighResolution().SetValue(m.Enabled)
	case *SetTransitionMsg:
		h.Snapshots().TransitionBeats().SetValue(m.Beats)
	case *ResendAllMsg:
		h.MIDI().ResendAll().Do()
	case *ReloadScriptMsg:
		s := m.Script
		if s == nil {
			parsed, err := sketch.ReadScript(strings.NewReader(m.Source))
			if err != nil {
				return err
			}
			s = &parsed
		}
		h.Reload(*s)
	case *ControlsRequestMsg:
		TrySend(m.Reply, h.Controls())
	case *StateRequestMsg:
		TrySend(m.Reply, h.State())
	default:
		return errors.Wrapf(ErrUnknownCommand, "%T", msg)
	}
	return nil
}
