package hub

import (
	"fmt"

	"github.com/vsariola/sketch"
)

type (
	// Event is an outbound message to the control surface.
	Event struct {
		Name    string `json:"event"`
		Payload any    `json:"payload,omitempty"`
	}

	ValueChanged struct {
		Name  string       `json:"name"`
		Value sketch.Value `json:"value"`
	}

	SnapshotsChanged struct {
		Slots []string `json:"slots"`
	}

	BindingChanged struct {
		Name    string     `json:"name"`
		Binding *ChannelID `json:"binding,omitempty"` // nil when unbound
	}

	LearningChanged struct {
		Name string `json:"name"` // "" when not learning
	}

	TransportChanged struct {
		BPM     float64 `json:"bpm"`
		Playing bool    `json:"playing"`
		Beats   float64 `json:"beats"`
	}

	ScriptReloaded struct {
		Controls []string `json:"controls"`
	}

	// Alert is a message for the user, e.g. a rejected command or a binding
	// dropped during a reload. Name identifies the kind of the alert, so that
	// tests and the control surface can recognize them.
	Alert struct {
		Name     string        `json:"name"`
		Priority AlertPriority `json:"priority"`
		Message  string        `json:"message"`
	}

	AlertPriority int
)

// Outbound event names.
const (
	EventValueChanged     = "value_changed"
	EventSnapshotsChanged = "snapshots_changed"
	EventBindingChanged   = "binding_changed"
	EventLearningChanged  = "learning_changed"
	EventTransportChanged = "transport_changed"
	EventScriptReloaded   = "script_reloaded"
	EventAlert            = "alert"
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

const maxAlerts = 64

func (p AlertPriority) String() string {
	switch p {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("AlertPriority(%d)", int(p))
}

func (p AlertPriority) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Alerts returns the most recent alerts, oldest first.
func (h *Hub) Alerts() []Alert {
	return append([]Alert(nil), h.alerts...)
}

func (h *Hub) alert(name string, priority AlertPriority, format string, args ...any) {
	a := Alert{Name: name, Priority: priority, Message: fmt.Sprintf(format, args...)}
	entry := h.log.WithField("alert", name)
	switch priority {
	case Error:
		entry.Error(a.Message)
	case Warning:
		entry.Warn(a.Message)
	default:
		entry.Info(a.Message)
	}
	if len(h.alerts) >= maxAlerts {
		h.alerts = append(h.alerts[:0], h.alerts[1:]...)
	}
	h.alerts = append(h.alerts, a)
	h.send(EventAlert, a)
}

func (h *Hub) send(name string, payload any) {
	if !TrySend(h.broker.ToSurface, Event{Name: name, Payload: payload}) {
		h.log.WithField("event", name).Debug("surface is lagging, dropped event")
	}
}

func (h *Hub) sendTransport() {
	h.send(EventTransportChanged, TransportChanged{BPM: h.clock.Tempo(), Playing: h.clock.Playing(), Beats: h.clock.Beats()})
}
