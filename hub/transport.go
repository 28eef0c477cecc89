package hub

type TransportModel Hub

func (h *Hub) Transport() *TransportModel { return (*TransportModel)(h) }

// Playing is true while the clock advances with the frames.
func (m *TransportModel) Playing() Bool { return MakeBool((*playing)(m)) }

type playing Hub

func (m *playing) Value() bool { return m.clock.Playing() }
func (m *playing) SetValue(v bool) {
	if v {
		m.clock.Play()
	} else {
		m.clock.Pause()
	}
	(*Hub)(m).sendTransport()
}

// Tempo is in beats per minute.
func (m *TransportModel) Tempo() Float { return MakeFloat((*tempo)(m)) }

type tempo Hub

func (m *tempo) Value() float64    { return m.clock.Tempo() }
func (m *tempo) Range() FloatRange { return FloatRange{Min: MinBPM, Max: MaxBPM} }
func (m *tempo) SetValue(v float64) bool {
	m.clock.SetTempo(v)
	(*Hub)(m).sendTransport()
	return true
}

// Advance steps the clock forward by exactly one frame. It is meant for
// stepping through a paused sketch.
func (m *TransportModel) Advance() Action { return MakeAction((*advance)(m)) }

type advance Hub

func (m *advance) Do() {
	m.clock.AdvanceFrame()
	(*Hub)(m).sendTransport()
}

// Reset rewinds the clock to zero without touching the tempo or the play
// state. Curves start over and modulator state is forgotten.
func (m *TransportModel) Reset() Action { return MakeAction((*reset)(m)) }

type reset Hub

func (m *reset) Do() {
	m.clock.Reset()
	for c := range m.reg.All() {
		if c.chain != nil {
			c.chain.Reset()
		}
	}
	(*Hub)(m).sendTransport()
}
