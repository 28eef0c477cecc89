package hub

import (
	"time"
)

const (
	MinBPM = 1
	MaxBPM = 999
)

// Clock converts wall-clock time into a musical position. Positions are
// in beats, so a tempo change only changes how fast the curves are played,
// never their shape.
type Clock struct {
	bpm     float64
	fps     float64
	playing bool
	beats   float64
	frame   int64
}

func NewClock(bpm, fps float64) Clock {
	c := Clock{fps: fps, playing: true}
	if c.fps <= 0 {
		c.fps = 60
	}
	c.SetTempo(bpm)
	return c
}

func (c *Clock) SetTempo(bpm float64) {
	if !(bpm >= MinBPM) { // also catches NaN
		bpm = MinBPM
	}
	c.bpm = min(bpm, MaxBPM)
}

func (c *Clock) Tempo() float64 { return c.bpm }
func (c *Clock) Beats() float64 { return c.beats }
func (c *Clock) Frame() int64   { return c.frame }
func (c *Clock) Playing() bool  { return c.playing }
func (c *Clock) Play()          { c.playing = true }
func (c *Clock) Pause()         { c.playing = false }

// FrameBeats is the length of one frame in beats at the current tempo.
func (c *Clock) FrameBeats() float64 { return c.bpm / 60 / c.fps }

// AdvanceFrame steps forward exactly one frame, whether playing or not.
func (c *Clock) AdvanceFrame() {
	c.beats += c.FrameBeats()
	c.frame++
}

// Reset zeroes the position and the frame index; tempo and the play state
// are kept.
func (c *Clock) Reset() {
	c.beats = 0
	c.frame = 0
}

// Tick advances the clock by the wall-clock time elapsed since the previous
// frame. A paused clock does not move.
func (c *Clock) Tick(elapsed time.Duration) {
	if !c.playing {
		return
	}
	if elapsed > 0 {
		c.beats += elapsed.Seconds() * c.bpm / 60
	}
	c.frame++
}
