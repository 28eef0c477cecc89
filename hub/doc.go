/*
Package hub contains the Control Hub: the per-frame evaluation engine that
turns the declarative control script of a sketch into one value per control
every rendered frame.

The Hub owns the Registry of controls, the Clock, the snapshot slots, the
active Interpolation and the controller bindings. It is driven by a single
goroutine calling Hub.Frame once per rendered frame; host commands and
controller messages arrive over the channels of a Broker and are drained at
the start of every frame, so the values of a frame are a deterministic
function of the clock position, the registry and the messages drained so
far.

The value of a control is resolved with the following precedence, highest
first: bypass (the declared default), the active interpolation, the
controller override, the curve or modulation output and finally the base
value edited by the host.

Like the rest of the hub API, the facades returned by Hub.Transport,
Hub.Snapshots and Hub.MIDI group related Actions, Bools and Floats, e.g.
hub.Transport().Play().Do() or hub.MIDI().Enabled().SetValue(false).
*/
package hub
