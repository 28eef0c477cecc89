package hub

import "time"

type (
	// Broker is the centralized message broker of the hub. At the moment, it
	// is just many-to-one communication, implemented with one channel for
	// each recipient:
	//
	//   - ToHub carries host commands (*SetValueMsg, *RecallSnapshotMsg, ...)
	//     from the control surface and the host program. They are drained
	//     once per frame.
	//   - Controller carries inbound controller messages from the controller
	//     port goroutine. They are drained once per frame, after the
	//     commands.
	//   - ToSurface carries outbound Events for the control surface.
	//
	// All channels are buffered; senders use TrySend and drop the message if
	// the recipient is lagging behind.
	Broker struct {
		ToHub      chan any
		Controller chan ControlChange
		ToSurface  chan Event
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToHub:      make(chan any, 1024),
		Controller: make(chan ControlChange, 1024),
		ToSurface:  make(chan Event, 1024),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}
