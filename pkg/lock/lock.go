package lock

import "io"

// Event identifies a change of the screen lock state.
type Event string

const (
	// Locked is delivered when the screen has become locked.
	Locked Event = "screen locked"
	// Unlocked is delivered when the screen has become unlocked.
	Unlocked Event = "screen unlocked"
)

// Source delivers screen lock events.
// It allows registering channels for:
//   - screen locked events
//   - screen unlocked events
//
// Writing to a registered channel does not block.
// Use a buffered channel if you don't want to miss anything.
//
// It is safe to call Source's methods concurrently.
type Source interface {

	// Subscribe registers a channel that will be notified when the given event is received.
	Subscribe(event Event, c chan<- struct{}) error

	// Unsubscribe unregisters a channel previously registered with Subscribe.
	// Unsubscribe can be safely called with an unregistered channel.
	Unsubscribe(event Event, c chan<- struct{}) error
	io.Closer
}

// StateReader is implemented by sources that can report the current lock state.
type StateReader interface {

	// GetLocked gets the current state of the screen; true=Locked, false=unlocked.
	GetLocked() (bool, error)
}

func validEvent(event Event) bool {
	return event == Locked || event == Unlocked
}
