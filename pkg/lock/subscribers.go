package lock

import (
	"fmt"
	"sync"
)

// subscribers keeps the registered channels per event.
// The zero value is not usable, use newSubscribers.
type subscribers struct {
	mu   sync.Mutex
	subs map[Event]map[chan<- struct{}]struct{}
}

func newSubscribers() *subscribers {
	return &subscribers{
		subs: map[Event]map[chan<- struct{}]struct{}{
			Locked:   make(map[chan<- struct{}]struct{}),
			Unlocked: make(map[chan<- struct{}]struct{}),
		},
	}
}

func (s *subscribers) add(event Event, c chan<- struct{}) error {
	if c == nil {
		return fmt.Errorf("subscribe %q: channel cannot be nil", event)
	}
	if !validEvent(event) {
		return fmt.Errorf("subscribe: unknown event %q", event)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[event][c] = struct{}{}

	return nil
}

func (s *subscribers) remove(event Event, c chan<- struct{}) error {
	if c == nil {
		return fmt.Errorf("unsubscribe %q: channel cannot be nil", event)
	}
	if !validEvent(event) {
		return fmt.Errorf("unsubscribe: unknown event %q", event)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[event], c)

	return nil
}

// count returns the number of channels registered for event.
func (s *subscribers) count(event Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[event])
}

func (s *subscribers) empty() bool {
	return s.count(Locked) == 0 && s.count(Unlocked) == 0
}

func (s *subscribers) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.subs {
		clear(m)
	}
}

// notify writes to every channel registered for the event without blocking.
func (s *subscribers) notify(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.subs[event] {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}
