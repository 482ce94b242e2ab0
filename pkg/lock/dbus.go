package lock

import (
	"errors"
	"fmt"
	"github.com/godbus/dbus/v5"
	"sync"
)

// dbusSource contains what the D-Bus implementations of Source share: the signal handler
// goroutine, the match rules and the deduplication of lock state changes.
type dbusSource struct {
	conn               *dbus.Conn
	closeSignalHandler chan struct{}
	subs               *subscribers

	// matches are registered when the first channel subscribes and removed when the last one
	// unsubscribes.
	matches     [][]dbus.MatchOption
	muMatch     sync.Mutex
	matchActive bool

	// decode extracts the lock state from a signal. ok is false for unrelated signals.
	decode func(s *dbus.Signal) (locked bool, ok bool)
	// getLocked queries the current lock state.
	getLocked func() (bool, error)

	muState sync.Mutex
	known   bool
	locked  bool
}

func newDbusSource(conn *dbus.Conn) *dbusSource {
	return &dbusSource{
		conn:               conn,
		closeSignalHandler: make(chan struct{}),
		subs:               newSubscribers(),
	}
}

// start initializes the known state and starts processing signals.
func (ds *dbusSource) start() {
	if locked, err := ds.getLocked(); err == nil {
		ds.known = true
		ds.locked = locked
	}

	c := make(chan *dbus.Signal, 10)
	ds.conn.Signal(c)
	go func() {
		for {
			select {
			case <-ds.closeSignalHandler:
				ds.conn.RemoveSignal(c)
				return
			case v, ok := <-c:
				if !ok {
					return
				}
				ds.handleIncomingSignal(v)
			}
		}
	}()
}

func (ds *dbusSource) GetLocked() (bool, error) {
	return ds.getLocked()
}

func (ds *dbusSource) Subscribe(event Event, c chan<- struct{}) error {
	if err := ds.subs.add(event, c); err != nil {
		return err
	}

	ds.muMatch.Lock()
	defer ds.muMatch.Unlock()

	if ds.matchActive {
		return nil
	}

	for _, match := range ds.matches {
		if err := ds.conn.AddMatchSignal(match...); err != nil {
			_ = ds.subs.remove(event, c)
			return fmt.Errorf("failed to register D-Bus signal for %s: %w", event, err)
		}
	}
	ds.matchActive = true

	return nil
}

func (ds *dbusSource) Unsubscribe(event Event, c chan<- struct{}) error {
	if err := ds.subs.remove(event, c); err != nil {
		return err
	}

	ds.muMatch.Lock()
	defer ds.muMatch.Unlock()

	if ds.subs.empty() {
		return ds.removeMatches()
	}

	return nil
}

// removeMatches removes the match rules if they were registered.
// Holding the muMatch mutex is required.
func (ds *dbusSource) removeMatches() error {
	if !ds.matchActive {
		return nil
	}

	var err error
	for _, match := range ds.matches {
		if e := ds.conn.RemoveMatchSignal(match...); e != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove D-Bus signal: %w", e))
		}
	}
	ds.matchActive = false

	return err
}

func (ds *dbusSource) Close() error {
	ds.muMatch.Lock()
	defer ds.muMatch.Unlock()

	ds.subs.clear()
	err := ds.removeMatches()

	close(ds.closeSignalHandler)
	return errors.Join(err, ds.conn.Close())
}

func (ds *dbusSource) handleIncomingSignal(s *dbus.Signal) {
	if s == nil {
		return
	}

	locked, ok := ds.decode(s)
	if !ok || !ds.transition(locked) {
		return
	}

	if locked {
		ds.subs.notify(Locked)
	} else {
		ds.subs.notify(Unlocked)
	}
}

// transition records the new lock state and reports whether it differs from the known one.
func (ds *dbusSource) transition(locked bool) bool {
	ds.muState.Lock()
	defer ds.muState.Unlock()

	if ds.known && ds.locked == locked {
		return false
	}

	ds.known = true
	ds.locked = locked
	return true
}
