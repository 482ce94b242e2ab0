package inhibit

import (
	"errors"
	"fmt"
	"github.com/godbus/dbus/v5"
	"io"
	"os"
	"strings"
	"sync"
)

const (
	dbusDest             = "org.freedesktop.login1"
	dbusManagerInterface = "org.freedesktop.login1.Manager"
	dbusPath             = "/org/freedesktop/login1"
)

type Inhibitor struct {
	conn                *dbus.Conn
	login1              dbus.BusObject
	muSignals           sync.Mutex
	closeSignalHandler  chan struct{}
	prepareForSleepSubs map[chan<- bool]struct{}
}

// New connects to the system bus and starts listening for logind manager signals.
func New() (*Inhibitor, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}

	inhibitor := &Inhibitor{
		conn:                conn,
		login1:              conn.Object(dbusDest, dbusPath),
		closeSignalHandler:  make(chan struct{}),
		prepareForSleepSubs: make(map[chan<- bool]struct{}),
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	go func() {
		for {
			select {
			case <-inhibitor.closeSignalHandler:
				conn.RemoveSignal(c)
				return
			case v, ok := <-c:
				if !ok {
					return
				}
				inhibitor.handleIncomingSignal(v)
			}
		}
	}()

	return inhibitor, nil
}

type What string

const (
	WhatHandleHibernateKey What = "handle-hibernate-key"
	WhatHandleLidSwitch    What = "handle-lid-switch"
	WhatHandlePowerKey     What = "handle-power-key"
	WhatHandleSuspendKey   What = "handle-suspend-key"
	WhatIdle               What = "idle"
	WhatShutdown           What = "shutdown"
	WhatSleep              What = "sleep"
)

type Mode string

const (
	ModeBlock     Mode = "block"
	ModeBlockWeak Mode = "block-weak"
	ModeDelay     Mode = "delay"
)

// Inhibit creates an inhibition lock.
//   - who should be a short human-readable string identifying the application taking the lock.
//   - why should be a short human-readable string identifying the reason why the lock is taken.
//   - mode determines whether the inhibition shall be considered mandatory ("block") or whether it
//     should just delay the operation to a certain maximum time ("delay"),
//     while "block-weak" will create an inhibitor that is automatically ignored in some
//     circumstances.
//   - what is one or more of actions that should be inhibited.
//
// The lock is released the moment when the returned object and all its duplicates are closed.
func (i *Inhibitor) Inhibit(who string, why string, mode Mode, what ...What) (io.Closer, error) {
	if len(what) == 0 {
		return nil, errors.New("Inhibit: at least one What is required")
	}

	var fd dbus.UnixFD

	err := i.login1.
		Call(dbusManagerInterface+".Inhibit", 0, joinWhat(what), who, why, string(mode)).
		Store(&fd)
	if err != nil {
		return nil, fmt.Errorf("failed to create inhibit lock: %w", err)
	}

	return os.NewFile(uintptr(fd), "inhibit"), nil
}

func (i *Inhibitor) handleIncomingSignal(s *dbus.Signal) {
	if s == nil || s.Path != i.login1.Path() {
		return
	}

	if s.Name != dbusManagerInterface+".PrepareForSleep" {
		return
	}

	if len(s.Body) < 1 {
		return
	}
	change, ok := s.Body[0].(bool)
	if !ok {
		return
	}

	i.muSignals.Lock()
	defer i.muSignals.Unlock()

	for c := range i.prepareForSleepSubs {
		select {
		case c <- change:
		default:
		}
	}
}

// SubscribePrepareForSleep registers the channel so that it will be notified when the system wants
// to sleep (true) or resumes from suspend (false).
// Unregister the channel using UnsubscribePrepareForSleep.
func (i *Inhibitor) SubscribePrepareForSleep(c chan<- bool) error {
	if c == nil {
		return errors.New("SubscribePrepareForSleep: channel cannot be nil")
	}

	i.muSignals.Lock()
	defer i.muSignals.Unlock()

	if len(i.prepareForSleepSubs) == 0 {
		if err := i.conn.AddMatchSignal(prepareForSleepMatch(i.login1.Path())...); err != nil {
			return fmt.Errorf("failed to register Dbus PrepareForSleep signal: %w", err)
		}
	}

	i.prepareForSleepSubs[c] = struct{}{}

	return nil
}

func (i *Inhibitor) UnsubscribePrepareForSleep(c chan<- bool) error {
	if c == nil {
		return errors.New("UnsubscribePrepareForSleep: channel cannot be nil")
	}

	i.muSignals.Lock()
	defer i.muSignals.Unlock()

	if _, ok := i.prepareForSleepSubs[c]; !ok {
		return nil
	}
	delete(i.prepareForSleepSubs, c)

	if len(i.prepareForSleepSubs) == 0 {
		return i.removePrepareForSleepSignal()
	}

	return nil
}

// removePrepareForSleepSignal removes the PrepareForSleep match rule.
// Holding the muSignals mutex is required.
func (i *Inhibitor) removePrepareForSleepSignal() error {
	if err := i.conn.RemoveMatchSignal(prepareForSleepMatch(i.login1.Path())...); err != nil {
		return fmt.Errorf("failed to remove Dbus PrepareForSleep signal: %w", err)
	}

	return nil
}

// Close permanently stops processing signals. Discard the inhibitor afterward.
// Inhibition locks returned by Inhibit are not released by Close.
func (i *Inhibitor) Close() error {
	i.muSignals.Lock()
	defer i.muSignals.Unlock()

	var err error
	if len(i.prepareForSleepSubs) > 0 {
		clear(i.prepareForSleepSubs)
		err = i.removePrepareForSleepSignal()
	}

	close(i.closeSignalHandler)
	return errors.Join(err, i.conn.Close())
}

func prepareForSleepMatch(path dbus.ObjectPath) []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchObjectPath(path),
		dbus.WithMatchInterface(dbusManagerInterface),
		dbus.WithMatchSender(dbusDest),
		dbus.WithMatchMember("PrepareForSleep"),
	}
}

func joinWhat(elems []What) string {
	parts := make([]string, len(elems))
	for i, elem := range elems {
		parts[i] = string(elem)
	}

	return strings.Join(parts, ":")
}
