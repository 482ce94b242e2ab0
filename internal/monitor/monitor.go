// Package monitor subscribes to screen lock events and runs the configured commands from a
// single event loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MatthiasKunnen/lockwatch/internal/executor"
	"github.com/MatthiasKunnen/lockwatch/pkg/inhibit"
	"github.com/MatthiasKunnen/lockwatch/pkg/lock"
	"github.com/godbus/dbus/v5"
)

// DefaultKeepAlive is the keep-alive tick period used when Monitor.KeepAlive is not set.
const DefaultKeepAlive = 60 * time.Second

// resultQueueSize is the number of finished commands that can wait for the event loop.
const resultQueueSize = 16

// SignalError is the cancellation cause of a context that was stopped by a signal.
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	return "caught signal " + e.Signal.String()
}

// Executor starts commands and reports their results.
type Executor interface {
	Start(label, command string, results chan<- *executor.Result, done <-chan struct{}) (string, error)
	Report(r *executor.Result)
}

// SleepInhibitor delays system sleep, see inhibit.Inhibitor.
type SleepInhibitor interface {
	SubscribePrepareForSleep(c chan<- bool) error
	UnsubscribePrepareForSleep(c chan<- bool) error
	Inhibit(who string, why string, mode inhibit.Mode, what ...inhibit.What) (io.Closer, error)
}

// SecretLocker locks Secret Service collections, see secrets.Secrets.
type SecretLocker interface {
	Lock(paths []string) ([]dbus.ObjectPath, error)
}

// Monitor runs LockCommand when the screen locks and UnlockCommand when it unlocks.
// Only the events with a command are subscribed to.
type Monitor struct {
	Source   lock.Source
	Executor Executor
	Log      *slog.Logger

	LockCommand   string
	UnlockCommand string
	KeepAlive     time.Duration

	// Sleep, when set, holds a delay inhibitor so that LockCommand runs before the system
	// sleeps. Requires LockCommand.
	Sleep SleepInhibitor

	// Secrets, when set, is used to lock the SecretCollections when the screen locks.
	Secrets           SecretLocker
	SecretCollections []string
}

// Run subscribes to the events and processes them until ctx is done.
// Commands that are still running when Run returns are left running.
func (m *Monitor) Run(ctx context.Context) error {
	if m.LockCommand == "" && m.UnlockCommand == "" {
		return errors.New("monitor: no command configured")
	}

	m.Log.Info("Setting up screen event observers...")

	var subs subscriptions
	defer func() {
		if err := subs.close(); err != nil {
			m.Log.Warn("Failed to unsubscribe", "error", err)
		}
	}()

	var lockC, unlockC chan struct{}
	if m.LockCommand != "" {
		lockC = make(chan struct{}, 1)
		if err := subs.add(m.Source, lock.Locked, lockC); err != nil {
			return err
		}
		m.Log.Info("Lock screen observer registered")
	}
	if m.UnlockCommand != "" {
		unlockC = make(chan struct{}, 1)
		if err := subs.add(m.Source, lock.Unlocked, unlockC); err != nil {
			return err
		}
		m.Log.Info("Unlock screen observer registered")
	}

	results := make(chan *executor.Result, resultQueueSize)
	done := make(chan struct{})
	defer close(done)

	sleep := &sleepHold{monitor: m}
	var sleepC chan bool
	if m.Sleep != nil && m.LockCommand != "" {
		sleepC = make(chan bool, 1)
		if err := m.Sleep.SubscribePrepareForSleep(sleepC); err != nil {
			return fmt.Errorf("subscribing to PrepareForSleep: %w", err)
		}
		defer func() {
			if err := m.Sleep.UnsubscribePrepareForSleep(sleepC); err != nil {
				m.Log.Warn("Failed to unsubscribe from PrepareForSleep", "error", err)
			}
		}()
		defer sleep.release()
		sleep.acquire()
		m.Log.Info("Sleep observer registered")
	}

	m.logState()
	m.Log.Info("Screen event monitor started")
	m.Log.Info("Press Ctrl+C to exit")
	if m.LockCommand != "" {
		m.Log.Info("Lock command: " + m.LockCommand)
	}
	if m.UnlockCommand != "" {
		m.Log.Info("Unlock command: " + m.UnlockCommand)
	}

	keepAlive := m.KeepAlive
	if keepAlive <= 0 {
		keepAlive = DefaultKeepAlive
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			var sigErr *SignalError
			if errors.As(context.Cause(ctx), &sigErr) {
				m.Log.Info(fmt.Sprintf("Caught signal %s, exiting...", sigErr.Signal))
			} else {
				m.Log.Info("Stopped, exiting...", "cause", context.Cause(ctx))
			}
			return nil
		case <-lockC:
			m.Log.Info("Screen locked event detected")
			_, _ = m.Executor.Start("lock", m.LockCommand, results, done)
			m.lockSecrets()
		case <-unlockC:
			m.Log.Info("Screen unlocked event detected")
			_, _ = m.Executor.Start("unlock", m.UnlockCommand, results, done)
		case goSleep := <-sleepC:
			if goSleep {
				m.Log.Info("System is about to sleep")
				runID, err := m.Executor.Start("lock", m.LockCommand, results, done)
				if err != nil {
					sleep.release()
				} else {
					sleep.runID = runID
				}
			} else {
				m.Log.Info("System resumed from sleep")
				sleep.acquire()
			}
		case r := <-results:
			m.Executor.Report(r)
			if r.RunID == sleep.runID {
				sleep.release()
			}
		case <-ticker.C:
			m.Log.Debug("Keep-alive")
		}
	}
}

// logState logs the current lock state if the source can report it.
func (m *Monitor) logState() {
	reader, ok := m.Source.(lock.StateReader)
	if !ok {
		return
	}

	locked, err := reader.GetLocked()
	if err != nil {
		m.Log.Warn("Could not get the current lock state", "error", err)
		return
	}
	m.Log.Info("Current lock state", "locked", locked)
}

func (m *Monitor) lockSecrets() {
	if m.Secrets == nil || len(m.SecretCollections) == 0 {
		return
	}

	locked, err := m.Secrets.Lock(m.SecretCollections)
	if err != nil {
		m.Log.Warn("Failed to lock secrets", "error", err)
		return
	}

	names := make([]string, len(locked))
	for i, path := range locked {
		names[i] = string(path)
	}
	m.Log.Info("Locked secrets", "collections", strings.Join(names, ","))
}

// sleepHold keeps track of the sleep delay inhibitor.
type sleepHold struct {
	monitor *Monitor
	closer  io.Closer
	// runID is the lock command run that must finish before the inhibitor is released.
	runID string
}

func (s *sleepHold) acquire() {
	if s.closer != nil {
		return
	}

	closer, err := s.monitor.Sleep.Inhibit("lockwatch", "Run lock command before sleep", inhibit.ModeDelay, inhibit.WhatSleep)
	if err != nil {
		s.monitor.Log.Warn("Unable to acquire sleep inhibition lock", "error", err)
		return
	}
	s.closer = closer
}

func (s *sleepHold) release() {
	s.runID = ""
	if s.closer == nil {
		return
	}

	if err := s.closer.Close(); err != nil {
		s.monitor.Log.Warn("Failed to release sleep inhibition lock", "error", err)
	}
	s.closer = nil
}

type subscription struct {
	source lock.Source
	event  lock.Event
	c      chan struct{}
}

// subscriptions is the list of channels the monitor registered. It is owned by Run.
type subscriptions []subscription

func (s *subscriptions) add(source lock.Source, event lock.Event, c chan struct{}) error {
	if err := source.Subscribe(event, c); err != nil {
		return fmt.Errorf("subscribing to %s: %w", event, err)
	}
	*s = append(*s, subscription{source: source, event: event, c: c})
	return nil
}

func (s *subscriptions) close() error {
	var err error
	for _, sub := range *s {
		err = errors.Join(err, sub.source.Unsubscribe(sub.event, sub.c))
	}
	*s = nil
	return err
}
