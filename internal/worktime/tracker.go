package worktime

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultReportDays is the number of days shown by Report when days is not positive.
const DefaultReportDays = 7

// Tracker starts and stops work sessions.
//
// Start and Stop look at the most recent session, whichever day it was started. A session
// that runs past midnight is therefore stopped normally and counted on the day it started.
type Tracker struct {
	Store *Store
	Log   *slog.Logger
	Now   func() time.Time
}

// NewTracker creates a Tracker that uses the wall clock.
func NewTracker(store *Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		Store: store,
		Log:   logger,
		Now:   time.Now,
	}
}

// Start opens a new session. If a session is already active, a warning is logged and the log
// is left unchanged.
func (t *Tracker) Start() error {
	log, err := t.Store.Load()
	if err != nil {
		return err
	}

	if last := log.last(); last != nil && last.Active() {
		t.Log.Warn("You already have an active work session")
		return nil
	}

	now := t.Now()
	today := now.Format(DateLayout)
	log[today] = append(log[today], Session{Start: unixSeconds(now)})
	if err := t.Store.Save(log); err != nil {
		return err
	}

	t.Log.Info("Started tracking at " + now.Format(time.TimeOnly))
	return nil
}

// Stop ends the active session. Without an active session, a warning is logged and the log is
// left unchanged.
func (t *Tracker) Stop() error {
	log, err := t.Store.Load()
	if err != nil {
		return err
	}

	last := log.last()
	if last == nil || !last.Active() {
		t.Log.Warn("No active work session found")
		return nil
	}

	now := t.Now()
	end := unixSeconds(now)
	last.End = &end
	if err := t.Store.Save(log); err != nil {
		return err
	}

	t.Log.Info("Stopped tracking. Session duration: " + FormatDuration(last.Duration(now)))
	return nil
}

// Status logs the time worked today.
func (t *Tracker) Status() error {
	log, err := t.Store.Load()
	if err != nil {
		return err
	}

	now := t.Now()
	today := log.Day(now.Format(DateLayout), now)
	if today.Sessions == 0 {
		t.Log.Warn("No work tracked today")
		return nil
	}

	prefix := "Worked"
	if today.Active {
		prefix = "Currently working"
	}
	t.Log.Info(fmt.Sprintf("%s today: %s", prefix, FormatDuration(today.Total)))
	return nil
}

// Report writes a table of the last days with tracked work to w.
func (t *Tracker) Report(w io.Writer, days int) error {
	if days <= 0 {
		days = DefaultReportDays
	}

	log, err := t.Store.Load()
	if err != nil {
		return err
	}

	summaries := log.Recent(days, t.Now())
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No work logs found")
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\nWork time report (last %d days):\n\n", len(summaries))
	fmt.Fprintf(&b, "%-12s %-10s %-8s\n", "Date", "Duration", "Sessions")
	b.WriteString(strings.Repeat("-", 30) + "\n")
	for _, s := range summaries {
		fmt.Fprintf(&b, "%-12s %-10s %-8d\n", s.Date, FormatDuration(s.Total), s.Sessions)
	}
	b.WriteString("\n")

	_, err = io.WriteString(w, b.String())
	return err
}
