// Package worktime records work sessions per day and summarizes them.
//
// Sessions are meant to start when the screen is unlocked and stop when it is locked, e.g.
//
//	lockwatch -u 'lockwatch worktime start' -l 'lockwatch worktime stop'
package worktime

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// DateLayout is the format of the day keys of a Log.
const DateLayout = "2006-01-02"

// Session is a tracked period of work. Times are Unix seconds.
type Session struct {
	Start float64  `json:"start"`
	End   *float64 `json:"end,omitempty"`
}

// Active reports whether the session has not been stopped yet.
func (s Session) Active() bool {
	return s.End == nil
}

// Duration returns the length of the session. An active session lasts until now.
func (s Session) Duration(now time.Time) time.Duration {
	end := unixSeconds(now)
	if s.End != nil {
		end = *s.End
	}
	// Millisecond precision hides float rounding of the Unix timestamps.
	return time.Duration(math.Round((end-s.Start)*1000)) * time.Millisecond
}

// Log maps a day, formatted with DateLayout, to the sessions started that day.
type Log map[string][]Session

// Summary holds the totals of one day.
type Summary struct {
	Date     string
	Total    time.Duration
	Sessions int
	Active   bool // a session of this day is still running
}

// Day returns the summary of date.
func (l Log) Day(date string, now time.Time) Summary {
	sum := Summary{Date: date}
	for _, s := range l[date] {
		sum.Sessions++
		sum.Total += s.Duration(now)
		if s.Active() {
			sum.Active = true
		}
	}
	return sum
}

// Recent returns the summaries of the last days that have sessions, newest first.
func (l Log) Recent(days int, now time.Time) []Summary {
	dates := l.dates()
	if len(dates) > days {
		dates = dates[:days]
	}

	summaries := make([]Summary, len(dates))
	for i, date := range dates {
		summaries[i] = l.Day(date, now)
	}
	return summaries
}

// last returns the most recently started session, or nil if there is none.
func (l Log) last() *Session {
	for _, date := range l.dates() {
		if sessions := l[date]; len(sessions) > 0 {
			return &sessions[len(sessions)-1]
		}
	}
	return nil
}

// dates returns the day keys, newest first.
func (l Log) dates() []string {
	dates := make([]string, 0, len(l))
	for date := range l {
		dates = append(dates, date)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}

// FormatDuration formats d as hours and minutes, e.g. "1h 5m". Seconds are dropped.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
