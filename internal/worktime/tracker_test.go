package worktime

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestTracker(t *testing.T) (*Tracker, *clock, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	c := &clock{now: time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)}
	tracker := NewTracker(NewStore(t.TempDir()), slog.New(slog.NewTextHandler(&buf, nil)))
	tracker.Now = c.Now
	return tracker, c, &buf
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0h 0m"},
		{59 * time.Second, "0h 0m"},
		{65 * time.Minute, "1h 5m"},
		{8*time.Hour + 59*time.Minute + 59*time.Second, "8h 59m"},
		{25 * time.Hour, "25h 0m"},
		{-time.Minute, "0h 0m"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in), "duration %s", tt.in)
	}
}

func TestTracker_StartAndStop(t *testing.T) {
	tracker, c, buf := newTestTracker(t)

	require.NoError(t, tracker.Start())
	assert.Contains(t, buf.String(), "Started tracking at 09:00:00")

	c.advance(90 * time.Minute)
	require.NoError(t, tracker.Stop())
	assert.Contains(t, buf.String(), "Stopped tracking. Session duration: 1h 30m")

	log, err := tracker.Store.Load()
	require.NoError(t, err)
	require.Len(t, log["2024-03-04"], 1)
	session := log["2024-03-04"][0]
	assert.False(t, session.Active())
	assert.Equal(t, 90*time.Minute, session.Duration(c.now).Round(time.Second))
}

func TestTracker_StartWithActiveSession(t *testing.T) {
	tracker, c, buf := newTestTracker(t)

	require.NoError(t, tracker.Start())
	c.advance(time.Minute)
	require.NoError(t, tracker.Start())

	assert.Contains(t, buf.String(), "You already have an active work session")
	log, err := tracker.Store.Load()
	require.NoError(t, err)
	assert.Len(t, log["2024-03-04"], 1)
}

func TestTracker_StopWithoutSession(t *testing.T) {
	tracker, _, buf := newTestTracker(t)

	require.NoError(t, tracker.Stop())

	assert.Contains(t, buf.String(), "No active work session found")
	_, err := os.Stat(tracker.Store.Path())
	assert.ErrorIs(t, err, os.ErrNotExist, "nothing is written")
}

func TestTracker_StopTwice(t *testing.T) {
	tracker, c, buf := newTestTracker(t)

	require.NoError(t, tracker.Start())
	c.advance(time.Hour)
	require.NoError(t, tracker.Stop())
	c.advance(time.Hour)
	require.NoError(t, tracker.Stop())

	assert.Equal(t, 1, strings.Count(buf.String(), "Stopped tracking"))
	assert.Contains(t, buf.String(), "No active work session found")
}

func TestTracker_SessionAcrossMidnight(t *testing.T) {
	tracker, c, buf := newTestTracker(t)
	c.now = time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)

	require.NoError(t, tracker.Start())
	c.advance(2 * time.Hour)
	require.NoError(t, tracker.Stop())

	assert.Contains(t, buf.String(), "Session duration: 2h 0m")
	log, err := tracker.Store.Load()
	require.NoError(t, err)
	assert.Len(t, log["2024-03-04"], 1)
	assert.Empty(t, log["2024-03-05"])
}

func TestTracker_Status(t *testing.T) {
	t.Run("no session today", func(t *testing.T) {
		tracker, _, buf := newTestTracker(t)

		require.NoError(t, tracker.Status())

		assert.Contains(t, buf.String(), "No work tracked today")
	})

	t.Run("active session", func(t *testing.T) {
		tracker, c, buf := newTestTracker(t)
		require.NoError(t, tracker.Start())
		c.advance(45 * time.Minute)

		require.NoError(t, tracker.Status())

		assert.Contains(t, buf.String(), "Currently working today: 0h 45m")
	})

	t.Run("finished sessions", func(t *testing.T) {
		tracker, c, buf := newTestTracker(t)
		require.NoError(t, tracker.Start())
		c.advance(2 * time.Hour)
		require.NoError(t, tracker.Stop())
		c.advance(time.Hour)
		require.NoError(t, tracker.Start())
		c.advance(30 * time.Minute)
		require.NoError(t, tracker.Stop())
		c.advance(time.Hour)

		require.NoError(t, tracker.Status())

		assert.Contains(t, buf.String(), "Worked today: 2h 30m")
	})
}

func TestTracker_Report(t *testing.T) {
	tracker, c, _ := newTestTracker(t)
	for day := 0; day < 9; day++ {
		require.NoError(t, tracker.Start())
		c.advance(time.Hour)
		require.NoError(t, tracker.Stop())
		c.advance(23 * time.Hour)
	}
	require.NoError(t, tracker.Start())
	c.advance(10 * time.Minute)

	var out bytes.Buffer
	require.NoError(t, tracker.Report(&out, 0))

	report := out.String()
	assert.Contains(t, report, "Work time report (last 7 days):")
	assert.Contains(t, report, "Date         Duration   Sessions")
	assert.Contains(t, report, "2024-03-13   0h 10m     1")
	assert.Contains(t, report, "2024-03-12   1h 0m      1")
	assert.Contains(t, report, "2024-03-07")
	assert.NotContains(t, report, "2024-03-06")
	assert.Less(t, strings.Index(report, "2024-03-13"), strings.Index(report, "2024-03-12"))
}

func TestTracker_ReportWithoutLogs(t *testing.T) {
	tracker, _, _ := newTestTracker(t)

	var out bytes.Buffer
	require.NoError(t, tracker.Report(&out, 7))

	assert.Equal(t, "No work logs found\n", out.String())
}

func TestStore_LoadExistingLog(t *testing.T) {
	dir := t.TempDir()
	content := `{
  "2024-01-01": [
    {"start": 1704099600.25, "end": 1704103200.25},
    {"start": 1704110400.0}
  ]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o600))

	log, err := NewStore(dir).Load()
	require.NoError(t, err)

	sessions := log["2024-01-01"]
	require.Len(t, sessions, 2)
	assert.Equal(t, time.Hour, sessions[0].Duration(time.Time{}))
	assert.True(t, sessions[1].Active())
}

func TestStore_LoadCorrupted(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("{not json"), 0o600))

	_, err := NewStore(dir).Load()

	assert.ErrorIs(t, err, ErrLogCorrupted)
}

func TestStore_SaveCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "worktime")
	store := NewStore(dir)
	end := 20.0

	require.NoError(t, store.Save(Log{"2024-01-01": {{Start: 10, End: &end}}}))

	log, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, log["2024-01-01"][0].Duration(time.Time{}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are removed")
}
