package cli

import (
	"github.com/MatthiasKunnen/lockwatch/internal/config"
	"github.com/MatthiasKunnen/lockwatch/internal/worktime"
	"github.com/spf13/cobra"
)

// newWorktimeCommand creates the worktime command group.
func newWorktimeCommand(getenv func(string) string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worktime",
		Short: "Track working hours",
		Long: `Track working hours in a JSON log kept in the data directory.

Pair it with the watcher to track the time the screen is unlocked:
  lockwatch -u 'lockwatch worktime start' -l 'lockwatch worktime stop'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newWorktimeStartCommand(getenv))
	cmd.AddCommand(newWorktimeStopCommand(getenv))
	cmd.AddCommand(newWorktimeStatusCommand(getenv))
	cmd.AddCommand(newWorktimeReportCommand(getenv))

	return cmd
}

// newWorktimeStartCommand creates the worktime start subcommand.
func newWorktimeStartCommand(getenv func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a work session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tracker, err := openTracker(cmd, getenv)
			if err != nil {
				return err
			}
			return tracker.Start()
		},
	}
}

// newWorktimeStopCommand creates the worktime stop subcommand.
func newWorktimeStopCommand(getenv func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active work session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tracker, err := openTracker(cmd, getenv)
			if err != nil {
				return err
			}
			return tracker.Stop()
		},
	}
}

// newWorktimeStatusCommand creates the worktime status subcommand.
func newWorktimeStatusCommand(getenv func(string) string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the time worked today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tracker, err := openTracker(cmd, getenv)
			if err != nil {
				return err
			}
			return tracker.Status()
		},
	}
}

// newWorktimeReportCommand creates the worktime report subcommand.
func newWorktimeReportCommand(getenv func(string) string) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the time worked on recent days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tracker, err := openTracker(cmd, getenv)
			if err != nil {
				return err
			}
			return tracker.Report(cmd.OutOrStdout(), days)
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", worktime.DefaultReportDays, "Number of days to show")

	return cmd
}

// openTracker creates a tracker from the configuration that logs to the command output.
func openTracker(cmd *cobra.Command, getenv func(string) string) (*worktime.Tracker, error) {
	cfg, err := config.Load(getenv)
	if err != nil {
		return nil, err
	}

	dir, err := cfg.WorktimeDir(getenv)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, cmd.OutOrStdout())
	return worktime.NewTracker(worktime.NewStore(dir), logger), nil
}
