// Package cli provides the command-line interface for lockwatch.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/MatthiasKunnen/lockwatch/internal/config"
	"github.com/MatthiasKunnen/lockwatch/internal/executor"
	"github.com/MatthiasKunnen/lockwatch/internal/monitor"
	"github.com/spf13/cobra"
)

// Execute runs lockwatch with args and returns the exit code of the process.
// Messages, including errors and the usage text, are written to stdout.
func Execute(ctx context.Context, program string, args []string, stdout io.Writer, getenv func(string) string) int {
	if args == nil {
		// cobra falls back to os.Args when no arguments are set.
		args = []string{}
	}

	root := NewRootCommand(program, getenv)
	root.SetArgs(args)
	root.SetOut(stdout)

	err := root.ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, config.ErrNoCommand):
		fmt.Fprint(stdout, config.Usage(program))
	default:
		fmt.Fprintf(stdout, "Error: %v\n", err)
	}

	return 1
}

// NewRootCommand creates the root command.
// Without a subcommand it runs the watcher. The watcher options are parsed by
// config.ParseArgs so that unknown options only produce a warning; they are registered on the
// command for help and completion.
func NewRootCommand(program string, getenv func(string) string) *cobra.Command {
	root := &cobra.Command{
		Use:   program + " [options]",
		Short: "Run commands when the screen is locked or unlocked",
		Long: `lockwatch listens for screen lock and unlock events and runs a shell command for each.
Events are read from systemd-logind or from the screensaver of the desktop session.`,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in Execute)
		SilenceErrors:      true,
		DisableFlagParsing: true,
		Args:               cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, getenv)
		},
	}
	root.Flags().AddFlagSet(config.Flags(program))

	root.AddCommand(newWorktimeCommand(getenv))

	return root
}

func run(cmd *cobra.Command, argv []string, getenv func(string) string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := config.Load(getenv)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format, out)

	args, err := config.ParseArgs(argv)
	if args != nil {
		for _, arg := range args.Unknown {
			logger.Warn("Unknown option: " + arg)
		}
	}
	if err != nil {
		return err
	}

	if args.Help {
		return cmd.Help()
	}

	cfg.Apply(args)
	if err := cfg.Validate(); err != nil {
		return err
	}

	source, err := openSourceFunc(cfg, getenv, logger)
	if err != nil {
		return fmt.Errorf("opening event source: %w", err)
	}
	defer closeLogged(logger, "event source", source)

	exec := executor.New(logger)
	exec.Shell = cfg.ShellPath()
	exec.MaxOutput = cfg.MaxOutputBytes()

	m := &monitor.Monitor{
		Source:        source,
		Executor:      exec,
		Log:           logger,
		LockCommand:   cfg.Lock,
		UnlockCommand: cfg.Unlock,
		KeepAlive:     cfg.KeepAlive(),
	}

	if cfg.LockOnSleep {
		if cfg.Lock == "" {
			logger.Warn("lock_on_sleep requires a lock command, ignoring it")
		} else if inhibitor, err := openInhibitorFunc(); err != nil {
			logger.Warn("Sleep inhibitor is unavailable", "error", err)
		} else {
			defer closeLogged(logger, "sleep inhibitor", inhibitor)
			m.Sleep = inhibitor
		}
	}

	if len(cfg.LockSecrets) > 0 {
		if s, err := openSecretsFunc(); err != nil {
			logger.Warn("Secret Service is unavailable", "error", err)
		} else {
			defer closeLogged(logger, "secret service", s)
			m.Secrets = s
			m.SecretCollections = cfg.LockSecrets
		}
	}

	return m.Run(ctx)
}

func closeLogged(logger *slog.Logger, name string, c io.Closer) {
	if err := c.Close(); err != nil {
		logger.Warn("Failed to close "+name, "error", err)
	}
}
