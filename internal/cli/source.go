package cli

import (
	"io"
	"log/slog"

	"github.com/MatthiasKunnen/lockwatch/internal/config"
	"github.com/MatthiasKunnen/lockwatch/internal/monitor"
	"github.com/MatthiasKunnen/lockwatch/pkg/inhibit"
	"github.com/MatthiasKunnen/lockwatch/pkg/lock"
	"github.com/MatthiasKunnen/lockwatch/pkg/secrets"
)

type sleepInhibitor interface {
	monitor.SleepInhibitor
	io.Closer
}

type secretLocker interface {
	monitor.SecretLocker
	io.Closer
}

// These are function variables so that tests can replace the D-Bus connections.
var (
	openSourceFunc    = openSource
	openInhibitorFunc = func() (sleepInhibitor, error) { return inhibit.New() }
	openSecretsFunc   = func() (secretLocker, error) { return secrets.New() }
)

// openSource connects to the event source selected by the configuration.
// The auto backend prefers logind and falls back to the screensaver interface.
func openSource(cfg *config.Config, getenv func(string) string, logger *slog.Logger) (lock.Source, error) {
	sessionID := cfg.Source.SessionID
	if sessionID == "" {
		sessionID = getenv("XDG_SESSION_ID")
	}

	switch cfg.Backend() {
	case config.BackendLogind:
		return lock.NewLogindSource(sessionID)
	case config.BackendScreenSaver:
		return lock.NewScreenSaverSource()
	}

	if sessionID != "" {
		source, err := lock.NewLogindSource(sessionID)
		if err == nil {
			logger.Debug("Using logind event source", "session", sessionID)
			return source, nil
		}
		logger.Warn("logind is unavailable, falling back to the screensaver interface", "error", err)
	}

	logger.Debug("Using screensaver event source")
	return lock.NewScreenSaverSource()
}
