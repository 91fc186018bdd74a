package log

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"
)

// Setup configures the process-wide logging backend. Level applies to all
// subsystems; format selects colorized text or JSON output.
func Setup(level, format string) error {
	lvl, err := logging.LevelFromString(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := logging.GetConfig()
	cfg.Level = lvl
	switch format {
	case "", "text":
		cfg.Format = logging.ColorizedOutput
	case "json":
		cfg.Format = logging.JSONOutput
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	logging.SetupLogging(cfg)
	return nil
}

// New returns the event logger for one subsystem.
func New(system string) *logging.ZapEventLogger {
	return logging.Logger(system)
}
