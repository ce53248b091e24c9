package logger

import (
	"fmt"

	"github.com/spf13/pflag"
)

// SetupLogger installs the process-wide default logger from CLI-level
// settings.
func SetupLogger(logLevel string, logJSON, logSource bool) {
	cfg := DefaultConfig()
	switch logLevel {
	case "debug":
		cfg.Level = DebugLevel
	case "warn":
		cfg.Level = WarnLevel
	case "error":
		cfg.Level = ErrorLevel
	default:
		cfg.Level = InfoLevel
	}
	cfg.JSON = logJSON
	cfg.AddSource = logSource
	SetDefault(NewLogger(cfg))
}

// GetLoggerConfig reads the shared logging flags off a flag set.
func GetLoggerConfig(flags *pflag.FlagSet) (string, bool, bool, error) {
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-level flag: %w", err)
	}
	logJSON, err := flags.GetBool("log-json")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-json flag: %w", err)
	}
	logSource, err := flags.GetBool("log-source")
	if err != nil {
		return "", false, false, fmt.Errorf("failed to get log-source flag: %w", err)
	}
	return logLevel, logJSON, logSource, nil
}
