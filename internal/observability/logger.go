package observability

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT.
func InitLogger() zerolog.Logger {
	return InitLoggerWithLevel(getLogLevel(), os.Getenv("LOG_FORMAT"))
}

// InitLoggerWithLevel installs a global logger at the given level. Format
// "console" selects human readable output, anything else emits JSON.
func InitLoggerWithLevel(level zerolog.Level, format string) zerolog.Logger {
	var out io.Writer = os.Stderr
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(out).With().Timestamp().Str("service", "ad-discovery").Logger()
	return log.Logger
}

// getLogLevel maps LOG_LEVEL to a zerolog level, defaulting to info
func getLogLevel() zerolog.Level {
	switch strings.ToUpper(os.Getenv("LOG_LEVEL")) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
