package obs

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerOnce sync.Once
	logger     zerolog.Logger
)

// InitLogger configures the shared logger. JSON output in production,
// human-readable console output otherwise. Safe to call more than once;
// only the first call wins.
func InitLogger(level, environment string) {
	loggerOnce.Do(func() {
		lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
		if err != nil || lvl == zerolog.NoLevel {
			lvl = zerolog.InfoLevel
		}

		if environment == "development" {
			out := zerolog.ConsoleWriter{Out: os.Stdout}
			logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
			return
		}
		logger = zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	})
}

// Logger returns the shared structured logger used across the service.
func Logger() zerolog.Logger {
	InitLogger("info", "")
	return logger
}

// SwapLogger replaces the shared logger and returns the previous one so
// tests can capture output.
func SwapLogger(l zerolog.Logger) zerolog.Logger {
	InitLogger("info", "")
	prev := logger
	logger = l
	return prev
}
