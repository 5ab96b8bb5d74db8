package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
	})).With().Timestamp().Logger()
)

// ParseLevel converts a level name into a zerolog level.
func ParseLevel(name string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", name)
	}
	return level, nil
}

// SetLevel sets the global minimum log level.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	log = log.Level(level)
}

func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debug().Msgf(format, args...)
}

func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Info().Msgf(format, args...)
}

func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warn().Msgf(format, args...)
}

func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	log.Error().Msgf(format, args...)
}
