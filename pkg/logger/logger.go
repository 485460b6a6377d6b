package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Leveled logger shared by the API server and folioctl.
// - Debug/Info/Warn/Error/Fatal variants and Init(level)
// - backed by zerolog; output is JSON lines unless LOG_FORMAT=console

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var (
	mu     sync.RWMutex
	level  Level = LevelInfo
	logger       = newLogger(os.Stdout)
)

func newLogger(w io.Writer) zerolog.Logger {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// SetOutput redirects log output. Used by tests and by folioctl to keep the
// REPL readable.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(w)
}

// Init sets the global log level (case-insensitive: debug, info, warn, error, fatal).
// Call early during startup. Default level is Info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		level = LevelDebug
	case "warn", "warning":
		level = LevelWarn
	case "error":
		level = LevelError
	case "fatal":
		level = LevelFatal
	default:
		level = LevelInfo
	}
}

func shouldLog(l Level) bool {
	mu.RLock()
	defer mu.RUnlock()
	return l >= level
}

func current() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, v ...interface{}) {
	if !shouldLog(LevelDebug) {
		return
	}
	l := current()
	l.Debug().Msgf(format, v...)
}

func Infof(format string, v ...interface{}) {
	if !shouldLog(LevelInfo) {
		return
	}
	l := current()
	l.Info().Msgf(format, v...)
}

func Warnf(format string, v ...interface{}) {
	if !shouldLog(LevelWarn) {
		return
	}
	l := current()
	l.Warn().Msgf(format, v...)
}

func Errorf(format string, v ...interface{}) {
	if !shouldLog(LevelError) {
		return
	}
	l := current()
	l.Error().Msgf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	l := current()
	l.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Println kept for brief messages (maps to Info)
func Println(v ...interface{}) {
	if !shouldLog(LevelInfo) {
		return
	}
	l := current()
	l.Info().Msg(strings.TrimSuffix(fmt.Sprintln(v...), "\n"))
}

// With returns a child logger carrying the given key/value context, for
// components that log many lines about one resource (a binder, a bus).
func With(key, value string) Scoped {
	return Scoped{key: key, value: value}
}

// Scoped prefixes every message with one structured field.
type Scoped struct {
	key, value string
}

func (s Scoped) Debugf(format string, v ...interface{}) {
	if !shouldLog(LevelDebug) {
		return
	}
	l := current()
	l.Debug().Str(s.key, s.value).Msgf(format, v...)
}

func (s Scoped) Infof(format string, v ...interface{}) {
	if !shouldLog(LevelInfo) {
		return
	}
	l := current()
	l.Info().Str(s.key, s.value).Msgf(format, v...)
}

func (s Scoped) Warnf(format string, v ...interface{}) {
	if !shouldLog(LevelWarn) {
		return
	}
	l := current()
	l.Warn().Str(s.key, s.value).Msgf(format, v...)
}

func (s Scoped) Errorf(format string, v ...interface{}) {
	if !shouldLog(LevelError) {
		return
	}
	l := current()
	l.Error().Str(s.key, s.value).Msgf(format, v...)
}

// Debug/Info/Warn/Error helpers that accept a single string
func Debug(v string) { Debugf("%s", v) }
func Info(v string)  { Infof("%s", v) }
func Warn(v string)  { Warnf("%s", v) }
func Error(v string) { Errorf("%s", v) }

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	switch level {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal"
	}
	return "info"
}
