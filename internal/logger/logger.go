// Package logger is the process-wide leveled logger used by the server,
// the storage backends and the HTTP middleware.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/op/go-logging"
)

const (
	module     = "lapse"
	timeFormat = "2006/01/02 15:04:05"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stderr, logging.INFO)
)

// InitLogger replaces the default logger with one writing to stderr at level.
func InitLogger(level logging.Level) {
	SetOutput(os.Stderr, level)
}

// SetOutput redirects log output to w at the given level.
func SetOutput(w io.Writer, level logging.Level) {
	l := newLogger(w, level)
	mu.Lock()
	logger = l
	mu.Unlock()
}

// ParseLevel maps a LOG_LEVEL value to a logging.Level, defaulting to INFO.
func ParseLevel(s string) logging.Level {
	level, err := logging.LogLevel(strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return logging.INFO
	}
	return level
}

func newLogger(w io.Writer, level logging.Level) *logging.Logger {
	l := logging.MustGetLogger(module)
	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend,
		logging.MustStringFormatter(`%{time:`+timeFormat+`} %{level:.4s} - %{message}`))
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, module)
	l.SetBackend(leveled)
	return l
}

func current() *logging.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debug(args ...any)                 { current().Debug(args...) }
func Debugf(format string, args ...any) { current().Debugf(format, args...) }
func Info(args ...any)                  { current().Info(args...) }
func Infof(format string, args ...any)  { current().Infof(format, args...) }

func Warning(args ...any)                 { current().Warning(args...) }
func Warningf(format string, args ...any) { current().Warningf(format, args...) }
func Error(args ...any)                   { current().Error(args...) }
func Errorf(format string, args ...any)   { current().Errorf(format, args...) }
