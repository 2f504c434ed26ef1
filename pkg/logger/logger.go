// Package logger provides loggers for library diagnostics.
//
// Loggers are gommon loggers, the same kind echo uses,
// so an echo.Logger can be passed where Logger is required.
package logger

import (
	"io"

	"github.com/labstack/gommon/log"
)

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

var _ Logger = (*log.Logger)(nil)

// Default returns a logger writing to stderr at INFO level, tagged with prefix.
func Default(prefix string) *log.Logger {
	l := log.New(prefix)
	l.SetLevel(log.INFO)
	return l
}

// WithLevel returns a logger writing to w at lvl, tagged with prefix.
func WithLevel(prefix string, w io.Writer, lvl log.Lvl) *log.Logger {
	l := log.New(prefix)
	l.SetOutput(w)
	l.SetLevel(lvl)
	return l
}

// Null returns a logger writing nothing.
func Null() *log.Logger {
	return WithLevel("-", io.Discard, log.OFF)
}
