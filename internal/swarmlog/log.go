// Package swarmlog provides the leveled logger used by every component in
// this module. It wraps zerolog behind the small surface the rest of the
// tree expects, mirroring the Debugf/Infof/Warnf/Errorf call sites the
// teacher's session package uses against its own internal logger.
package swarmlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the leveled logging surface used throughout swarmshare.
type Logger struct {
	z zerolog.Logger
}

var defaultWriter io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

// New returns a Logger tagged with component, e.g. New("tracker") or
// New("peer <- 127.0.0.1:9001").
func New(component string) Logger {
	z := zerolog.New(defaultWriter).With().Timestamp().Str("component", component).Logger()
	return Logger{z: z}
}

// SetLevel adjusts the global minimum level (debug, info, warn, error).
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// With returns a child logger scoped to an additional component suffix.
func (l Logger) With(component string) Logger {
	return Logger{z: l.z.With().Str("sub", component).Logger()}
}

func (l Logger) Debugf(format string, args ...interface{}) { l.z.Debug().Msgf(format, args...) }
func (l Logger) Infof(format string, args ...interface{})  { l.z.Info().Msgf(format, args...) }
func (l Logger) Warnf(format string, args ...interface{})  { l.z.Warn().Msgf(format, args...) }
func (l Logger) Errorf(format string, args ...interface{}) { l.z.Error().Msgf(format, args...) }

func (l Logger) Debugln(args ...interface{}) { l.z.Debug().Msg(sprint(args...)) }
func (l Logger) Infoln(args ...interface{})  { l.z.Info().Msg(sprint(args...)) }
func (l Logger) Warnln(args ...interface{})  { l.z.Warn().Msg(sprint(args...)) }
func (l Logger) Errorln(args ...interface{}) { l.z.Error().Msg(sprint(args...)) }

func (l Logger) Error(err error) {
	if err == nil {
		return
	}
	l.z.Error().Err(err).Msg("")
}

func sprint(args ...interface{}) string {
	if len(args) == 1 {
		if s, ok := args[0].(string); ok {
			return s
		}
	}
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += toString(a)
	}
	return out
}

func toString(a interface{}) string {
	if s, ok := a.(string); ok {
		return s
	}
	if err, ok := a.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(a)
}
