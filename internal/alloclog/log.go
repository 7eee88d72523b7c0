// Package alloclog provides the leveled logger shared by the pool, stack
// and arena allocators.
package alloclog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Logger is the interface the allocator packages log through. Applications
// may supply their own implementation via an allocator's WithLogger option;
// without one, arena.New uses Default("info"), which writes to os.Stderr.
type Logger interface {
	SetLogLevel(string)
	Errorf(format string, v ...interface{})
	Warnf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Debugf(format string, v ...interface{})
}

type level int

const (
	levelError level = iota + 1
	levelWarn
	levelInfo
	levelDebug
)

// Default returns a Logger writing to os.Stderr. The level argument
// follows string2level; "" means "info" and an unrecognised level panics.
func Default(lvl string) Logger {
	return &stderrLogger{level: string2level(lvl), output: os.Stderr}
}

type stderrLogger struct {
	level  level
	output io.Writer
}

func (l *stderrLogger) SetLogLevel(lvl string) {
	l.level = string2level(lvl)
}

func (l *stderrLogger) Errorf(format string, v ...interface{}) {
	l.printf(levelError, format, v...)
}

func (l *stderrLogger) Warnf(format string, v ...interface{}) {
	l.printf(levelWarn, format, v...)
}

func (l *stderrLogger) Infof(format string, v ...interface{}) {
	l.printf(levelInfo, format, v...)
}

func (l *stderrLogger) Debugf(format string, v ...interface{}) {
	l.printf(levelDebug, format, v...)
}

func (l *stderrLogger) printf(lvl level, format string, v ...interface{}) {
	if lvl > l.level {
		return
	}
	ts := time.Now().Format("2006-01-02T15:04:05.999Z-07:00")
	fmt.Fprintf(l.output, ts+" ["+lvl.String()+"] "+format+"\n", v...)
}

func (l level) String() string {
	switch l {
	case levelError:
		return "Error"
	case levelWarn:
		return "Warng"
	case levelInfo:
		return "Infom"
	case levelDebug:
		return "Debug"
	}
	panic("unexpected log level")
}

func string2level(s string) level {
	switch strings.ToLower(s) {
	case "error":
		return levelError
	case "warn":
		return levelWarn
	case "debug":
		return levelDebug
	case "", "info":
		return levelInfo
	}
	panic(fmt.Errorf("unknown log level %q", s))
}
