package logger

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"
)

// logEntry is a single formatted log line queued for a Backend's writer
// goroutine, tagged with the level it was logged at so each writer can
// apply its own level filter.
type logEntry struct {
	level Level
	log   []byte
}

// Logger writes tagged, leveled messages for one subsystem to a Backend.
// Obtained via Backend.Logger, never constructed directly.
type Logger struct {
	lvl       uint32
	subsystem string
	b         *Backend
	writeChan chan logEntry
}

// Level returns the logger's current severity threshold.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.lvl))
}

// SetLevel changes the logger's severity threshold; messages below it are
// dropped before ever reaching the backend.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.lvl, uint32(level))
}

func (l *Logger) write(level Level, s string) {
	if level < l.Level() {
		return
	}
	now := time.Now()
	var caller string
	if l.b.flag&(LogFlagLongFile|LogFlagShortFile) != 0 {
		_, file, line, ok := runtime.Caller(2)
		if ok {
			if l.b.flag&LogFlagShortFile != 0 {
				file = filepath.Base(file)
			}
			caller = fmt.Sprintf("%s:%d ", file, line)
		}
	}
	line := fmt.Sprintf("%s [%s] %s: %s%s\n",
		now.Format("2006-01-02 15:04:05.000"), level, l.subsystem, caller, s)
	l.writeChan <- logEntry{level: level, log: []byte(line)}
}

// Tracef formats and logs a message at the trace level.
func (l *Logger) Tracef(format string, args ...interface{}) {
	l.write(LevelTrace, fmt.Sprintf(format, args...))
}

// Debugf formats and logs a message at the debug level.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.write(LevelDebug, fmt.Sprintf(format, args...))
}

// Infof formats and logs a message at the info level.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.write(LevelInfo, fmt.Sprintf(format, args...))
}

// Warnf formats and logs a message at the warn level.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.write(LevelWarn, fmt.Sprintf(format, args...))
}

// Errorf formats and logs a message at the error level.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.write(LevelError, fmt.Sprintf(format, args...))
}

// Criticalf formats and logs a message at the critical level.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.write(LevelCritical, fmt.Sprintf(format, args...))
}

// Trace logs its arguments at the trace level, space-separated.
func (l *Logger) Trace(args ...interface{}) { l.write(LevelTrace, fmt.Sprint(args...)) }

// Debug logs its arguments at the debug level, space-separated.
func (l *Logger) Debug(args ...interface{}) { l.write(LevelDebug, fmt.Sprint(args...)) }

// Info logs its arguments at the info level, space-separated.
func (l *Logger) Info(args ...interface{}) { l.write(LevelInfo, fmt.Sprint(args...)) }

// Warn logs its arguments at the warn level, space-separated.
func (l *Logger) Warn(args ...interface{}) { l.write(LevelWarn, fmt.Sprint(args...)) }

// Error logs its arguments at the error level, space-separated.
func (l *Logger) Error(args ...interface{}) { l.write(LevelError, fmt.Sprint(args...)) }

// Critical logs its arguments at the critical level, space-separated.
func (l *Logger) Critical(args ...interface{}) { l.write(LevelCritical, fmt.Sprint(args...)) }
