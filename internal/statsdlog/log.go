// Package statsdlog provides the leveled, systemd-priority-prefixed logger
// used throughout statsgod. It mirrors the severity levels syslog(3) defines
// and writes plain text lines to stderr (or any io.Writer), gating each
// level with an io.Discard swap rather than a runtime branch.
package statsdlog

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Level selects the minimum severity that reaches the configured writer.
// The names match the syslog(3) severities statsgod's configuration file
// exposes under log.level: debug, info, notice, warn, err, crit.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelNotice
	LevelWarn
	LevelErr
	LevelCrit
)

func ParseLevel(s string) (Level, error) {
	switch s {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "notice":
		return LevelNotice, nil
	case "warn":
		return LevelWarn, nil
	case "err":
		return LevelErr, nil
	case "crit":
		return LevelCrit, nil
	default:
		return 0, fmt.Errorf("statsdlog: unknown level %q", s)
	}
}

var (
	mu sync.Mutex

	debugLog  = log.New(os.Stderr, "<7>[DEBUG]    ", log.LstdFlags)
	infoLog   = log.New(os.Stderr, "<6>[INFO]     ", log.LstdFlags)
	noticeLog = log.New(os.Stderr, "<5>[NOTICE]   ", log.LstdFlags)
	warnLog   = log.New(os.Stderr, "<4>[WARNING]  ", log.LstdFlags)
	errorLog  = log.New(os.Stderr, "<3>[ERR]      ", log.LstdFlags)
	critLog   = log.New(os.Stderr, "<2>[CRIT]     ", log.LstdFlags)
	fatalLog  = log.New(os.Stderr, "<2>[FATAL]    ", log.LstdFlags)

	exitFunc = os.Exit
)

// SetLevel discards output below the given level. Called once at startup
// after the configuration file has been parsed. Crit and Fatal are never
// discarded: crit is the most severe configurable level, and Fatal is
// reserved for FatalInit-class errors that always terminate the process.
func SetLevel(lvl Level) {
	mu.Lock()
	defer mu.Unlock()

	discardUnless(debugLog, lvl <= LevelDebug)
	discardUnless(infoLog, lvl <= LevelInfo)
	discardUnless(noticeLog, lvl <= LevelNotice)
	discardUnless(warnLog, lvl <= LevelWarn)
	discardUnless(errorLog, lvl <= LevelErr)
}

// SetOutput redirects every level's writer, used by tests to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	debugLog.SetOutput(w)
	infoLog.SetOutput(w)
	noticeLog.SetOutput(w)
	warnLog.SetOutput(w)
	errorLog.SetOutput(w)
	critLog.SetOutput(w)
	fatalLog.SetOutput(w)
}

func discardUnless(l *log.Logger, keep bool) {
	if keep {
		l.SetOutput(os.Stderr)
	} else {
		l.SetOutput(io.Discard)
	}
}

func Debug(args ...any)                 { debugLog.Println(args...) }
func Debugf(format string, args ...any) { debugLog.Printf(format, args...) }

func Info(args ...any)                 { infoLog.Println(args...) }
func Infof(format string, args ...any) { infoLog.Printf(format, args...) }

func Notice(args ...any)                 { noticeLog.Println(args...) }
func Noticef(format string, args ...any) { noticeLog.Printf(format, args...) }

func Warn(args ...any)                 { warnLog.Println(args...) }
func Warnf(format string, args ...any) { warnLog.Printf(format, args...) }

func Error(args ...any)                 { errorLog.Println(args...) }
func Errorf(format string, args ...any) { errorLog.Printf(format, args...) }

func Crit(args ...any)                 { critLog.Println(args...) }
func Critf(format string, args ...any) { critLog.Printf(format, args...) }

// Fatal logs at fatal severity and terminates the process. Reserved for the
// FatalInit class of error: anything that prevents the daemon from reaching
// a servable state (bind failure after all addresses exhausted, malformed
// configuration).
func Fatal(args ...any) {
	fatalLog.Println(args...)
	exitFunc(1)
}

func Fatalf(format string, args ...any) {
	fatalLog.Printf(format, args...)
	exitFunc(1)
}
