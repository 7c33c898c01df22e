package loggy

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ECHO mirrors every log line to stderr.
var ECHO bool = false

// SILENT suppresses file output; echo still works.
var SILENT bool = false

// LogFolder is where per-id log files are created. Empty disables files.
var LogFolder string = ""

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
)

// MinLevel filters out lines below it.
var MinLevel Level = LevelInfo

var stderr io.Writer = os.Stderr

type Logger struct {
	mu      sync.Mutex
	logFile *os.File
	id      int
	app     string
}

var (
	loggers = make(map[int]*Logger)
	lm      sync.Mutex
	app     = "nibm8"
)

// SetApp changes the prefix used for new log file names.
func SetApp(name string) {
	lm.Lock()
	app = name
	lm.Unlock()
}

func Get(id int) *Logger {
	lm.Lock()
	defer lm.Unlock()
	l, ok := loggers[id]
	if !ok {
		l = NewLogger(id, app)
		loggers[id] = l
	}
	return l
}

// Close flushes and closes every open log file.
func Close() {
	lm.Lock()
	defer lm.Unlock()
	for id, l := range loggers {
		l.mu.Lock()
		if l.logFile != nil {
			l.logFile.Close()
			l.logFile = nil
		}
		l.mu.Unlock()
		delete(loggers, id)
	}
}

func NewLogger(id int, app string) *Logger {

	if app == "" {
		app = "nibm8"
	}

	l := &Logger{
		id:  id,
		app: app,
	}

	if LogFolder == "" || SILENT {
		return l
	}

	filename := fmt.Sprintf("%s_%d_%s.log", app, id, fts())
	if err := os.MkdirAll(LogFolder, 0755); err != nil {
		return l
	}

	f, err := os.Create(strings.TrimSuffix(LogFolder, "/") + "/" + filename)
	if err == nil {
		l.logFile = f
	}

	return l
}

func ts() string {
	t := time.Now()
	return fmt.Sprintf(
		"%.4d/%.2d/%.2d %.2d:%.2d:%.2d",
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
	)
}

func fts() string {
	t := time.Now()
	return fmt.Sprintf(
		"%.4d%.2d%.2d%.2d%.2d%.2d",
		t.Year(), t.Month(), t.Day(),
		t.Hour(), t.Minute(), t.Second(),
	)
}

// emit is a no-op on a nil Logger so callers may leave logging unset.
func (l *Logger) emit(level Level, line string) {
	if l == nil || level < MinLevel {
		return
	}

	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile != nil {
		l.logFile.WriteString(line)
	}

	if ECHO {
		io.WriteString(stderr, line)
	}
}

func (l *Logger) llogf(level Level, format string, designator string, v ...interface{}) {
	l.emit(level, ts()+" "+designator+" :: "+fmt.Sprintf(format, v...))
}

func (l *Logger) llog(level Level, designator string, v ...interface{}) {
	line := ts() + " " + designator + " ::"
	for _, vv := range v {
		line += fmt.Sprintf(" %v", vv)
	}
	l.emit(level, line)
}

func (l *Logger) Logf(format string, v ...interface{}) {
	l.llogf(LevelInfo, format, "INFO ", v...)
}

func (l *Logger) Log(v ...interface{}) {
	l.llog(LevelInfo, "INFO ", v...)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.llogf(LevelError, format, "ERROR", v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.llog(LevelError, "ERROR", v...)
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.llogf(LevelDebug, format, "DEBUG", v...)
}

func (l *Logger) Debug(v ...interface{}) {
	l.llog(LevelDebug, "DEBUG", v...)
}

// Fatalf logs at error level and exits with status 1.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.llogf(LevelError, format, "FATAL", v...)
	os.Exit(1)
}
