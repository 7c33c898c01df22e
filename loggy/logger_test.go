package loggy

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func withEcho(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	oldEcho, oldLevel, oldErr := ECHO, MinLevel, stderr
	ECHO, MinLevel, stderr = true, level, buf
	t.Cleanup(func() {
		ECHO, MinLevel, stderr = oldEcho, oldLevel, oldErr
	})
	return buf
}

func TestLevelFilter(t *testing.T) {
	buf := withEcho(t, LevelInfo)

	l := NewLogger(1, "test")
	l.Debugf("hidden %d", 1)
	l.Logf("shown %d", 2)
	l.Errorf("bad %s", "thing")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line leaked through: %q", out)
	}
	if !strings.Contains(out, "INFO  :: shown 2") {
		t.Errorf("missing info line: %q", out)
	}
	if !strings.Contains(out, "ERROR :: bad thing") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestGetReturnsSameLogger(t *testing.T) {
	if Get(7) != Get(7) {
		t.Fatalf("Get should cache loggers by id")
	}
	Close()
}

func TestNilLoggerIsQuiet(t *testing.T) {
	buf := withEcho(t, LevelDebug)

	var l *Logger
	l.Logf("nothing %d", 1)
	l.Debug("nothing")

	if buf.Len() != 0 {
		t.Fatalf("nil logger wrote %q", buf.String())
	}
}

func TestConcurrentLogging(t *testing.T) {
	buf := withEcho(t, LevelDebug)

	l := NewLogger(2, "test")
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Debug("worker", i, j)
			}
		}(i)
	}
	wg.Wait()

	if n := strings.Count(buf.String(), "\n"); n != 400 {
		t.Fatalf("expected 400 lines, got %d", n)
	}
}
