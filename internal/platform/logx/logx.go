// internal/platform/logx/logx.go
package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// EnvLevel is the environment variable consulted by New.
const EnvLevel = "PAPERFLOW_LOG_LEVEL"

type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Err(err error, kv ...any)
	With(kv ...any) Logger
	SetLevel(lvl Level)
}

// core is shared by a logger and every scoped clone, so SetLevel on the root
// applies to all components.
type core struct {
	mu  sync.Mutex
	lvl Level
	lg  *log.Logger
}

type simpleLogger struct {
	c     *core
	scope []string // fixed key=value pairs
}

func New() Logger {
	return NewWithWriter(os.Stderr, ParseLevel(os.Getenv(EnvLevel)))
}

// NewWithLevel creates a stderr logger with a specific log level
func NewWithLevel(lvl Level) Logger {
	return NewWithWriter(os.Stderr, lvl)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, lvl Level) Logger {
	return &simpleLogger{
		c: &core{lvl: lvl, lg: log.New(w, "", 0)},
	}
}

// NewSilent creates a logger that only outputs errors (used under the terminal presenter)
func NewSilent() Logger {
	return NewWithLevel(LevelError)
}

func (s *simpleLogger) With(kv ...any) Logger {
	return &simpleLogger{
		c:     s.c,
		scope: append(append([]string{}, s.scope...), kvPairs(kv...)...),
	}
}

func (s *simpleLogger) SetLevel(lvl Level) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	s.c.lvl = lvl
}

func (s *simpleLogger) Debug(msg string, kv ...any) { s.log(LevelDebug, "DBG", msg, kv...) }
func (s *simpleLogger) Info(msg string, kv ...any)  { s.log(LevelInfo, "INF", msg, kv...) }
func (s *simpleLogger) Warn(msg string, kv ...any)  { s.log(LevelWarn, "WRN", msg, kv...) }
func (s *simpleLogger) Err(err error, kv ...any) {
	if err == nil {
		return
	}
	kv = append([]any{"error", err.Error()}, kv...)
	s.log(LevelError, "ERR", "", kv...)
}

func (s *simpleLogger) log(l Level, tag, msg string, kv ...any) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if l < s.c.lvl {
		return
	}
	ts := time.Now().Format("15:04:05.000")
	fields := append([]string{}, s.scope...)
	fields = append(fields, kvPairs(kv...)...)
	line := fmt.Sprintf("%s %s %s", ts, tag, msg)
	if len(strings.TrimSpace(msg)) == 0 {
		line = fmt.Sprintf("%s %s", ts, tag)
	}
	if len(fields) > 0 {
		line = fmt.Sprintf("%s %s", line, strings.Join(fields, " "))
	}
	s.c.lg.Println(line)
}

func kvPairs(kv ...any) []string {
	out := make([]string, 0, len(kv)/2+1)
	for i := 0; i < len(kv); i += 2 {
		k := kv[i]
		var v any = "(missing)"
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		out = append(out, fmt.Sprintf("%v=%s", k, quote(fmt.Sprint(v))))
	}
	return out
}

// quote wraps values containing spaces so lines stay key=value parseable.
func quote(v string) string {
	if strings.ContainsAny(v, " \t\"") {
		return fmt.Sprintf("%q", v)
	}
	return v
}

// ParseLevel maps a level name to a Level; unknown names fall back to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "dbg":
		return LevelDebug
	case "info", "inf", "":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "err", "error":
		return LevelError
	default:
		return LevelInfo
	}
}
