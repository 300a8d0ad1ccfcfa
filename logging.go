// logging.go - structured logging for the reactor package.
//
// The reactor never logs at global/package scope: each Reactor takes a
// Logger via WithLogger (default NoOpLogger), since a process may host
// more than one reactor instance (one per OS thread, typically). The
// Logger interface and LogEntry shape mirror the teacher event loop's
// logging.go; LogifaceLogger additionally wires a real implementation
// of github.com/joeycumines/logiface, rather than leaving the
// pluggability merely aspirational.
package reactor

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joeycumines/logiface"
)

// LogLevel mirrors the severities the reactor reports at: accept
// failures, poller re-registration errors, dropped notifies, fatal
// dispatch violations.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", l)
	}
}

// LogEntry is the structured record passed to Logger.Log.
type LogEntry struct {
	Level     LogLevel
	Category  string // "accept", "read", "write", "notify", "timer", "dispatch", "poll", "shutdown"
	Token     Token
	Message   string
	Err       error
	Timestamp time.Time
}

// Logger is the structured logging interface a Reactor reports through.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// NoOpLogger discards everything; it is the default Logger.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (NoOpLogger) Log(LogEntry) {}

func (NoOpLogger) IsEnabled(LogLevel) bool { return false }

// DefaultLogger is a dependency-free Logger writing pretty text to an
// *os.File (os.Stderr by default). It mirrors the teacher's
// DefaultLogger for callers who don't want to pull in logiface.
type DefaultLogger struct {
	mu    sync.Mutex
	Out   *os.File
	level LogLevel
}

// NewDefaultLogger creates a DefaultLogger writing to os.Stderr.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{Out: os.Stderr, level: level}
}

func (l *DefaultLogger) IsEnabled(level LogLevel) bool { return level >= l.level }

func (l *DefaultLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.Out, "%s %s [%-10s] token=%d %s",
		entry.Timestamp.Format("15:04:05.000"), entry.Level, entry.Category, entry.Token, entry.Message)
	if entry.Err != nil {
		fmt.Fprintf(l.Out, " err=%v\n", entry.Err)
	} else {
		fmt.Fprintln(l.Out)
	}
}

// reactorEvent is the logiface.Event implementation backing LogifaceLogger.
type reactorEvent struct {
	logiface.UnimplementedEvent
	level   logiface.Level
	msg     string
	err     error
	fields  map[string]any
}

func (e *reactorEvent) Level() logiface.Level { return e.level }

func (e *reactorEvent) AddField(key string, val any) {
	if e.fields == nil {
		e.fields = make(map[string]any, 4)
	}
	e.fields[key] = val
}

func (e *reactorEvent) AddMessage(msg string) bool { e.msg = msg; return true }

func (e *reactorEvent) AddError(err error) bool { e.err = err; return true }

type reactorEventFactory struct{}

func (reactorEventFactory) NewEvent(level logiface.Level) *reactorEvent {
	return &reactorEvent{level: level}
}

// textWriter renders a reactorEvent as a single line on out.
type textWriter struct {
	mu  sync.Mutex
	out *os.File
}

func (w *textWriter) Write(e *reactorEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	fmt.Fprintf(w.out, "%s %s", time.Now().Format("15:04:05.000"), e.msg)
	for k, v := range e.fields {
		fmt.Fprintf(w.out, " %s=%v", k, v)
	}
	if e.err != nil {
		fmt.Fprintf(w.out, " err=%v", e.err)
	}
	fmt.Fprintln(w.out)
	return nil
}

// LogifaceLogger adapts a logiface.Logger[*reactorEvent] to the Logger
// interface, so a caller already standardized on logiface gets the
// same structured fan-out (zerolog/logrus/slog bridges, sampling,
// level gates) for the reactor's own diagnostics.
type LogifaceLogger struct {
	logger *logiface.Logger[*reactorEvent]
}

// NewLogifaceLogger builds a LogifaceLogger writing JSON-free text
// lines to out (os.Stderr if nil).
func NewLogifaceLogger(out *os.File) *LogifaceLogger {
	if out == nil {
		out = os.Stderr
	}
	l := logiface.New[*reactorEvent](
		logiface.WithEventFactory[*reactorEvent](reactorEventFactory{}),
		logiface.WithWriter[*reactorEvent](&textWriter{out: out}),
	)
	return &LogifaceLogger{logger: l}
}

func toLogifaceLevel(l LogLevel) logiface.Level {
	switch l {
	case LevelDebug:
		return logiface.LevelDebug
	case LevelInfo:
		return logiface.LevelInformational
	case LevelWarn:
		return logiface.LevelWarning
	case LevelError:
		return logiface.LevelError
	default:
		return logiface.LevelInformational
	}
}

func (l *LogifaceLogger) IsEnabled(level LogLevel) bool {
	return l.logger.Build(toLogifaceLevel(level)).Enabled()
}

func (l *LogifaceLogger) Log(entry LogEntry) {
	b := l.logger.Build(toLogifaceLevel(entry.Level))
	if !b.Enabled() {
		return
	}
	b = b.Str("category", entry.Category).Int("token", int(entry.Token))
	if entry.Err != nil {
		b = b.Err(entry.Err)
	}
	b.Log(entry.Message)
}
