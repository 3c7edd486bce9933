// Package report carries operation log lines to the console, the TUI and the web panel.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"vculaunch/internal/model"
)

// Level classifies a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Line is a single timestamped log line.
type Line struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// IsError reports whether the line should be rendered as an error.
func (l Line) IsError() bool { return l.Level >= LevelError }

// Sink receives log lines. Implementations must not block for long:
// sinks are called synchronously from the operation emitting the line.
type Sink interface {
	Emit(Line)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Line)

func (f SinkFunc) Emit(l Line) { f(l) }

// Discard drops every line.
var Discard Sink = SinkFunc(func(Line) {})

// Stamp prefixes msg with [HH:MM:SS] unless it already carries a bracketed prefix.
func Stamp(now time.Time, msg string) string {
	if strings.HasPrefix(msg, "[") {
		return msg
	}
	return fmt.Sprintf("[%s] %s", now.Format("15:04:05"), msg)
}

// Logger stamps messages and fans them out to its sinks.
type Logger struct {
	sinks []Sink
	debug bool
	now   func() time.Time
}

// New creates a Logger writing to the given sinks.
func New(debug bool, sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, debug: debug, now: time.Now}
}

// With returns a Logger that additionally writes to extra.
func (l *Logger) With(extra ...Sink) *Logger {
	sinks := make([]Sink, 0, len(l.sinks)+len(extra))
	sinks = append(sinks, l.sinks...)
	sinks = append(sinks, extra...)
	return &Logger{sinks: sinks, debug: l.debug, now: l.now}
}

func (l *Logger) emit(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	if level == LevelDebug && !l.debug {
		return
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	line := Line{Level: level, Text: Stamp(l.now(), msg)}
	for _, s := range l.sinks {
		s.Emit(line)
	}
}

func (l *Logger) Debugf(format string, args ...any) { l.emit(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.emit(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.emit(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.emit(LevelError, format, args...) }

// Collector accumulates lines in memory. Safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	lines []Line
}

func (c *Collector) Emit(l Line) {
	c.mu.Lock()
	c.lines = append(c.lines, l)
	c.mu.Unlock()
}

// Lines returns a copy of everything collected so far.
func (c *Collector) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line(nil), c.lines...)
}

// Texts returns only the text of every collected line.
func (c *Collector) Texts() []string {
	lines := c.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // Orange
	debugStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Console writes info lines to out and warnings/errors to errOut.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
}

// NewConsole creates a console sink.
func NewConsole(out, errOut io.Writer) *Console {
	return &Console{out: out, errOut: errOut}
}

func (c *Console) Emit(l Line) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch l.Level {
	case LevelError:
		fmt.Fprintln(c.errOut, errorStyle.Render(model.IconError+" "+l.Text))
	case LevelWarn:
		fmt.Fprintln(c.errOut, warnStyle.Render(model.IconWarn+" "+l.Text))
	case LevelDebug:
		fmt.Fprintln(c.out, debugStyle.Render(model.IconDebug+" "+l.Text))
	default:
		fmt.Fprintln(c.out, l.Text)
	}
}
