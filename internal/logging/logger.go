package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the leveled sink handed to the resolver and to every runner.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// Level names accepted in settings and flags.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

func (l Level) charm() charmlog.Level {
	switch Level(strings.ToLower(strings.TrimSpace(string(l)))) {
	case DebugLevel:
		return charmlog.DebugLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// Options configures New.
type Options struct {
	Level  Level
	Output io.Writer
	// File, when set, receives a plain-text copy of every entry so failures
	// can be inspected after the terminal is gone.
	File string
	JSON bool
}

// Console writes leveled entries to the terminal and, optionally, a log file.
type Console struct {
	sinks []*charmlog.Logger
	file  *os.File
}

// New builds a Console. Output defaults to stderr.
func New(opts Options) (*Console, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	level := opts.Level.charm()
	console := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: level == charmlog.DebugLevel,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	if opts.JSON {
		console.SetFormatter(charmlog.JSONFormatter)
	}
	c := &Console{sinks: []*charmlog.Logger{console}}
	if path := strings.TrimSpace(opts.File); path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		c.file = f
		c.sinks = append(c.sinks, charmlog.NewWithOptions(f, charmlog.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Level:           charmlog.DebugLevel,
			Formatter:       charmlog.LogfmtFormatter,
		}))
	}
	return c, nil
}

// Close releases the log file handle.
func (c *Console) Close() error {
	if c == nil || c.file == nil {
		return nil
	}
	return c.file.Close()
}

// Debug logs msg at debug level to every sink.
func (c *Console) Debug(msg string, keyvals ...any) {
	for _, sink := range c.sinks {
		sink.Debug(msg, keyvals...)
	}
}

// Info logs msg at info level to every sink.
func (c *Console) Info(msg string, keyvals ...any) {
	for _, sink := range c.sinks {
		sink.Info(msg, keyvals...)
	}
}

// Warn logs msg at warn level to every sink.
func (c *Console) Warn(msg string, keyvals ...any) {
	for _, sink := range c.sinks {
		sink.Warn(msg, keyvals...)
	}
}

// Error logs msg at error level to every sink.
func (c *Console) Error(msg string, keyvals ...any) {
	for _, sink := range c.sinks {
		sink.Error(msg, keyvals...)
	}
}

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }
