package runner

import (
	"io"
	"os"

	"github.com/kingrea/ogc/internal/logging"
	"github.com/kingrea/ogc/internal/spec"
)

// Context carries the shared dependencies handed to every plugin factory.
type Context struct {
	Spec  *spec.Spec
	Log   logging.Logger
	Debug bool
	// WorkDir is the directory relative paths in plugin configs resolve against.
	WorkDir string
	Stdout  io.Writer
	Stderr  io.Writer
}

// NewContext builds a Context, defaulting the logger to a no-op sink.
func NewContext(s *spec.Spec, log logging.Logger, debug bool, workDir string) *Context {
	if log == nil {
		log = logging.Nop()
	}
	return &Context{
		Spec:    s,
		Log:     log,
		Debug:   debug,
		WorkDir: workDir,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Logger returns the context logger, never nil.
func (c *Context) Logger() logging.Logger {
	if c == nil || c.Log == nil {
		return logging.Nop()
	}
	return c.Log
}
