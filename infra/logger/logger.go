package logger

import (
	"io"
	"strings"

	"github.com/rs/zerolog"

	corelogger "github.com/kilianp07/lineplan/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// Options controls how loggers created by New render their output.
type Options struct {
	Level  string `json:"level"`
	Format string `json:"format"` // console or json
	Output io.Writer
}

var defaults = Options{Level: "info", Format: "console"}

// Setup applies process-wide logging options. It is called once from the CLI
// after configuration has been loaded.
func Setup(o Options) {
	if o.Level == "" {
		o.Level = "info"
	}
	if o.Format == "" {
		o.Format = "console"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(o.Level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	defaults = o
}

// New returns a Logger tagged with the given component.
func New(component string) Logger {
	return NewZerologLogger(component, defaults)
}
