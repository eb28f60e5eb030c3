package main

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger builds the CLI logger on w.
// --verbose enables debug output; --quiet keeps errors only.
func newLogger(w io.Writer, f commonFlags) *log.Logger {
	lg := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "mathtex",
	})
	switch {
	case f.quiet:
		lg.SetLevel(log.ErrorLevel)
	case f.verbose:
		lg.SetLevel(log.DebugLevel)
	default:
		lg.SetLevel(log.WarnLevel)
	}
	return lg
}
