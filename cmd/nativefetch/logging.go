package main

import (
	"io"
	"log"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// newLogger returns a logger writing to w. verbosity 0 prints Info and
// errors; each step up enables one more V level.
func newLogger(w io.Writer, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.NewWithOptions(log.New(w, "", log.LstdFlags), stdr.Options{LogCaller: stdr.None}).
		WithName("nativefetch")
}
