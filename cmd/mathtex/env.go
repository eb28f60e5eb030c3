package main

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-mathtex"
)

// Environment holds injectable dependencies for testability.
// Options are appended after the ones built from configuration.
type Environment struct {
	Now     func() time.Time
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Options []mathtex.Option
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}
