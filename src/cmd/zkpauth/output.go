// FILE: zkpauth/src/cmd/zkpauth/output.go
package main

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Console output that respects quiet mode
type OutputHandler struct {
	quiet  bool
	mu     sync.RWMutex
	stdout io.Writer
	stderr io.Writer
}

var output *OutputHandler

// InitOutputHandler sets up the global output handler
func InitOutputHandler(quiet bool) {
	output = &OutputHandler{
		quiet:  quiet,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func (o *OutputHandler) Print(format string, args ...any) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.quiet {
		fmt.Fprintf(o.stdout, format, args...)
	}
}

func (o *OutputHandler) Error(format string, args ...any) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if !o.quiet {
		fmt.Fprintf(o.stderr, format, args...)
	}
}

// Print writes to stdout unless quiet
func Print(format string, args ...any) {
	if output != nil {
		output.Print(format, args...)
	}
}

// Error writes to stderr unless quiet
func Error(format string, args ...any) {
	if output != nil {
		output.Error(format, args...)
	}
}

// FatalError writes to stderr and exits
func FatalError(code int, format string, args ...any) {
	Error(format, args...)
	os.Exit(code)
}
