// FILE: zkpauth/src/cmd/zkpauth-client/prompt.go
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

func promptLine(in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword reads without echo on a terminal, or a plain line otherwise.
func promptPassword(in *bufio.Reader, label string) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		return promptLine(in, label)
	}

	fmt.Fprint(os.Stderr, label)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}
