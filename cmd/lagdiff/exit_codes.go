package main

import (
	"errors"
	"os"
	"os/exec"
	"strings"

	"github.com/ppiankov/lagdiff/internal/kafka"
)

// Process exit codes.
const (
	ExitSuccess    = 0
	ExitInternal   = 1
	ExitInvalidArg = 2
	ExitNotFound   = 3
	ExitNetwork    = 4
)

// classifyError maps a command error to an exit code.
func classifyError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
		return ExitNotFound
	}
	if kafka.IsFetchError(err) {
		return ExitNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "not a directory"),
		strings.Contains(msg, "does not exist"),
		strings.Contains(msg, "no such file"):
		return ExitNotFound
	case strings.Contains(msg, "dial"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "i/o timeout"),
		strings.Contains(msg, "network is unreachable"):
		return ExitNetwork
	case strings.Contains(msg, "required"),
		strings.Contains(msg, "invalid"),
		strings.Contains(msg, "must be"),
		strings.Contains(msg, "must not"),
		strings.Contains(msg, "expected"),
		strings.Contains(msg, "unknown flag"),
		strings.Contains(msg, "unknown command"):
		return ExitInvalidArg
	}

	return ExitInternal
}
