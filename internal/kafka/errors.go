package kafka

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// FetchError reports that the offsets of one cluster could not be fetched.
type FetchError struct {
	Cluster  string
	Op       string // exec, read
	ExitCode int    // -1 when the tool did not run to completion
	Stderr   string
	Err      error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch offsets from %s: %s", e.Cluster, e.Op)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " (exit code %d)", e.ExitCode)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Canceled reports whether the fetch stopped because its context ended.
func (e *FetchError) Canceled() bool {
	return errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded)
}

// IsFetchError reports whether err wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
