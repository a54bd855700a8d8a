package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Init configures the process-wide default slog logger.
func Init(verbose bool) {
	_ = InitWithFormat(verbose, FormatText)
}

// InitWithFormat is Init with a selectable handler format.
func InitWithFormat(verbose bool, format string) error {
	handler, err := NewHandler(os.Stderr, verbose, format)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// NewHandler builds the handler used by Init.
func NewHandler(w io.Writer, verbose bool, format string) (slog.Handler, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	default:
		return nil, fmt.Errorf("invalid log format %q (expected text or json)", format)
	}
}
