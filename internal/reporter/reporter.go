package reporter

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/lagdiff/internal/lag"
)

// Output formats.
const (
	FormatText       = "text"
	FormatJSON       = "json"
	FormatSARIF      = "sarif"
	FormatSpectreHub = "spectrehub"
)

// LagResult is one comparison cycle ready to be rendered.
type LagResult struct {
	Tool      string      `json:"tool"`
	Version   string      `json:"version"`
	Timestamp string      `json:"timestamp"`
	Cycle     int         `json:"cycle"`
	Cluster1  string      `json:"cluster1"`
	Cluster2  string      `json:"cluster2"`
	Report    *lag.Report `json:"report"`
}

// LagReporter renders comparison results.
type LagReporter interface {
	GenerateLag(ctx context.Context, result *LagResult) error
}

// Options control how results are rendered.
type Options struct {
	Summary bool
	Color   bool
	Pretty  bool
}

// New returns the reporter for format.
func New(format string, w io.Writer, opts Options) (LagReporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		return NewTextReporter(w, opts.Summary, opts.Color), nil
	case FormatJSON:
		return NewJSONReporter(w, opts.Pretty), nil
	case FormatSARIF:
		return NewSARIFReporter(w, opts.Pretty), nil
	case FormatSpectreHub:
		return NewSpectreHubReporter(w), nil
	default:
		return nil, fmt.Errorf("invalid output format %q (expected text, json, sarif, or spectrehub)", format)
	}
}
