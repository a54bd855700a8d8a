package reporter

import (
	"context"
	"encoding/json"
	"io"

	"github.com/samber/lo"

	"github.com/ppiankov/lagdiff/internal/lag"
)

// JSONReporter writes one JSON document per cycle.
type JSONReporter struct {
	writer io.Writer
	pretty bool
}

// NewJSONReporter creates a new JSON reporter
func NewJSONReporter(w io.Writer, pretty bool) *JSONReporter {
	return &JSONReporter{
		writer: w,
		pretty: pretty,
	}
}

// JSONOutput is the document written for each cycle.
type JSONOutput struct {
	*LagResult
	AverageLag float64          `json:"average_lag"`
	Counts     map[lag.Kind]int `json:"counts"`
}

// GenerateLag produces a JSON report
func (r *JSONReporter) GenerateLag(ctx context.Context, result *LagResult) error {
	output := &JSONOutput{
		LagResult:  result,
		AverageLag: result.Report.AverageLag(),
		Counts:     map[lag.Kind]int{},
	}
	if result.Report != nil {
		output.Counts = countKinds(result.Report.Records)
	}

	var data []byte
	var err error

	if r.pretty {
		data, err = json.MarshalIndent(output, "", "  ")
	} else {
		data, err = json.Marshal(output)
	}

	if err != nil {
		return err
	}

	_, err = r.writer.Write(data)
	if err != nil {
		return err
	}

	// Add newline at the end
	_, err = r.writer.Write([]byte("\n"))
	return err
}

func countKinds(records []lag.Record) map[lag.Kind]int {
	byKind := lo.GroupBy(records, func(record lag.Record) lag.Kind {
		return record.Kind
	})
	return lo.MapValues(byKind, func(group []lag.Record, _ lag.Kind) int {
		return len(group)
	})
}
