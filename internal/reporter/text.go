package reporter

import (
	"context"
	"fmt"
	"io"

	"github.com/ppiankov/lagdiff/internal/lag"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

// TextReporter writes the console report, either every record or the
// ranked summary.
type TextReporter struct {
	writer  io.Writer
	summary bool
	color   bool
}

// NewTextReporter creates a new text reporter
func NewTextReporter(w io.Writer, summary, color bool) *TextReporter {
	return &TextReporter{
		writer:  w,
		summary: summary,
		color:   color,
	}
}

// GenerateLag writes the report for one cycle.
func (r *TextReporter) GenerateLag(ctx context.Context, result *LagResult) error {
	var writeErr error
	writef := func(format string, args ...any) {
		if writeErr != nil {
			return
		}
		_, writeErr = fmt.Fprintf(r.writer, format, args...)
	}

	report := result.Report
	if report == nil {
		report = &lag.Report{}
	}

	if r.summary {
		if report.Differing == 0 {
			writef("\nNo groups have offset differences.\n")
			return writeErr
		}

		writef("\n%d groups have offset differences. The average lag is %.2f.\n", report.Differing, report.AverageLag())
		writef("\nTop %d topic partitions with maximum lag:\n", lag.TopN)
		for _, record := range report.Top {
			writef("Group: %s, Topic: %s, Partition: %d, Lag Difference: %d\n",
				record.Group, record.Topic, record.Partition, record.Lag)
		}
		return writeErr
	}

	if report.AllMatching() {
		writef("\nAll groups have matching offsets. Total matching groups: %d\n", report.Matching)
		return writeErr
	}

	writef("\nGroups with differing offsets between the clusters:\n")
	for _, record := range report.Records {
		writef("%s\n", r.paint(record.Kind, FormatRecord(record)))
	}

	return writeErr
}

func (r *TextReporter) paint(kind lag.Kind, line string) string {
	if !r.color {
		return line
	}
	if kind == lag.KindOffsetsDiffer {
		return ansiYellow + line + ansiReset
	}
	return ansiRed + line + ansiReset
}

// FormatRecord renders a record as a single console line.
func FormatRecord(record lag.Record) string {
	switch record.Kind {
	case lag.KindOffsetsDiffer:
		return fmt.Sprintf("Group: %s, Topic: %s, Partition: %d, Cluster 1 Offset: %s, Cluster 2 Offset: %s, Lag Difference: %d",
			record.Group, record.Topic, record.Partition,
			formatOffset(record.Offset1), formatOffset(record.Offset2), record.Lag)
	case lag.KindMissingOnCluster2:
		return fmt.Sprintf("Group: %s, Topic: %s, Partition: %d missing in Cluster 2", record.Group, record.Topic, record.Partition)
	case lag.KindMissingOnCluster2Topic:
		return fmt.Sprintf("Group: %s, Topic: %s missing in Cluster 2", record.Group, record.Topic)
	case lag.KindMissingOnCluster1Topic:
		return fmt.Sprintf("Group: %s, Topic: %s missing in Cluster 1", record.Group, record.Topic)
	case lag.KindMissingOnCluster2Group:
		return fmt.Sprintf("Group: %s missing in Cluster 2", record.Group)
	default:
		return fmt.Sprintf("Group: %s, Topic: %s, Partition: %d: %s", record.Group, record.Topic, record.Partition, record.Kind)
	}
}

func formatOffset(offset *int64) string {
	if offset == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *offset)
}
