package reporter

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/ppiankov/lagdiff/internal/lag"
)

// highLagThreshold is the lag from which a differing offset is reported
// with high severity.
const highLagThreshold = 1000

// SpectreHubEnvelope is the spectre/v1 cross-tool ingestion format.
type SpectreHubEnvelope struct {
	Schema    string              `json:"schema"`
	Tool      string              `json:"tool"`
	Version   string              `json:"version"`
	Timestamp string              `json:"timestamp"`
	Target    SpectreHubTarget    `json:"target"`
	Findings  []SpectreHubFinding `json:"findings"`
	Summary   SpectreHubSummary   `json:"summary"`
}

// SpectreHubTarget describes the compared clusters.
type SpectreHubTarget struct {
	Type     string `json:"type"`
	URIHash  string `json:"uri_hash"`
	PeerHash string `json:"peer_uri_hash,omitempty"`
}

// SpectreHubFinding is a single finding in the spectre/v1 format.
type SpectreHubFinding struct {
	ID       string         `json:"id"`
	Severity string         `json:"severity"`
	Location string         `json:"location"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// SpectreHubSummary counts findings by severity.
type SpectreHubSummary struct {
	Total  int `json:"total"`
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Info   int `json:"info"`
}

// HashBootstrap produces a sha256 hash of a Kafka bootstrap server address.
func HashBootstrap(bootstrap string) string {
	normalized := strings.TrimSpace(bootstrap)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("sha256:%x", h)
}

// SpectreHubReporter writes output in the spectre/v1 envelope format.
type SpectreHubReporter struct {
	writer io.Writer
}

// NewSpectreHubReporter creates a SpectreHub reporter.
func NewSpectreHubReporter(w io.Writer) *SpectreHubReporter {
	return &SpectreHubReporter{writer: w}
}

// GenerateLag emits every record of the cycle as a spectre/v1 finding.
func (r *SpectreHubReporter) GenerateLag(_ context.Context, result *LagResult) error {
	envelope := SpectreHubEnvelope{
		Schema:    "spectre/v1",
		Tool:      result.Tool,
		Version:   result.Version,
		Timestamp: result.Timestamp,
		Target: SpectreHubTarget{
			Type:     "kafka",
			URIHash:  HashBootstrap(result.Cluster1),
			PeerHash: HashBootstrap(result.Cluster2),
		},
		Findings: []SpectreHubFinding{},
	}

	var records []lag.Record
	if result.Report != nil {
		records = result.Report.Records
	}

	envelope.Findings = lo.Map(records, func(record lag.Record, _ int) SpectreHubFinding {
		severity := severityFor(record)
		countSeverity(&envelope.Summary, severity)
		return SpectreHubFinding{
			ID:       strings.ToUpper(string(record.Kind)),
			Severity: severity,
			Location: location(record),
			Message:  FormatRecord(record),
			Metadata: findingMetadata(record),
		}
	})
	envelope.Summary.Total = len(envelope.Findings)

	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(envelope)
}

func severityFor(record lag.Record) string {
	switch record.Kind {
	case lag.KindOffsetsDiffer:
		if record.Lag >= highLagThreshold {
			return "high"
		}
		return "medium"
	case lag.KindMissingOnCluster2Group, lag.KindMissingOnCluster2Topic, lag.KindMissingOnCluster1Topic:
		return "medium"
	case lag.KindMissingOnCluster2:
		return "low"
	default:
		return "info"
	}
}

func location(record lag.Record) string {
	parts := []string{record.Group}
	if record.Topic != "" {
		parts = append(parts, record.Topic)
	}
	if record.HasPartition() {
		parts = append(parts, fmt.Sprintf("%d", record.Partition))
	}
	return strings.Join(parts, "/")
}

func findingMetadata(record lag.Record) map[string]any {
	if !record.HasLag() {
		return nil
	}
	return map[string]any{
		"cluster1_offset": *record.Offset1,
		"cluster2_offset": *record.Offset2,
		"lag":             record.Lag,
	}
}

func countSeverity(s *SpectreHubSummary, severity string) {
	switch severity {
	case "high":
		s.High++
	case "medium":
		s.Medium++
	case "low":
		s.Low++
	case "info":
		s.Info++
	}
}
