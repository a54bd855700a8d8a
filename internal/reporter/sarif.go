package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/ppiankov/lagdiff/internal/lag"
)

const (
	sarifSchema  = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersion = "2.1.0"

	sarifToolName           = "lagdiff"
	sarifToolInformationURI = "https://github.com/ppiankov/lagdiff"
	sarifRulePrefix         = "lagdiff/"
)

// SARIFReporter writes comparison records in SARIF 2.1.0 format so drift
// can be uploaded to code-scanning dashboards.
type SARIFReporter struct {
	writer io.Writer
	pretty bool
}

// NewSARIFReporter creates a SARIF reporter.
func NewSARIFReporter(w io.Writer, pretty bool) *SARIFReporter {
	return &SARIFReporter{writer: w, pretty: pretty}
}

// GenerateLag emits one SARIF result per comparison record.
func (r *SARIFReporter) GenerateLag(_ context.Context, result *LagResult) error {
	return r.writeReport(sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []sarifRun{buildLagSARIFRun(result)},
	})
}

func (r *SARIFReporter) writeReport(report sarifReport) error {
	var (
		data []byte
		err  error
	)

	if r.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return err
	}

	if _, err := r.writer.Write(data); err != nil {
		return err
	}
	_, err = r.writer.Write([]byte("\n"))
	return err
}

func buildLagSARIFRun(result *LagResult) sarifRun {
	var records []lag.Record
	if result != nil && result.Report != nil {
		records = result.Report.Records
	}

	results := lo.Map(records, func(record lag.Record, _ int) sarifResult {
		entry := sarifResult{
			RuleID:  sarifRuleID(record.Kind),
			Level:   sarifLevel(severityFor(record)),
			Message: sarifMessage{Text: FormatRecord(record)},
			Locations: []sarifLocation{{
				LogicalLocations: []sarifLogicalLocation{{
					FullyQualifiedName: location(record),
					Kind:               logicalKind(record),
				}},
			}},
			PartialFingerprints: map[string]string{
				"recordKey": fmt.Sprintf("%s|%s", record.Kind, location(record)),
			},
			Properties: map[string]any{
				"group": record.Group,
			},
		}
		if record.Topic != "" {
			entry.Properties["topic"] = record.Topic
		}
		if record.HasPartition() {
			entry.Properties["partition"] = record.Partition
		}
		for k, v := range findingMetadata(record) {
			entry.Properties[k] = v
		}
		return entry
	})

	run := sarifRun{
		Tool: sarifTool{
			Driver: sarifDriver{
				Name:           sarifToolName,
				InformationURI: sarifToolInformationURI,
				Rules:          sarifRules(),
			},
		},
		Results: results,
	}
	if result != nil {
		run.Properties = map[string]any{
			"cycle":    result.Cycle,
			"cluster1": HashBootstrap(result.Cluster1),
			"cluster2": HashBootstrap(result.Cluster2),
		}
		if result.Report != nil {
			run.Properties["matching"] = result.Report.Matching
			run.Properties["average_lag"] = result.Report.AverageLag()
		}
	}

	return run
}

func sarifRuleID(kind lag.Kind) string {
	return sarifRulePrefix + string(kind)
}

func sarifLevel(severity string) string {
	switch severity {
	case "high":
		return "error"
	case "medium":
		return "warning"
	default:
		return "note"
	}
}

func logicalKind(record lag.Record) string {
	switch {
	case record.HasPartition():
		return "partition"
	case record.Topic != "":
		return "topic"
	default:
		return "consumerGroup"
	}
}

func sarifRules() []sarifRule {
	return []sarifRule{
		buildLagRule(lag.KindOffsetsDiffer, "OffsetsDiffer",
			"Committed offsets differ between the clusters",
			"The consumer group committed different offsets for this partition on the two clusters. Large differences point at replication lag or consumers running against only one cluster.",
			"warning"),
		buildLagRule(lag.KindMissingOnCluster2, "PartitionMissingOnCluster2",
			"Partition has no committed offset on cluster 2",
			"The consumer group committed an offset for this partition on cluster 1 only.",
			"note"),
		buildLagRule(lag.KindMissingOnCluster2Topic, "TopicMissingOnCluster2",
			"Topic has no committed offsets on cluster 2",
			"The consumer group consumes this topic on cluster 1 only.",
			"warning"),
		buildLagRule(lag.KindMissingOnCluster1Topic, "TopicMissingOnCluster1",
			"Topic has no committed offsets on cluster 1",
			"The consumer group consumes this topic on cluster 2 only.",
			"warning"),
		buildLagRule(lag.KindMissingOnCluster2Group, "GroupMissingOnCluster2",
			"Consumer group is unknown to cluster 2",
			"The consumer group has committed offsets on cluster 1 only.",
			"warning"),
	}
}

func buildLagRule(kind lag.Kind, name, short, full, level string) sarifRule {
	return sarifRule{
		ID:               sarifRuleID(kind),
		Name:             name,
		ShortDescription: &sarifMessage{Text: short},
		FullDescription:  &sarifMessage{Text: full},
		DefaultConfiguration: &sarifReportingConfiguration{
			Level: level,
		},
		Properties: map[string]any{
			"tags": []string{"kafka", "consumer-groups", "offsets"},
		},
	}
}

type sarifReport struct {
	Schema  string     `json:"$schema,omitempty"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules,omitempty"`
}

type sarifRule struct {
	ID                   string                       `json:"id"`
	Name                 string                       `json:"name,omitempty"`
	ShortDescription     *sarifMessage                `json:"shortDescription,omitempty"`
	FullDescription      *sarifMessage                `json:"fullDescription,omitempty"`
	DefaultConfiguration *sarifReportingConfiguration `json:"defaultConfiguration,omitempty"`
	Properties           map[string]any               `json:"properties,omitempty"`
}

type sarifReportingConfiguration struct {
	Level string `json:"level,omitempty"`
}

type sarifResult struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level,omitempty"`
	Message             sarifMessage      `json:"message"`
	Locations           []sarifLocation   `json:"locations,omitempty"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
	Properties          map[string]any    `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	LogicalLocations []sarifLogicalLocation `json:"logicalLocations"`
}

type sarifLogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
	Kind               string `json:"kind,omitempty"`
}
