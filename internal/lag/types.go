package lag

// Kind classifies a single difference between the two clusters.
type Kind string

const (
	KindOffsetsDiffer          Kind = "offsets_differ"
	KindMissingOnCluster2      Kind = "missing_on_cluster2"
	KindMissingOnCluster1Topic Kind = "missing_on_cluster1_topic"
	KindMissingOnCluster2Topic Kind = "missing_on_cluster2_topic"
	KindMissingOnCluster2Group Kind = "missing_on_cluster2_group"
)

// TopN is the size of the ranked lag list.
const TopN = 10

// NoPartition marks group and topic level records.
const NoPartition int32 = -1

// Record is one differing or missing observation.
type Record struct {
	Kind      Kind   `json:"kind"`
	Group     string `json:"group"`
	Topic     string `json:"topic,omitempty"`
	Partition int32  `json:"partition"`
	Offset1   *int64 `json:"cluster1_offset,omitempty"`
	Offset2   *int64 `json:"cluster2_offset,omitempty"`
	Lag       int64  `json:"lag,omitempty"`
}

// HasLag reports whether the record carries a lag magnitude.
func (r Record) HasLag() bool {
	return r.Kind == KindOffsetsDiffer
}

// HasPartition reports whether the record is partition level.
func (r Record) HasPartition() bool {
	return r.Partition != NoPartition
}

// Report is the result of comparing two clusters once.
type Report struct {
	Matching  int      `json:"matching"`
	Records   []Record `json:"records"`
	Differing int      `json:"differing"`
	TotalLag  int64    `json:"total_lag"`
	Top       []Record `json:"top"`
}

// AverageLag returns TotalLag / Differing, or 0 when nothing differs.
func (r *Report) AverageLag() float64 {
	if r == nil || r.Differing == 0 {
		return 0
	}
	return float64(r.TotalLag) / float64(r.Differing)
}

// AllMatching reports whether the comparison produced no records.
func (r *Report) AllMatching() bool {
	return r == nil || len(r.Records) == 0
}
