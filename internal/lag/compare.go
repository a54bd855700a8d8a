package lag

import (
	"sort"

	"github.com/ppiankov/lagdiff/internal/offsets"
)

// Compare reports what cluster 1 (a) has that cluster 2 (b) lacks or
// disagrees on. Entries that exist only in b are never visited.
// Neither table is modified.
func Compare(a, b *offsets.Table) *Report {
	report := &Report{
		Records: make([]Record, 0),
		Top:     make([]Record, 0),
	}
	candidates := make([]Record, 0)

	for _, group := range a.Groups() {
		if !b.HasGroup(group) {
			report.Records = append(report.Records, Record{
				Kind:      KindMissingOnCluster2Group,
				Group:     group,
				Partition: NoPartition,
			})
			continue
		}

		for _, topic := range a.Topics(group) {
			if !b.HasTopic(group, topic) {
				report.Records = append(report.Records, Record{
					Kind:      KindMissingOnCluster2Topic,
					Group:     group,
					Topic:     topic,
					Partition: NoPartition,
				})
				continue
			}

			for _, partition := range a.Partitions(group, topic) {
				key := offsets.Key{Group: group, Topic: topic, Partition: partition}
				offset1, _ := a.Offset(key)
				offset2, ok := b.Offset(key)

				switch {
				case !ok:
					report.Records = append(report.Records, Record{
						Kind:      KindMissingOnCluster2,
						Group:     group,
						Topic:     topic,
						Partition: partition,
					})
				case offset1 == offset2:
					report.Matching++
				default:
					record := Record{
						Kind:      KindOffsetsDiffer,
						Group:     group,
						Topic:     topic,
						Partition: partition,
						Offset1:   int64Ptr(offset1),
						Offset2:   int64Ptr(offset2),
						Lag:       magnitude(offset1, offset2),
					}
					report.Records = append(report.Records, record)
					report.Differing++
					report.TotalLag += record.Lag
					candidates = append(candidates, record)
				}
			}
		}
	}

	report.Top = rank(candidates, TopN)

	return report
}

// rank orders records by lag, largest first, keeping encounter order for
// ties, and returns at most limit of them.
func rank(records []Record, limit int) []Record {
	ranked := make([]Record, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Lag > ranked[j].Lag
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func magnitude(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}

func int64Ptr(v int64) *int64 {
	return &v
}
