package offsets

// Key identifies a single committed offset within a cluster.
type Key struct {
	Group     string
	Topic     string
	Partition int32
}

type groupTopic struct {
	group string
	topic string
}

// Table holds the committed offsets of one cluster keyed by
// (group, topic, partition). It also remembers the order in which groups,
// topics and partitions were first seen so traversal is deterministic.
//
// A Table is only mutated by the parser; callers get a read-only view.
type Table struct {
	offsets    map[Key]int64
	groups     []string
	topics     map[string][]string
	partitions map[groupTopic][]int32
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{
		offsets:    make(map[Key]int64),
		topics:     make(map[string][]string),
		partitions: make(map[groupTopic][]int32),
	}
}

// set stores an offset. A key that is already present keeps its position
// and takes the new value.
func (t *Table) set(key Key, offset int64) {
	if _, exists := t.offsets[key]; !exists {
		gt := groupTopic{group: key.Group, topic: key.Topic}
		if _, ok := t.partitions[gt]; !ok {
			if _, ok := t.topics[key.Group]; !ok {
				t.groups = append(t.groups, key.Group)
			}
			t.topics[key.Group] = append(t.topics[key.Group], key.Topic)
		}
		t.partitions[gt] = append(t.partitions[gt], key.Partition)
	}
	t.offsets[key] = offset
}

// Offset returns the committed offset for key.
func (t *Table) Offset(key Key) (int64, bool) {
	if t == nil {
		return 0, false
	}
	offset, ok := t.offsets[key]
	return offset, ok
}

// HasGroup reports whether any offset is recorded for group.
func (t *Table) HasGroup(group string) bool {
	if t == nil {
		return false
	}
	_, ok := t.topics[group]
	return ok
}

// HasTopic reports whether any offset is recorded for topic within group.
func (t *Table) HasTopic(group, topic string) bool {
	if t == nil {
		return false
	}
	_, ok := t.partitions[groupTopic{group: group, topic: topic}]
	return ok
}

// Groups returns the group ids in first-seen order.
func (t *Table) Groups() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.groups...)
}

// Topics returns the topics of group in first-seen order.
func (t *Table) Topics(group string) []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.topics[group]...)
}

// Partitions returns the partitions of topic within group in first-seen order.
func (t *Table) Partitions(group, topic string) []int32 {
	if t == nil {
		return nil
	}
	return append([]int32(nil), t.partitions[groupTopic{group: group, topic: topic}]...)
}

// Len returns the number of (group, topic, partition) entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.offsets)
}

// Entries returns a copy of the flat offset map.
func (t *Table) Entries() map[Key]int64 {
	out := make(map[Key]int64, t.Len())
	if t == nil {
		return out
	}
	for key, offset := range t.offsets {
		out[key] = offset
	}
	return out
}
