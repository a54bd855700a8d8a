package offsets

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	// HeaderMarker is the first column of the header line printed by
	// kafka-consumer-groups.
	HeaderMarker = "GROUP"
	// Placeholder is printed in the offset column when a group has no
	// committed offset for a partition.
	Placeholder = "-"

	minColumns = 5
)

// Stats counts what the parser did with the input lines.
type Stats struct {
	Rows         int // rows stored in the table
	Skipped      int // rows rejected by numeric validation
	Placeholders int // rows without a committed offset
	Ignored      int // blank, header and short lines
}

// Parse converts a kafka-consumer-groups --describe listing into a Table.
// It never fails: lines that cannot be parsed are logged and skipped.
func Parse(raw string) *Table {
	table, _ := ParseWithStats(raw)
	return table
}

// ParseWithStats is Parse plus line accounting.
func ParseWithStats(raw string) (*Table, Stats) {
	table := NewTable()
	var stats Stats

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		fields := strings.Fields(line)
		if len(fields) == 0 || fields[0] == HeaderMarker {
			stats.Ignored++
			continue
		}
		if len(fields) < minColumns {
			stats.Ignored++
			continue
		}

		key, offset, placeholder, err := parseRow(fields)
		if err != nil {
			slog.Warn("skipping unparseable offset row", "line", line, "error", err)
			stats.Skipped++
			continue
		}
		if placeholder {
			stats.Placeholders++
			continue
		}

		table.set(key, offset)
		stats.Rows++
	}

	return table, stats
}

func parseRow(fields []string) (Key, int64, bool, error) {
	partition, err := strconv.ParseUint(fields[2], 10, 31)
	if err != nil {
		return Key{}, 0, false, fmt.Errorf("parse partition %q: %w", fields[2], err)
	}

	key := Key{
		Group:     fields[0],
		Topic:     fields[1],
		Partition: int32(partition),
	}

	if fields[3] == Placeholder {
		return key, 0, true, nil
	}

	offset, err := strconv.ParseUint(fields[3], 10, 63)
	if err != nil {
		return Key{}, 0, false, fmt.Errorf("parse current offset %q: %w", fields[3], err)
	}

	return key, int64(offset), false, nil
}
