package cdc

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrSchemaMismatch means a packet's SCHEMA_SEQUENCE disagrees with the
// local cursor — fatal, the operator must upgrade or reset (spec.md §7).
var ErrSchemaMismatch = fmt.Errorf("cdc: schema sequence mismatch")

// ErrSequenceMismatch means a packet's REPLICATION_SEQUENCE is not the
// expected next sequence — fatal.
var ErrSequenceMismatch = fmt.Errorf("cdc: replication sequence mismatch")

// ParseSequenceMarker parses a REPLICATION_SEQUENCE or SCHEMA_SEQUENCE
// tar entry's contents.
func ParseSequenceMarker(contents string) (int32, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(contents), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("cdc: parse sequence marker %q: %w", contents, err)
	}
	return int32(n), nil
}

// CheckReplicationSequence enforces spec.md §3's packet invariant:
// REPLICATION_SEQUENCE must equal cursor.current_replication_sequence+1.
func CheckReplicationSequence(got, want int32) error {
	if got != want {
		return fmt.Errorf("%w: packet has %d, expected %d", ErrSequenceMismatch, got, want)
	}
	return nil
}

// CheckSchemaSequence enforces SCHEMA_SEQUENCE must equal the cursor's
// current schema sequence.
func CheckSchemaSequence(got, want int32) error {
	if got != want {
		return fmt.Errorf("%w: packet has %d, expected %d", ErrSchemaMismatch, got, want)
	}
	return nil
}

// ParseTimestamp parses the TIMESTAMP entry's ISO-8601 content,
// normalizing a ±HH-only offset to ±HH:MM (spec.md §4.D step 4).
func ParseTimestamp(contents string) (time.Time, error) {
	s := normalizeOffset(strings.TrimSpace(contents))
	layouts := []string{
		"2006-01-02 15:04:05.999999-07:00",
		"2006-01-02T15:04:05.999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02T15:04:05-07:00",
	}
	var lastErr error
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, fmt.Errorf("cdc: parse timestamp %q: %w", contents, lastErr)
}

// normalizeOffset turns a trailing "+02" / "-05" offset into "+02:00"
// / "-05:00" so time.Parse's RFC3339-style layouts accept it.
func normalizeOffset(s string) string {
	if len(s) < 3 {
		return s
	}
	sign := s[len(s)-3]
	if sign != '+' && sign != '-' {
		return s
	}
	rest := s[len(s)-2:]
	if _, err := strconv.Atoi(rest); err != nil {
		return s
	}
	return s + ":00"
}
