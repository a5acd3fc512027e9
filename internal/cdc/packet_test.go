package cdc

import (
	"errors"
	"testing"
)

func TestParseSequenceMarker(t *testing.T) {
	n, err := ParseSequenceMarker(" 43\n")
	if err != nil {
		t.Fatalf("ParseSequenceMarker: %v", err)
	}
	if n != 43 {
		t.Errorf("n = %d, want 43", n)
	}
}

func TestCheckReplicationSequence(t *testing.T) {
	if err := CheckReplicationSequence(43, 43); err != nil {
		t.Errorf("matching sequence should not error: %v", err)
	}
	if err := CheckReplicationSequence(44, 43); !errors.Is(err, ErrSequenceMismatch) {
		t.Errorf("mismatched sequence should be ErrSequenceMismatch, got %v", err)
	}
}

func TestCheckSchemaSequence(t *testing.T) {
	if err := CheckSchemaSequence(31, 31); err != nil {
		t.Errorf("matching schema should not error: %v", err)
	}
	if err := CheckSchemaSequence(30, 31); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("mismatched schema should be ErrSchemaMismatch, got %v", err)
	}
}

func TestParseTimestamp_NormalizesShortOffset(t *testing.T) {
	ts, err := ParseTimestamp("2024-05-01 12:00:00+02")
	if err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
	_, offset := ts.Zone()
	if offset != 2*3600 {
		t.Errorf("offset = %d seconds, want 7200", offset)
	}
}

func TestParseTimestamp_AlreadyLongOffset(t *testing.T) {
	if _, err := ParseTimestamp("2024-05-01 12:00:00+02:00"); err != nil {
		t.Fatalf("ParseTimestamp: %v", err)
	}
}
