package replctl

import (
	"errors"
	"testing"
)

func i32(n int32) *int32 { return &n }

func TestNextReplicationSequence(t *testing.T) {
	c := Cursor{CurrentReplicationSequence: i32(42)}
	next, err := c.NextReplicationSequence()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != 43 {
		t.Errorf("next = %d, want 43", next)
	}
}

func TestNextReplicationSequence_Unset(t *testing.T) {
	c := Cursor{}
	if _, err := c.NextReplicationSequence(); !errors.Is(err, ErrNoCursor) {
		t.Fatalf("err = %v, want ErrNoCursor", err)
	}
}

func TestSchemaSequenceMatch(t *testing.T) {
	c := Cursor{CurrentSchemaSequence: i32(31)}
	if !c.SchemaSequenceMatch(31) {
		t.Error("31 should match")
	}
	if c.SchemaSequenceMatch(30) {
		t.Error("30 should not match")
	}
	if (Cursor{}).SchemaSequenceMatch(0) {
		t.Error("unset cursor should never match")
	}
}

func TestNextReplicationPacketURL(t *testing.T) {
	got := NextReplicationPacketURL("http://example.org", "tok", 43)
	want := "http://example.org/replication-43-v2.tar.bz2?token=tok"
	if got != want {
		t.Errorf("url = %q, want %q", got, want)
	}
}
