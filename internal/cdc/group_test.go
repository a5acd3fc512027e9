package cdc

import "testing"

func TestOrderRows_ByXidThenSeqid(t *testing.T) {
	in := []PendingRow{
		{Xid: 2, Seqid: 1},
		{Xid: 1, Seqid: 2},
		{Xid: 1, Seqid: 1},
	}
	out := OrderRows(in)
	want := [][2]int64{{1, 1}, {1, 2}, {2, 1}}
	for i, w := range want {
		if out[i].Xid != w[0] || out[i].Seqid != w[1] {
			t.Fatalf("position %d = (xid=%d,seqid=%d), want (%d,%d)", i, out[i].Xid, out[i].Seqid, w[0], w[1])
		}
	}
}

func TestGroupByXid_PreservesAscendingOrder(t *testing.T) {
	ordered := OrderRows([]PendingRow{
		{Xid: 5, Seqid: 1},
		{Xid: 3, Seqid: 1},
		{Xid: 3, Seqid: 2},
	})
	groups := GroupByXid(ordered)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Xid != 3 || len(groups[0].Rows) != 2 {
		t.Errorf("group 0 = %+v", groups[0])
	}
	if groups[1].Xid != 5 || len(groups[1].Rows) != 1 {
		t.Errorf("group 1 = %+v", groups[1])
	}
}

func TestFilterScope_DropsSkippedRows(t *testing.T) {
	rows := []PendingRow{
		{Schema: "musicbrainz", Table: "artist"},
		{Schema: "cover_art_archive", Table: "cover_art"},
	}
	skip := func(schema, table string) bool { return schema != "musicbrainz" }
	out := FilterScope(rows, skip)
	if len(out) != 1 || out[0].Schema != "musicbrainz" {
		t.Errorf("FilterScope = %+v, want only musicbrainz rows", out)
	}
}
