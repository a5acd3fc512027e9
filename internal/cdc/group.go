package cdc

import "sort"

// OrderRows sorts rows by (xid, seqid) ascending — the application
// order spec.md §3 mandates.
func OrderRows(rows []PendingRow) []PendingRow {
	out := make([]PendingRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Xid != out[j].Xid {
			return out[i].Xid < out[j].Xid
		}
		return out[i].Seqid < out[j].Seqid
	})
	return out
}

// XidGroup is every row committed together under one upstream
// transaction, in seqid order.
type XidGroup struct {
	Xid  int64
	Rows []PendingRow
}

// GroupByXid groups already (xid,seqid)-ordered rows into per-xid
// groups, preserving ascending xid order (spec.md §4.D step 5, §5
// "Across xids: applied in ascending xid").
func GroupByXid(ordered []PendingRow) []XidGroup {
	var groups []XidGroup
	for _, r := range ordered {
		if len(groups) == 0 || groups[len(groups)-1].Xid != r.Xid {
			groups = append(groups, XidGroup{Xid: r.Xid})
		}
		g := &groups[len(groups)-1]
		g.Rows = append(g.Rows, r)
	}
	return groups
}

// FilterScope drops rows whose schema/table the Predicate rejects
// (spec.md §4.J: "after loading pending rows, drop those whose
// schema/table is out of scope before translation").
func FilterScope(rows []PendingRow, skip func(schema, table string) bool) []PendingRow {
	out := rows[:0:0]
	for _, r := range rows {
		if skip(r.Schema, r.Table) {
			continue
		}
		out = append(out, r)
	}
	return out
}
