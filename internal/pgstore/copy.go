package pgstore

import (
	"context"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"
)

// RawCopySink streams already-TSV-formatted bytes straight into
// `COPY <table> FROM STDIN` without parsing rows — the shape archive
// entries and replication-packet tar entries both arrive in (spec.md
// §4.C/§4.D: tar entries under mbdump/ are "PostgreSQL-COPY-format TSV
// ready for COPY … FROM STDIN").
type RawCopySink struct {
	tx pgx.Tx
}

// NewRawCopySink wraps an open transaction for bulk-COPY use.
func NewRawCopySink(tx pgx.Tx) *RawCopySink {
	return &RawCopySink{tx: tx}
}

// CopyInto streams r into "schema"."table" using the driver-level
// COPY FROM STDIN path (no intermediate row decoding).
func (s *RawCopySink) CopyInto(ctx context.Context, schema, table string, r io.Reader) (int64, error) {
	sql := fmt.Sprintf(`COPY "%s"."%s" FROM STDIN`, schema, table)
	n, err := s.tx.Conn().PgConn().CopyFrom(ctx, r, sql)
	if err != nil {
		return 0, fmt.Errorf("copy into %s.%s: %w", schema, table, err)
	}
	return n.RowsAffected(), nil
}
