package pgstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TableHasRows reports whether schema.table already has at least one
// row — the resumability guard for the bulk loader (spec.md §4.C step 4b).
func TableHasRows(ctx context.Context, tx pgx.Tx, schema, table string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM "%s"."%s" LIMIT 1)`, schema, table)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s.%s has rows: %w", schema, table, err)
	}
	return exists, nil
}

// TableExists reports whether schema.table is a known relation.
func TableExists(ctx context.Context, tx pgx.Tx, schema, table string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = $1 AND table_name = $2)`, schema, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s.%s exists: %w", schema, table, err)
	}
	return exists, nil
}

// SetUnlogged switches schema.table to UNLOGGED — faster bulk load,
// safe because a failed load step simply repeats (spec.md §4.C
// rationale).
func SetUnlogged(ctx context.Context, tx pgx.Tx, schema, table string) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(`ALTER TABLE "%s"."%s" SET UNLOGGED`, schema, table))
	return err
}

// SetLogged restores schema.table to LOGGED after a bulk load completes.
func SetLogged(ctx context.Context, tx pgx.Tx, schema, table string) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(`ALTER TABLE "%s"."%s" SET LOGGED`, schema, table))
	return err
}

// CreateSchemaIfNotExists runs an idempotent CREATE SCHEMA.
func CreateSchemaIfNotExists(ctx context.Context, tx pgx.Tx, schema string) error {
	_, err := tx.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, schema))
	return err
}
