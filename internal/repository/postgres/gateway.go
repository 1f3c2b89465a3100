// Package postgres implements the sync gateway against the remote
// tabular store. Reads fold flat rows into the per-contact collections the
// stores work with; writes are explicit replace-all operations (delete
// everything for the entity kind, reinsert the current state) executed
// inside a single transaction so a concurrent reader never observes the
// delete/insert window.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

const (
	// loadChunkSize is the page size used when scanning the flat contact
	// list; a short page signals end-of-data.
	loadChunkSize = 1000
	// insertChunkSize bounds a single bulk insert for the contact list to
	// respect payload limits.
	insertChunkSize = 500
)

// Gateway is the Postgres-backed sync gateway for the five entity kinds.
type Gateway struct {
	db *sql.DB
}

// New creates a gateway over an open database handle.
func New(db *sql.DB) *Gateway { return &Gateway{db: db} }

// replaceAll runs the delete-then-insert protocol for one entity kind
// inside a transaction. The insert callback receives the transaction and
// is free to issue several chunked statements.
func (g *Gateway) replaceAll(ctx context.Context, table string, insert func(tx *sql.Tx) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := insert(tx); err != nil {
		return fmt.Errorf("refill %s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace %s: %w", table, err)
	}
	return nil
}

// placeholders builds the VALUES placeholder list for a multi-row insert:
// ($1,$2),($3,$4),...
func placeholders(rows, cols int) string {
	var b strings.Builder
	n := 1
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for c := 0; c < cols; c++ {
			if c > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", n)
			n++
		}
		b.WriteByte(')')
	}
	return b.String()
}

// sortedKeys returns the map's contact ids in ascending order so bulk
// inserts are deterministic.
func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
