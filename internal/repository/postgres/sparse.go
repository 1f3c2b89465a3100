package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Sparse-set entities: referrer flags and contact reminders only persist
// truthy/present values. "Unset" is represented by row absence, never by
// an explicit negative row.

// LoadReferrers returns the set of contacts flagged as referrers.
// Returns (nil, nil) when no rows exist.
func (g *Gateway) LoadReferrers(ctx context.Context) (map[int]bool, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT pas_id, activo FROM pas_derivadores`)
	if err != nil {
		return nil, fmt.Errorf("load referrers: %w", err)
	}
	defer rows.Close()

	result := make(map[int]bool)
	for rows.Next() {
		var (
			pasID  int
			active bool
		)
		if err := rows.Scan(&pasID, &active); err != nil {
			return nil, fmt.Errorf("scan referrer: %w", err)
		}
		result[pasID] = active
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load referrers: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// ReplaceReferrers performs a full replace of the referrer flag set,
// persisting only true entries.
func (g *Gateway) ReplaceReferrers(ctx context.Context, referrers map[int]bool) error {
	return g.replaceAll(ctx, "pas_derivadores", func(tx *sql.Tx) error {
		var args []interface{}
		var count int
		for _, pasID := range sortedKeys(referrers) {
			if !referrers[pasID] {
				continue
			}
			args = append(args, pasID, true)
			count++
		}
		if count == 0 {
			return nil
		}
		stmt := `INSERT INTO pas_derivadores (pas_id, activo) VALUES ` + placeholders(count, 2)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert referrers: %w", err)
		}
		return nil
	})
}

// LoadReminders returns the per-contact follow-up dates.
// Returns (nil, nil) when no rows exist.
func (g *Gateway) LoadReminders(ctx context.Context) (map[int]string, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT pas_id, fecha_recordatorio FROM pas_recordatorios`)
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	defer rows.Close()

	result := make(map[int]string)
	for rows.Next() {
		var (
			pasID int
			date  string
		)
		if err := rows.Scan(&pasID, &date); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		result[pasID] = date
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// ReplaceReminders performs a full replace of the reminder index,
// persisting only entries with a date set.
func (g *Gateway) ReplaceReminders(ctx context.Context, reminders map[int]string) error {
	return g.replaceAll(ctx, "pas_recordatorios", func(tx *sql.Tx) error {
		var args []interface{}
		var count int
		for _, pasID := range sortedKeys(reminders) {
			if reminders[pasID] == "" {
				continue
			}
			args = append(args, pasID, reminders[pasID])
			count++
		}
		if count == 0 {
			return nil
		}
		stmt := `INSERT INTO pas_recordatorios (pas_id, fecha_recordatorio) VALUES ` + placeholders(count, 2)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert reminders: %w", err)
		}
		return nil
	})
}
