package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/alexisq/pastracker/internal/domain"
)

// LoadHistory fetches all outreach attempts and folds them into a map from
// contact id to its chronological entry list. A persisted legacy singular
// result code is normalized into the multi-select form here, once, so
// consumers never see it. Returns (nil, nil) when no rows exist.
func (g *Gateway) LoadHistory(ctx context.Context) (map[int][]domain.HistoryEntry, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT pas_id, fecha, resultados, resultado, nota, ts
		FROM pas_historial
		ORDER BY pas_id, pos
	`)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	result := make(map[int][]domain.HistoryEntry)
	for rows.Next() {
		var (
			pasID    int
			e        domain.HistoryEntry
			outcomes pq.StringArray
			legacy   sql.NullString
		)
		if err := rows.Scan(&pasID, &e.Date, &outcomes, &legacy, &e.Note, &e.TS); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		e.Outcomes = domain.NormalizeOutcomes(toOutcomes(outcomes), legacy.String)
		result[pasID] = append(result[pasID], e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// ReplaceHistory performs a full replace of the outreach history. Row
// order within a contact is the list order, recorded in pos.
func (g *Gateway) ReplaceHistory(ctx context.Context, history map[int][]domain.HistoryEntry) error {
	return g.replaceAll(ctx, "pas_historial", func(tx *sql.Tx) error {
		var args []interface{}
		var count int
		for _, pasID := range sortedKeys(history) {
			for pos, e := range history[pasID] {
				args = append(args, pasID, pos, e.Date, pq.Array(fromOutcomes(e.Outcomes)), e.Note, e.TS)
				count++
			}
		}
		if count == 0 {
			return nil
		}
		stmt := `INSERT INTO pas_historial (pas_id, pos, fecha, resultados, nota, ts) VALUES ` +
			placeholders(count, 6)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
}

func toOutcomes(arr pq.StringArray) []domain.Outcome {
	if len(arr) == 0 {
		return nil
	}
	out := make([]domain.Outcome, len(arr))
	for i, s := range arr {
		out[i] = domain.Outcome(s)
	}
	return out
}

func fromOutcomes(outcomes []domain.Outcome) []string {
	out := make([]string, len(outcomes))
	for i, o := range outcomes {
		out[i] = string(o)
	}
	return out
}
