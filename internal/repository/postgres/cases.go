package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/alexisq/pastracker/internal/domain"
)

// LoadCases fetches all cases and folds them into a map from referrer id
// to its ordered case list. Returns (nil, nil) when no rows exist.
func (g *Gateway) LoadCases(ctx context.Context) (map[int][]domain.Case, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT pas_id, caso_id, asegurado, estado, nota,
		       fecha_derivacion, fecha_contacto_asegurado, fecha_inicio_reclamo, fecha_ultimo_movimiento,
		       monto_ofrecimiento, monto_cobro_asegurado, monto_cobro_yo, monto_comision_pas,
		       recordatorio, notas_log
		FROM pas_casos
		ORDER BY pas_id, pos
	`)
	if err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}
	defer rows.Close()

	result := make(map[int][]domain.Case)
	for rows.Next() {
		var (
			pasID    int
			c        domain.Case
			status   string
			offer    sql.NullFloat64
			insured  sql.NullFloat64
			mine     sql.NullFloat64
			comm     sql.NullFloat64
			reminder sql.NullString
			noteLog  []byte
		)
		if err := rows.Scan(&pasID, &c.ID, &c.Insured, &status, &c.Note,
			&c.ReferralDate, &c.InsuredContactDate, &c.ClaimStartDate, &c.LastMovementDate,
			&offer, &insured, &mine, &comm, &reminder, &noteLog); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		c.Status = domain.CaseStatus(status)
		c.OfferAmount = floatPtr(offer)
		c.InsuredPayout = floatPtr(insured)
		c.MyFee = floatPtr(mine)
		c.PASCommission = floatPtr(comm)
		c.Reminder = reminder.String
		if len(noteLog) > 0 {
			if err := json.Unmarshal(noteLog, &c.NoteLog); err != nil {
				return nil, fmt.Errorf("decode case note log: %w", err)
			}
		}
		result[pasID] = append(result[pasID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load cases: %w", err)
	}
	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// ReplaceCases performs a full replace of the case ledger. Per-referrer
// list order is recorded in pos; the note log travels as JSON.
func (g *Gateway) ReplaceCases(ctx context.Context, cases map[int][]domain.Case) error {
	return g.replaceAll(ctx, "pas_casos", func(tx *sql.Tx) error {
		var args []interface{}
		var count int
		for _, pasID := range sortedKeys(cases) {
			for pos, c := range cases[pasID] {
				noteLog, err := json.Marshal(c.NoteLog)
				if err != nil {
					return fmt.Errorf("encode case note log: %w", err)
				}
				args = append(args, pasID, pos, c.ID, c.Insured, string(c.Status), c.Note,
					c.ReferralDate, c.InsuredContactDate, c.ClaimStartDate, c.LastMovementDate,
					nullFloat(c.OfferAmount), nullFloat(c.InsuredPayout), nullFloat(c.MyFee), nullFloat(c.PASCommission),
					nullString(c.Reminder), noteLog)
				count++
			}
		}
		if count == 0 {
			return nil
		}
		stmt := `INSERT INTO pas_casos (pas_id, pos, caso_id, asegurado, estado, nota, fecha_derivacion, fecha_contacto_asegurado, fecha_inicio_reclamo, fecha_ultimo_movimiento, monto_ofrecimiento, monto_cobro_asegurado, monto_cobro_yo, monto_comision_pas, recordatorio, notas_log) VALUES ` +
			placeholders(count, 16)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return fmt.Errorf("insert cases: %w", err)
		}
		return nil
	})
}
