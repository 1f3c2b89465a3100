package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/alexisq/pastracker/internal/domain"
)

// LoadContacts scans the flat contact list in fixed-size pages ordered by
// id, concatenating until a short page signals end-of-data. Returns
// (nil, nil) when the table holds zero rows so callers can distinguish
// "empty" from "not yet loaded".
func (g *Gateway) LoadContacts(ctx context.Context) ([]domain.Contact, error) {
	var all []domain.Contact
	for offset := 0; ; offset += loadChunkSize {
		page, err := g.loadContactPage(ctx, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < loadChunkSize {
			break
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func (g *Gateway) loadContactPage(ctx context.Context, offset int) ([]domain.Contact, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT pas_id, nombre, mail, telefonos, contacto, respuesta, seguimiento, prioridad
		FROM pas_lista
		ORDER BY pas_id
		LIMIT $1 OFFSET $2
	`, loadChunkSize, offset)
	if err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	defer rows.Close()

	var out []domain.Contact
	for rows.Next() {
		var (
			c      domain.Contact
			phones pq.StringArray
			prio   string
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.Mail, &phones, &c.ContactInfo, &c.PriorReply, &c.FollowUp, &prio); err != nil {
			return nil, fmt.Errorf("scan contact: %w", err)
		}
		c.Phones = []string(phones)
		c.Priority = domain.Priority(prio)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	return out, nil
}

// ReplaceContacts performs a full replace of the contact registry,
// chunking the bulk insert for large lists.
func (g *Gateway) ReplaceContacts(ctx context.Context, contacts []domain.Contact) error {
	return g.replaceAll(ctx, "pas_lista", func(tx *sql.Tx) error {
		for start := 0; start < len(contacts); start += insertChunkSize {
			end := start + insertChunkSize
			if end > len(contacts) {
				end = len(contacts)
			}
			chunk := contacts[start:end]

			args := make([]interface{}, 0, len(chunk)*8)
			for _, c := range chunk {
				args = append(args, c.ID, c.Name, c.Mail, pq.Array(c.Phones),
					c.ContactInfo, c.PriorReply, c.FollowUp, string(c.Priority))
			}
			stmt := `INSERT INTO pas_lista (pas_id, nombre, mail, telefonos, contacto, respuesta, seguimiento, prioridad) VALUES ` +
				placeholders(len(chunk), 8)
			if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
				return fmt.Errorf("insert contacts: %w", err)
			}
		}
		return nil
	})
}
