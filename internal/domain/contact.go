package domain

import (
	"regexp"
	"strings"
)

// Priority classifies a contact by how actionable its phone data is.
type Priority string

const (
	// PriorityAgendado: exactly one phone number, ready to message.
	PriorityAgendado Priority = "agendado"
	// PriorityMulti: more than one candidate number, needs triage.
	PriorityMulti Priority = "multi"
	// PrioritySinTel: no usable phone number at all.
	PrioritySinTel Priority = "sin_tel"
)

// PriorityAll is the pseudo-view that matches every contact. It is a
// filter value, never stored on a contact.
const PriorityAll = "todos"

// PriorityFor derives the priority class from the number of extracted
// phone numbers. It is the only way a priority is ever assigned.
func PriorityFor(phoneCount int) Priority {
	switch {
	case phoneCount == 1:
		return PriorityAgendado
	case phoneCount > 1:
		return PriorityMulti
	default:
		return PrioritySinTel
	}
}

// Contact is an outreach target (PAS, an insurance producer). Contacts are
// created at import time and immutable afterwards; a re-import fully
// replaces the registry.
type Contact struct {
	ID          int      `json:"id" db:"pas_id"`
	Name        string   `json:"nombre" db:"nombre"`
	Mail        string   `json:"mail" db:"mail"`
	Phones      []string `json:"telefonos" db:"telefonos"`
	ContactInfo string   `json:"contacto" db:"contacto"`
	PriorReply  string   `json:"respuesta" db:"respuesta"`
	FollowUp    string   `json:"seguimiento" db:"seguimiento"`
	Priority    Priority `json:"prioridad" db:"prioridad"`
}

// Outcome is one result code of an outreach attempt. An attempt can carry
// several at once (e.g. answered positively and asked to be called back).
type Outcome string

const (
	OutcomePositive     Outcome = "respondio_positivo"
	OutcomeNegative     Outcome = "respondio_negativo"
	OutcomeNeutral      Outcome = "respondio_neutro"
	OutcomeNoReply      Outcome = "no_respondio"
	OutcomeWrongNumber  Outcome = "numero_incorrecto"
	OutcomeContactAgain Outcome = "volver_contactar"
)

// Outcomes lists every outcome code in display order.
var Outcomes = []Outcome{
	OutcomePositive,
	OutcomeNegative,
	OutcomeNeutral,
	OutcomeNoReply,
	OutcomeWrongNumber,
	OutcomeContactAgain,
}

// HistoryEntry is one logged outreach attempt against a contact. Entries
// are append-only; insertion order is the chronological order.
type HistoryEntry struct {
	Date     string    `json:"fecha" db:"fecha"`
	Outcomes []Outcome `json:"resultados" db:"resultados"`
	Note     string    `json:"nota" db:"nota"`
	TS       int64     `json:"ts" db:"ts"`
}

// Has reports whether the entry's outcome set contains code.
func (e HistoryEntry) Has(code Outcome) bool {
	for _, o := range e.Outcomes {
		if o == code {
			return true
		}
	}
	return false
}

// deletedMarker flags an import row that must never enter the registry.
const deletedMarker = "Borrado"

var phoneRunRe = regexp.MustCompile(`\d{6,}`)

// CleanPhones extracts usable phone numbers from a free-form phone field:
// digit runs of length >= 6, leading zeros stripped, deduplicated keeping
// first-appearance order.
func CleanPhones(raw string) []string {
	runs := phoneRunRe.FindAllString(raw, -1)
	seen := make(map[string]struct{}, len(runs))
	out := make([]string, 0, len(runs))
	for _, run := range runs {
		n := strings.TrimLeft(run, "0")
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ParseContacts builds the contact registry from raw import rows (header
// already removed). Column order is fixed: nombre, mail, telefono,
// contacto, respuesta, seguimiento. Short rows are padded with empties.
// Rows whose seguimiento contains the deletion marker are dropped outright,
// but still consume an id so ids stay stable across re-imports of the same
// sheet.
func ParseContacts(rows [][]string) []Contact {
	out := make([]Contact, 0, len(rows))
	for i, row := range rows {
		cell := func(j int) string {
			if j < len(row) {
				return strings.TrimSpace(row[j])
			}
			return ""
		}
		if strings.Contains(cell(5), deletedMarker) {
			continue
		}
		phones := CleanPhones(cell(2))
		out = append(out, Contact{
			ID:          i,
			Name:        cell(0),
			Mail:        cell(1),
			Phones:      phones,
			ContactInfo: cell(3),
			PriorReply:  cell(4),
			FollowUp:    cell(5),
			Priority:    PriorityFor(len(phones)),
		})
	}
	return out
}

// NormalizeOutcomes folds a persisted legacy singular result code into the
// multi-select form. Consumers only ever see the slice.
func NormalizeOutcomes(outcomes []Outcome, legacy string) []Outcome {
	if len(outcomes) > 0 {
		return outcomes
	}
	if legacy != "" {
		return []Outcome{Outcome(legacy)}
	}
	return nil
}
