package backup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/store"
)

func TestBuildMarshalParseRoundtrip(t *testing.T) {
	fee := 1200.0
	snap := &store.Snapshot{
		History: map[int][]domain.HistoryEntry{
			3: {{Date: "2026-08-20", Outcomes: []domain.Outcome{domain.OutcomePositive}, Note: "interesado", TS: 1755640000000}},
		},
		Cases: map[int][]domain.Case{
			3: {{ID: 1755640000001, Insured: "Carlos Lopez", Status: domain.StatusEsperandoPago, MyFee: &fee, NoteLog: []domain.CaseNote{{Text: "llamar", Date: "2026-08-21", TS: 1755640000002}}}},
		},
		Referrers: map[int]bool{3: true},
		Reminders: map[int]string{7: "2026-09-01"},
	}
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	doc := Build(snap, now)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "2026-08-28T14:00:00Z", doc.Date)

	data, err := Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": 1`)
	assert.Contains(t, string(data), `"historial"`)

	got, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, doc.History, got.History)
	assert.Equal(t, doc.Cases, got.Cases)
	assert.Equal(t, doc.Referrers, got.Referrers)
	assert.Equal(t, doc.Reminders, got.Reminders)
}

func TestParseRejectsMissingVersion(t *testing.T) {
	_, err := Parse([]byte(`{"historial": {}, "casos": {}}`))
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte(`no es json`))
	assert.ErrorIs(t, err, ErrInvalidBackup)
}

func TestParsePartialDocument(t *testing.T) {
	doc, err := Parse([]byte(`{"version": 1, "casos": {"5": []}}`))
	require.NoError(t, err)
	assert.Nil(t, doc.History)
	assert.Contains(t, doc.Cases, 5)
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 8, 28, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "pastracker_backup_2026-08-28.json", Filename(now))
}
