package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPhones(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", []string{}},
		{"no digit runs", "sin teléfono", []string{}},
		{"short runs ignored", "int 12345", []string{}},
		{"single number", "1155667788", []string{"1155667788"}},
		{"leading zeros stripped", "0111555444", []string{"111555444"}},
		{"short runs dropped before stripping applies", "tel 00541122, cel 01122 y 1122", []string{"541122"}},
		{"dedup after stripping", "tel 00541122, cel 541122", []string{"541122"}},
		{"order of first appearance", "fijo 47001122 / cel 1566001122", []string{"47001122", "1566001122"}},
		{"repeat collapses", "1122334455 y 1122334455", []string{"1122334455"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanPhones(tt.raw))
		})
	}
}

func TestPriorityFor(t *testing.T) {
	assert.Equal(t, PrioritySinTel, PriorityFor(0))
	assert.Equal(t, PriorityAgendado, PriorityFor(1))
	assert.Equal(t, PriorityMulti, PriorityFor(2))
	assert.Equal(t, PriorityMulti, PriorityFor(7))
}

func TestParseContacts(t *testing.T) {
	rows := [][]string{
		{"Perez Ana", "ana@mail.com", "1155667788", "wpp", "ok", ""},
		{"Gomez Luis", "luis@mail.com", "", "", "", "Borrado 2023"},
		{"Diaz Maria", "maria@mail.com", "0114455 y 4455", "", "", "seguir"},
	}
	got := ParseContacts(rows)

	// Deleted row is gone but its id slot is consumed.
	assert.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 2, got[1].ID)

	assert.Equal(t, "Perez Ana", got[0].Name)
	assert.Equal(t, PriorityAgendado, got[0].Priority)
	// "4455" is below the six-digit minimum, so only one number survives.
	assert.Equal(t, []string{"114455"}, got[1].Phones)
	assert.Equal(t, PriorityAgendado, got[1].Priority)
}

func TestParseContactsDeletedMarkerWinsOverAnythingElse(t *testing.T) {
	rows := [][]string{
		{"X", "x@mail.com", "1122334455", "c", "r", "cliente Borrado, no insistir"},
	}
	assert.Empty(t, ParseContacts(rows))
}

func TestParseContactsShortRow(t *testing.T) {
	got := ParseContacts([][]string{{"Solo Nombre"}})
	assert.Len(t, got, 1)
	assert.Equal(t, "Solo Nombre", got[0].Name)
	assert.Equal(t, "", got[0].Mail)
	assert.Empty(t, got[0].Phones)
	assert.Equal(t, PrioritySinTel, got[0].Priority)
}

func TestNormalizeOutcomes(t *testing.T) {
	assert.Equal(t, []Outcome{OutcomePositive}, NormalizeOutcomes(nil, "respondio_positivo"))
	assert.Equal(t, []Outcome{OutcomeNeutral}, NormalizeOutcomes([]Outcome{OutcomeNeutral}, "respondio_positivo"))
	assert.Nil(t, NormalizeOutcomes(nil, ""))
}

func TestHistoryEntryHas(t *testing.T) {
	e := HistoryEntry{Outcomes: []Outcome{OutcomePositive, OutcomeContactAgain}}
	assert.True(t, e.Has(OutcomeContactAgain))
	assert.False(t, e.Has(OutcomeNegative))
}
