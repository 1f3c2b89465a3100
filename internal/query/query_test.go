package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/store"
)

// threeContacts builds the fixture from the filter-composition property:
// A agendado with no history, B multi with one positive entry, C agendado
// flagged as referrer with no history.
func threeContacts() *store.Snapshot {
	return &store.Snapshot{
		Contacts: []domain.Contact{
			{ID: 0, Name: "A", Mail: "a@mail.com", Phones: []string{"1111111"}, Priority: domain.PriorityAgendado},
			{ID: 1, Name: "B", Mail: "b@mail.com", Phones: []string{"2222222", "3333333"}, Priority: domain.PriorityMulti},
			{ID: 2, Name: "C", Mail: "c@mail.com", Phones: []string{"4444444"}, Priority: domain.PriorityAgendado},
		},
		History: map[int][]domain.HistoryEntry{
			1: {{Date: "2026-08-01", Outcomes: []domain.Outcome{domain.OutcomePositive}}},
		},
		Cases:     map[int][]domain.Case{},
		Referrers: map[int]bool{2: true},
		Reminders: map[int]string{},
	}
}

func names(list []domain.Contact) []string {
	out := make([]string, len(list))
	for i, c := range list {
		out[i] = c.Name
	}
	return out
}

func TestFilterComposition(t *testing.T) {
	snap := threeContacts()

	// agendado + positivo: A and C have no history, B is not agendado.
	got := FilterContacts(snap, Criteria{View: "agendado", Response: RespPositivo})
	assert.Empty(t, got)

	// multi + todos: exactly B.
	got = FilterContacts(snap, Criteria{View: "multi", Response: RespTodos})
	assert.Equal(t, []string{"B"}, names(got))

	// derivadores under any view: exactly C.
	for _, view := range []string{"todos", "agendado", ""} {
		got = FilterContacts(snap, Criteria{View: view, Response: RespDerivadores})
		assert.Equal(t, []string{"C"}, names(got), "view %q", view)
	}
}

func TestFilterSearchMatchesNameMailAndPhones(t *testing.T) {
	snap := threeContacts()

	got := FilterContacts(snap, Criteria{View: "todos", Search: "b@mail"})
	assert.Equal(t, []string{"B"}, names(got))

	got = FilterContacts(snap, Criteria{View: "todos", Search: "3333"})
	assert.Equal(t, []string{"B"}, names(got))

	// Surrounding whitespace is trimmed before matching.
	got = FilterContacts(snap, Criteria{View: "todos", Search: "  c@mail  "})
	assert.Equal(t, []string{"C"}, names(got))

	// A substring shared by every mail domain matches everyone.
	got = FilterContacts(snap, Criteria{View: "todos", Search: ".com"})
	assert.Equal(t, []string{"A", "B", "C"}, names(got))
}

func TestFilterSinContactar(t *testing.T) {
	snap := threeContacts()
	got := FilterContacts(snap, Criteria{View: "todos", Response: RespSinContactar})
	assert.Equal(t, []string{"A", "C"}, names(got))
}

func TestPaginate(t *testing.T) {
	list := make([]domain.Contact, 95)
	for i := range list {
		list[i] = domain.Contact{ID: i}
	}

	page, total := Paginate(list, 0, 40)
	assert.Len(t, page, 40)
	assert.Equal(t, 3, total)

	page, _ = Paginate(list, 2, 40)
	assert.Len(t, page, 15)
	assert.Equal(t, 80, page[0].ID)

	// Out-of-range pages clamp.
	page, _ = Paginate(list, 9, 40)
	assert.Equal(t, 80, page[0].ID)
	page, _ = Paginate(list, -1, 40)
	assert.Equal(t, 0, page[0].ID)

	page, total = Paginate(nil, 0, 40)
	assert.Nil(t, page)
	assert.Zero(t, total)
}

func TestPagerResetsOnCriteriaChange(t *testing.T) {
	var p Pager
	c := Criteria{View: "agendado", Response: RespTodos}

	assert.Equal(t, 0, p.Resolve(c, -1))
	assert.Equal(t, 3, p.Resolve(c, 3))
	assert.Equal(t, 3, p.Resolve(c, -1))

	// Any criteria change resets to the first page.
	assert.Equal(t, 0, p.Resolve(Criteria{View: "agendado", Search: "x"}, 3))
	assert.Equal(t, 0, p.Resolve(Criteria{View: "multi"}, -1))
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)

	d, ok := DaysSince(now, "2026-08-28")
	require.True(t, ok)
	assert.Equal(t, 0, d)

	d, _ = DaysSince(now, "2026-08-27")
	assert.Equal(t, 1, d)

	d, _ = DaysSince(now, "2026-07-28")
	assert.Equal(t, 31, d)

	_, ok = DaysSince(now, "")
	assert.False(t, ok)
	_, ok = DaysSince(now, "no es fecha")
	assert.False(t, ok)
}

func TestReminderUrgencyBoundary(t *testing.T) {
	today := "2026-08-28"

	assert.Equal(t, ReminderToday, ReminderStatus("2026-08-28", today))
	assert.Equal(t, ReminderOverdue, ReminderStatus("2026-08-27", today))
	assert.Equal(t, ReminderFuture, ReminderStatus("2026-08-29", today))
	assert.Equal(t, ReminderNone, ReminderStatus("", today))

	assert.True(t, Urgent("2026-08-28", today))
	assert.True(t, Urgent("2026-08-27", today))
	assert.False(t, Urgent("2026-08-29", today))
	assert.False(t, Urgent("", today))

	// Sweep a date range day by day around the boundary.
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		date := base.AddDate(0, 0, i).Format("2006-01-02")
		assert.Equal(t, date <= today, Urgent(date, today), date)
	}
}

func TestAverageClosingDays(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	cases := map[int][]domain.Case{
		1: {
			{ID: 1, Status: domain.StatusCobrado, ReferralDate: "2026-08-18"}, // 10 days
			{ID: 2, Status: domain.StatusCobrado, ReferralDate: "2026-08-08"}, // 20 days
			// No derivation date: excluded from numerator and denominator.
			{ID: 3, Status: domain.StatusCobrado},
			// Not closed: ignored.
			{ID: 4, Status: domain.StatusEsperandoPago, ReferralDate: "2026-01-01"},
		},
	}

	avg, ok := AverageClosingDays(cases, now)
	require.True(t, ok)
	assert.Equal(t, 15, avg)

	_, ok = AverageClosingDays(map[int][]domain.Case{}, now)
	assert.False(t, ok)
}

func TestPipelineCountsIncludesEmptyStages(t *testing.T) {
	counts := PipelineCounts(map[int][]domain.Case{
		1: {{ID: 1, Status: domain.StatusCobrado}},
	})

	require.Len(t, counts, len(domain.PipelineStatuses))
	assert.Equal(t, 1, counts[domain.StatusCobrado])
	for _, s := range domain.PipelineStatuses {
		_, present := counts[s]
		assert.True(t, present, string(s))
	}
	assert.Equal(t, 0, counts[domain.StatusEnJuicio])

	// Empty ledgers still enumerate every stage.
	empty := PipelineCounts(nil)
	assert.Len(t, empty, len(domain.PipelineStatuses))
}

func TestFilterCasesByStatus(t *testing.T) {
	cases := []domain.Case{
		{ID: 1, Status: domain.StatusIniciado},
		{ID: 2, Status: domain.StatusCobrado},
	}
	assert.Len(t, FilterCasesByStatus(cases, "todos"), 2)
	assert.Len(t, FilterCasesByStatus(cases, ""), 2)
	got := FilterCasesByStatus(cases, "cobrado")
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}
