// Package query derives visible subsets and metrics from a state
// snapshot. Everything here is a pure function: no mutation, no I/O, so
// the derivations can be recomputed from the latest snapshot on each
// read.
package query

import (
	"math"
	"strings"
	"time"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/store"
)

// ResponseFilter selects contacts by their outreach history.
type ResponseFilter string

const (
	RespTodos        ResponseFilter = "todos"
	RespSinContactar ResponseFilter = "sin_contactar"
	RespPositivo     ResponseFilter = "positivo"
	RespNegativo     ResponseFilter = "negativo"
	RespVolver       ResponseFilter = "volver"
	RespDerivadores  ResponseFilter = "derivadores"
)

// Criteria is one contact-list view: priority view, free-text search and
// response filter compose; pagination is applied afterwards.
type Criteria struct {
	View     string
	Search   string
	Response ResponseFilter
}

// FilterContacts applies the criteria over the registry. Search matches
// name, mail and the concatenated phone numbers, case-insensitively.
func FilterContacts(snap *store.Snapshot, c Criteria) []domain.Contact {
	out := make([]domain.Contact, 0, len(snap.Contacts))
	q := strings.ToLower(strings.TrimSpace(c.Search))
	for _, p := range snap.Contacts {
		if c.View != "" && c.View != domain.PriorityAll && string(p.Priority) != c.View {
			continue
		}
		if q != "" {
			haystack := strings.ToLower(p.Name) + " " + strings.ToLower(p.Mail) + " " + strings.Join(p.Phones, " ")
			if !strings.Contains(haystack, q) {
				continue
			}
		}
		if !matchResponse(snap, p.ID, c.Response) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func matchResponse(snap *store.Snapshot, pasID int, f ResponseFilter) bool {
	history := snap.History[pasID]
	switch f {
	case "", RespTodos:
		return true
	case RespSinContactar:
		return len(history) == 0
	case RespPositivo:
		return anyOutcome(history, domain.OutcomePositive)
	case RespNegativo:
		return anyOutcome(history, domain.OutcomeNegative)
	case RespVolver:
		return anyOutcome(history, domain.OutcomeContactAgain)
	case RespDerivadores:
		return snap.Referrers[pasID]
	default:
		return true
	}
}

func anyOutcome(history []domain.HistoryEntry, code domain.Outcome) bool {
	for _, e := range history {
		if e.Has(code) {
			return true
		}
	}
	return false
}

// Paginate slices one page out of a filtered list and reports the total
// page count. Pages outside the range clamp to the nearest valid page.
func Paginate(list []domain.Contact, page, perPage int) ([]domain.Contact, int) {
	if perPage <= 0 {
		perPage = 40
	}
	totalPages := (len(list) + perPage - 1) / perPage
	if totalPages == 0 {
		return nil, 0
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}
	return list[page*perPage : min(len(list), (page+1)*perPage)], totalPages
}

// Pager tracks the current page for the single-user contact list and
// resets it to zero whenever the view criteria change.
type Pager struct {
	criteria Criteria
	page     int
}

// Resolve returns the page to render for the given criteria. A criteria
// change resets to the first page regardless of the requested page;
// otherwise a non-negative request moves the pager.
func (p *Pager) Resolve(c Criteria, requested int) int {
	if c != p.criteria {
		p.criteria = c
		p.page = 0
		return 0
	}
	if requested >= 0 {
		p.page = requested
	}
	return p.page
}

// DaysSince returns the whole days elapsed from an ISO date to now,
// floored. ok is false for empty or unparsable dates.
func DaysSince(now time.Time, iso string) (int, bool) {
	if iso == "" {
		return 0, false
	}
	d, err := time.ParseInLocation("2006-01-02", iso, now.Location())
	if err != nil {
		return 0, false
	}
	return int(math.Floor(now.Sub(d).Hours() / 24)), true
}

// ReminderState classifies a reminder date against today.
type ReminderState string

const (
	ReminderNone    ReminderState = "none"
	ReminderOverdue ReminderState = "overdue"
	ReminderToday   ReminderState = "today"
	ReminderFuture  ReminderState = "future"
)

// ReminderStatus compares two ISO YYYY-MM-DD dates lexicographically:
// due today or overdue reminders are urgent, future ones are not.
func ReminderStatus(date, today string) ReminderState {
	switch {
	case date == "":
		return ReminderNone
	case date < today:
		return ReminderOverdue
	case date == today:
		return ReminderToday
	default:
		return ReminderFuture
	}
}

// Urgent reports whether a reminder date needs attention (today or past).
func Urgent(date, today string) bool {
	return date != "" && date <= today
}

// FilterCasesByStatus keeps cases in an exact status; "todos" or empty
// keeps everything.
func FilterCasesByStatus(cases []domain.Case, status string) []domain.Case {
	if status == "" || status == domain.StatusAll {
		return cases
	}
	out := make([]domain.Case, 0, len(cases))
	for _, c := range cases {
		if string(c.Status) == status {
			out = append(out, c)
		}
	}
	return out
}

// PipelineCounts tallies all cases per pipeline stage. Every stage is
// present in the result, zero or not, so consumers always render the
// full pipeline.
func PipelineCounts(cases map[int][]domain.Case) map[domain.CaseStatus]int {
	counts := make(map[domain.CaseStatus]int, len(domain.PipelineStatuses))
	for _, s := range domain.PipelineStatuses {
		counts[s] = 0
	}
	for _, list := range cases {
		for _, c := range list {
			counts[c.Status]++
		}
	}
	return counts
}

// AverageClosingDays is the mean of whole days between derivation and now
// over collected cases that have a derivation date, floored per case
// before averaging and rounded as a whole. ok is false when no case
// qualifies.
func AverageClosingDays(cases map[int][]domain.Case, now time.Time) (int, bool) {
	var sum, n int
	for _, list := range cases {
		for _, c := range list {
			if !c.Status.Closed() {
				continue
			}
			days, ok := DaysSince(now, c.ReferralDate)
			if !ok {
				continue
			}
			sum += days
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(float64(sum) / float64(n))), true
}
