package query

import (
	"strings"
	"time"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/store"
)

// Dashboard aggregates the whole snapshot for the overview screen.
type Dashboard struct {
	TotalCollected   float64                   `json:"total_cobrado"`
	PendingFees      float64                   `json:"esperando_cobro"`
	TotalCommissions float64                   `json:"comisiones_pas"`
	ActiveCases      int                       `json:"casos_activos"`
	ClosedCases      int                       `json:"casos_cobrados"`
	Contacted        int                       `json:"contactados"`
	Positive         int                       `json:"positivos"`
	Referrers        int                       `json:"derivadores"`
	Pipeline         map[domain.CaseStatus]int `json:"pipeline"`
	AvgClosingDays   *int                      `json:"promedio_cierre_dias"`
	ContactReminders []ContactReminder         `json:"recordatorios_pas"`
	CaseReminders    []CaseReminder            `json:"recordatorios_casos"`
	UrgentReminders  int                       `json:"recordatorios_urgentes"`
}

// ContactReminder is a due or overdue follow-up on a contact.
type ContactReminder struct {
	PASID   int    `json:"pas_id"`
	Name    string `json:"nombre"`
	Date    string `json:"fecha"`
	Overdue bool   `json:"vencido"`
}

// CaseReminder is a due or overdue follow-up on a case.
type CaseReminder struct {
	PASID   int    `json:"pas_id"`
	PASName string `json:"pas_nombre"`
	CaseID  int64  `json:"caso_id"`
	Insured string `json:"asegurado"`
	Date    string `json:"fecha"`
	Overdue bool   `json:"vencido"`
}

// unknownReferrer labels a case whose referrer id is missing from the
// registry; orphans are tolerated, never dropped.
const unknownReferrer = "PAS desconocido"

// Metrics computes the dashboard from a snapshot. now fixes "today" for
// reminder urgency and day counts.
func Metrics(snap *store.Snapshot, now time.Time) Dashboard {
	today := now.Format("2006-01-02")
	d := Dashboard{Pipeline: PipelineCounts(snap.Cases)}

	for _, list := range snap.Cases {
		for _, c := range list {
			if c.MyFee != nil {
				d.TotalCollected += *c.MyFee
				if c.Status == domain.StatusEsperandoPago {
					d.PendingFees += *c.MyFee
				}
			}
			if c.PASCommission != nil {
				d.TotalCommissions += *c.PASCommission
			}
			if c.Status.Closed() {
				d.ClosedCases++
			} else {
				d.ActiveCases++
			}
		}
	}

	for _, p := range snap.Contacts {
		history := snap.History[p.ID]
		if len(history) > 0 {
			d.Contacted++
		}
		if anyOutcome(history, domain.OutcomePositive) {
			d.Positive++
		}
		if snap.Referrers[p.ID] {
			d.Referrers++
		}
		if rec := snap.Reminders[p.ID]; Urgent(rec, today) {
			d.ContactReminders = append(d.ContactReminders, ContactReminder{
				PASID:   p.ID,
				Name:    p.Name,
				Date:    rec,
				Overdue: rec < today,
			})
		}
	}

	for pasID, list := range snap.Cases {
		name := unknownReferrer
		if p, ok := snap.ContactByID(pasID); ok {
			name = p.Name
		}
		for _, c := range list {
			if Urgent(c.Reminder, today) {
				d.CaseReminders = append(d.CaseReminders, CaseReminder{
					PASID:   pasID,
					PASName: name,
					CaseID:  c.ID,
					Insured: c.Insured,
					Date:    c.Reminder,
					Overdue: c.Reminder < today,
				})
			}
		}
	}
	d.UrgentReminders = len(d.ContactReminders) + len(d.CaseReminders)

	if avg, ok := AverageClosingDays(snap.Cases, now); ok {
		d.AvgClosingDays = &avg
	}
	return d
}

// CaseView is a case annotated for display: how long since its last
// movement, and whether that marks the case as stale.
type CaseView struct {
	domain.Case
	DaysInactive int  `json:"dias_inactivo"`
	Stale        bool `json:"inactivo"`
}

// ReferrerSummary is one referrer's row on the clients screen: its cases
// (optionally narrowed to one status) plus aggregates over all of them.
type ReferrerSummary struct {
	Contact      domain.Contact            `json:"pas"`
	Cases        []CaseView                `json:"casos"`
	Collected    float64                   `json:"cobrado"`
	Pending      float64                   `json:"pendiente"`
	Active       int                       `json:"activos"`
	StatusCounts map[domain.CaseStatus]int `json:"por_estado"`
}

// ReferrerSummaries lists flagged contacts in registry order, searched by
// name or mail. The status filter narrows the visible case list; the
// aggregates always cover every case the referrer has. Open cases idle
// for more than staleDays are marked stale.
func ReferrerSummaries(snap *store.Snapshot, search, statusFilter string, now time.Time, staleDays int) []ReferrerSummary {
	if staleDays <= 0 {
		staleDays = 30
	}
	q := strings.ToLower(strings.TrimSpace(search))
	var out []ReferrerSummary
	for _, p := range snap.Contacts {
		if !snap.Referrers[p.ID] {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.Mail), q) {
			continue
		}
		all := snap.Cases[p.ID]
		visible := FilterCasesByStatus(all, statusFilter)
		sum := ReferrerSummary{
			Contact:      p,
			Cases:        make([]CaseView, 0, len(visible)),
			StatusCounts: make(map[domain.CaseStatus]int, len(domain.PipelineStatuses)),
		}
		for _, c := range visible {
			view := CaseView{Case: c}
			if days, ok := DaysSince(now, c.LastMovementDate); ok {
				view.DaysInactive = days
				view.Stale = days > staleDays && !c.Status.Closed()
			}
			sum.Cases = append(sum.Cases, view)
		}
		for _, c := range all {
			sum.StatusCounts[c.Status]++
			if c.MyFee != nil {
				sum.Collected += *c.MyFee
				if c.Status == domain.StatusEsperandoPago {
					sum.Pending += *c.MyFee
				}
			}
			if !c.Status.Closed() {
				sum.Active++
			}
		}
		out = append(out, sum)
	}
	return out
}
