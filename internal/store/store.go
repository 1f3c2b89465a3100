// Package store holds the in-memory state for the five entity kinds and
// pushes every mutation through the sync gateway as a best-effort
// replace-all save. The in-memory snapshot is the source of truth for the
// session; persistence failures never surface to callers.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/pkg/logger"
)

// Gateway is the persistence contract the store pushes state through.
// Load methods return (nil, nil) when nothing has been persisted yet.
// Implemented by repository/postgres.Gateway.
type Gateway interface {
	LoadContacts(ctx context.Context) ([]domain.Contact, error)
	LoadHistory(ctx context.Context) (map[int][]domain.HistoryEntry, error)
	LoadCases(ctx context.Context) (map[int][]domain.Case, error)
	LoadReferrers(ctx context.Context) (map[int]bool, error)
	LoadReminders(ctx context.Context) (map[int]string, error)

	ReplaceContacts(ctx context.Context, contacts []domain.Contact) error
	ReplaceHistory(ctx context.Context, history map[int][]domain.HistoryEntry) error
	ReplaceCases(ctx context.Context, cases map[int][]domain.Case) error
	ReplaceReferrers(ctx context.Context, referrers map[int]bool) error
	ReplaceReminders(ctx context.Context, reminders map[int]string) error
}

// Snapshot is an immutable view of the full in-memory state. Mutations
// build a new snapshot; holders of an old one keep reading consistent
// data. Callers must not modify the containers they receive.
type Snapshot struct {
	Contacts  []domain.Contact
	History   map[int][]domain.HistoryEntry
	Cases     map[int][]domain.Case
	Referrers map[int]bool
	Reminders map[int]string
}

// ContactByID looks a contact up in the registry.
func (s *Snapshot) ContactByID(id int) (domain.Contact, bool) {
	for _, c := range s.Contacts {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Contact{}, false
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		History:   map[int][]domain.HistoryEntry{},
		Cases:     map[int][]domain.Case{},
		Referrers: map[int]bool{},
		Reminders: map[int]string{},
	}
}

// Store owns the current snapshot and the save queue. Single-writer by
// design: the application has one user, so mutations are serialized by a
// plain mutex and saves by the per-kind queue.
type Store struct {
	mu    sync.RWMutex
	snap  *Snapshot
	saver *saver

	// now is stubbed in tests for deterministic ids and timestamps.
	now func() time.Time
}

// New creates a store. The gateway may be nil, in which case the store
// runs memory-only (nothing persists, nothing fails).
func New(gw Gateway) *Store {
	return &Store{
		snap:  emptySnapshot(),
		saver: newSaver(gw),
		now:   time.Now,
	}
}

// LoadAll populates the snapshot from the remote store, one concurrent
// read per entity kind. Any load failure degrades to "nothing persisted
// yet" for that kind and is logged, never returned.
func (s *Store) LoadAll(ctx context.Context) {
	if s.saver.gw == nil {
		return
	}
	gw := s.saver.gw

	var (
		wg        sync.WaitGroup
		contacts  []domain.Contact
		history   map[int][]domain.HistoryEntry
		cases     map[int][]domain.Case
		referrers map[int]bool
		reminders map[int]string
	)
	load := func(kind Kind, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				logger.Warn("load failed, starting empty", "kind", string(kind), "error", err)
			}
		}()
	}
	load(KindContacts, func() (err error) { contacts, err = gw.LoadContacts(ctx); return })
	load(KindHistory, func() (err error) { history, err = gw.LoadHistory(ctx); return })
	load(KindCases, func() (err error) { cases, err = gw.LoadCases(ctx); return })
	load(KindReferrers, func() (err error) { referrers, err = gw.LoadReferrers(ctx); return })
	load(KindReminders, func() (err error) { reminders, err = gw.LoadReminders(ctx); return })
	wg.Wait()

	next := emptySnapshot()
	next.Contacts = contacts
	if history != nil {
		next.History = history
	}
	if cases != nil {
		next.Cases = cases
	}
	if referrers != nil {
		next.Referrers = referrers
	}
	if reminders != nil {
		next.Reminders = reminders
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	logger.Info("state loaded",
		"contacts", len(next.Contacts),
		"with_history", len(next.History),
		"referrers", len(next.Referrers))
}

// Snapshot returns the current immutable state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Flush blocks until every scheduled save has drained. Used at shutdown
// and in tests; normal mutations never wait for persistence.
func (s *Store) Flush() { s.saver.flush() }

// ImportContacts replaces the contact registry wholesale (spreadsheet
// re-import). History, cases, flags and reminders are left untouched;
// ids are stable across re-imports of the same sheet.
func (s *Store) ImportContacts(contacts []domain.Contact) {
	s.mu.Lock()
	next := *s.snap
	next.Contacts = contacts
	s.snap = &next
	s.mu.Unlock()

	s.scheduleContacts(contacts)
}

// RecordOutreach appends an outreach attempt to a contact's history. When
// the outcome set includes "contact again" and a date was provided, the
// contact's reminder is overwritten as well. Returns the stored entry.
func (s *Store) RecordOutreach(pasID int, entry domain.HistoryEntry, reminder string) domain.HistoryEntry {
	if entry.TS == 0 {
		entry.TS = s.now().UnixMilli()
	}

	s.mu.Lock()
	next := *s.snap
	next.History = cloneMap(next.History)
	next.History[pasID] = appendCopy(next.History[pasID], entry)

	setReminder := reminder != "" && entry.Has(domain.OutcomeContactAgain)
	if setReminder {
		next.Reminders = cloneMap(next.Reminders)
		next.Reminders[pasID] = reminder
	}
	s.snap = &next
	s.mu.Unlock()

	s.scheduleHistory(next.History)
	if setReminder {
		s.scheduleReminders(next.Reminders)
	}
	return entry
}

// ToggleReferrer flips a contact's referrer flag and returns the new
// value. False entries stay in memory but are never persisted (sparse
// set).
func (s *Store) ToggleReferrer(pasID int) bool {
	s.mu.Lock()
	next := *s.snap
	next.Referrers = cloneMap(next.Referrers)
	next.Referrers[pasID] = !next.Referrers[pasID]
	val := next.Referrers[pasID]
	s.snap = &next
	s.mu.Unlock()

	s.scheduleReferrers(next.Referrers)
	return val
}

// SaveCase creates or updates a case in a referrer's ledger. New cases get
// a creation-timestamp id and default to the first pipeline stage; the
// commission suggestion fires only the first time the fee is set.
func (s *Store) SaveCase(pasID int, c domain.Case) (domain.Case, error) {
	if c.Status == "" {
		c.Status = domain.StatusIniciado
	}
	if c.LastMovementDate == "" {
		c.LastMovementDate = s.now().Format("2006-01-02")
	}
	if err := c.Validate(); err != nil {
		return domain.Case{}, err
	}

	s.mu.Lock()
	next := *s.snap
	next.Cases = cloneMap(next.Cases)
	list := next.Cases[pasID]

	idx := -1
	if c.ID != 0 {
		for i, existing := range list {
			if existing.ID == c.ID {
				idx = i
				break
			}
		}
	}
	if idx >= 0 {
		// Fee set for the first time on this case: suggest the commission.
		if list[idx].MyFee == nil {
			c.SuggestCommission()
		}
		updated := make([]domain.Case, len(list))
		copy(updated, list)
		updated[idx] = c
		next.Cases[pasID] = updated
	} else {
		if c.ID == 0 {
			c.ID = s.nextCaseID(next.Cases)
		}
		c.SuggestCommission()
		next.Cases[pasID] = appendCopy(list, c)
	}
	s.snap = &next
	s.mu.Unlock()

	s.scheduleCases(next.Cases)
	return c, nil
}

// DeleteCase removes a case from its referrer's ledger. No tombstone.
func (s *Store) DeleteCase(pasID int, caseID int64) bool {
	s.mu.Lock()
	next := *s.snap
	list := next.Cases[pasID]
	idx := -1
	for i, c := range list {
		if c.ID == caseID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	next.Cases = cloneMap(next.Cases)
	updated := make([]domain.Case, 0, len(list)-1)
	updated = append(updated, list[:idx]...)
	updated = append(updated, list[idx+1:]...)
	next.Cases[pasID] = updated
	s.snap = &next
	s.mu.Unlock()

	s.scheduleCases(next.Cases)
	return true
}

// RestoreAll overwrites the backed-up stores present in a restore
// document and pushes each to the remote store. A nil collection means
// "absent from the document" and leaves the current state untouched; an
// empty non-nil map is an explicit overwrite. The registry is re-derived
// from re-import, never from a backup.
func (s *Store) RestoreAll(history map[int][]domain.HistoryEntry, cases map[int][]domain.Case, referrers map[int]bool, reminders map[int]string) {
	s.mu.Lock()
	next := *s.snap
	if history != nil {
		next.History = history
	}
	if cases != nil {
		next.Cases = cases
	}
	if referrers != nil {
		next.Referrers = referrers
	}
	if reminders != nil {
		next.Reminders = reminders
	}
	s.snap = &next
	s.mu.Unlock()

	if history != nil {
		s.scheduleHistory(history)
	}
	if cases != nil {
		s.scheduleCases(cases)
	}
	if referrers != nil {
		s.scheduleReferrers(referrers)
	}
	if reminders != nil {
		s.scheduleReminders(reminders)
	}
}

// nextCaseID generates a creation-timestamp id, bumped past any id already
// present so two quick adds stay distinct.
func (s *Store) nextCaseID(cases map[int][]domain.Case) int64 {
	id := s.now().UnixMilli()
	for {
		if !caseIDExists(cases, id) {
			return id
		}
		id++
	}
}

func caseIDExists(cases map[int][]domain.Case, id int64) bool {
	for _, list := range cases {
		for _, c := range list {
			if c.ID == id {
				return true
			}
		}
	}
	return false
}

func cloneMap[V any](m map[int]V) map[int]V {
	out := make(map[int]V, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// appendCopy appends without sharing the backing array with older
// snapshots.
func appendCopy[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, list...)
	return append(out, v)
}

func (s *Store) scheduleContacts(contacts []domain.Contact) {
	s.saver.schedule(KindContacts, func(ctx context.Context, gw Gateway) error {
		return gw.ReplaceContacts(ctx, contacts)
	})
}

func (s *Store) scheduleHistory(history map[int][]domain.HistoryEntry) {
	s.saver.schedule(KindHistory, func(ctx context.Context, gw Gateway) error {
		return gw.ReplaceHistory(ctx, history)
	})
}

func (s *Store) scheduleCases(cases map[int][]domain.Case) {
	s.saver.schedule(KindCases, func(ctx context.Context, gw Gateway) error {
		return gw.ReplaceCases(ctx, cases)
	})
}

func (s *Store) scheduleReferrers(referrers map[int]bool) {
	s.saver.schedule(KindReferrers, func(ctx context.Context, gw Gateway) error {
		return gw.ReplaceReferrers(ctx, referrers)
	})
}

func (s *Store) scheduleReminders(reminders map[int]string) {
	s.saver.schedule(KindReminders, func(ctx context.Context, gw Gateway) error {
		return gw.ReplaceReminders(ctx, reminders)
	})
}
