package store

import (
	"context"
	"sync"

	"github.com/alexisq/pastracker/internal/pkg/logger"
)

// Kind names one of the five persisted entity kinds. Values match the
// remote table names.
type Kind string

const (
	KindContacts  Kind = "pas_lista"
	KindHistory   Kind = "pas_historial"
	KindCases     Kind = "pas_casos"
	KindReferrers Kind = "pas_derivadores"
	KindReminders Kind = "pas_recordatorios"
)

type saveFn func(ctx context.Context, gw Gateway) error

// saver serializes replace-all saves per entity kind. Because every save
// rewrites the entire kind, only the latest pending state matters:
// scheduling coalesces, so a burst of edits produces one write, and two
// saves for the same kind can never interleave their delete/insert pairs.
// Scheduling never blocks the mutating caller.
type saver struct {
	gw Gateway

	mu      sync.Mutex
	cond    *sync.Cond
	pending map[Kind]saveFn
	running map[Kind]bool
}

func newSaver(gw Gateway) *saver {
	s := &saver{
		gw:      gw,
		pending: make(map[Kind]saveFn),
		running: make(map[Kind]bool),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *saver) schedule(kind Kind, fn saveFn) {
	if s.gw == nil {
		return
	}
	s.mu.Lock()
	s.pending[kind] = fn
	if !s.running[kind] {
		s.running[kind] = true
		go s.drain(kind)
	}
	s.mu.Unlock()
}

func (s *saver) drain(kind Kind) {
	for {
		s.mu.Lock()
		fn, ok := s.pending[kind]
		if !ok {
			s.running[kind] = false
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		delete(s.pending, kind)
		s.mu.Unlock()

		// Best-effort: a failed save is logged and dropped, the
		// in-memory state stays authoritative for the session.
		if err := fn(context.Background(), s.gw); err != nil {
			logger.Error("replace-all save failed", "kind", string(kind), "error", err)
		}
	}
}

// flush blocks until all pending saves have drained.
func (s *saver) flush() {
	s.mu.Lock()
	for len(s.pending) > 0 || anyRunning(s.running) {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

func anyRunning(m map[Kind]bool) bool {
	for _, v := range m {
		if v {
			return true
		}
	}
	return false
}
