// Package api is the HTTP surface: a thin layer that decodes requests,
// calls the store and the pure query helpers, and encodes the results.
// No domain rules live here.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alexisq/pastracker/internal/backup"
	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/importer"
	"github.com/alexisq/pastracker/internal/query"
	"github.com/alexisq/pastracker/internal/sheet"
	"github.com/alexisq/pastracker/internal/store"
	"github.com/alexisq/pastracker/internal/walink"
)

// Handlers carries the collaborators every endpoint needs.
type Handlers struct {
	store     *store.Store
	importer  *importer.Service
	links     walink.Builder
	perPage   int
	staleDays int

	// The contact list is a single-user screen; its pager lives here.
	pagerMu sync.Mutex
	pager   query.Pager

	now func() time.Time
}

// NewHandlers wires the endpoint set. perPage <= 0 falls back to 40,
// staleDays <= 0 to 30.
func NewHandlers(st *store.Store, imp *importer.Service, links walink.Builder, perPage, staleDays int) *Handlers {
	if perPage <= 0 {
		perPage = 40
	}
	if staleDays <= 0 {
		staleDays = 30
	}
	return &Handlers{
		store:     st,
		importer:  imp,
		links:     links,
		perPage:   perPage,
		staleDays: staleDays,
		now:       time.Now,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListContacts returns one page of the filtered registry.
// Query: view, buscar, respuesta, pagina (omitted = keep current page).
func (h *Handlers) ListContacts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := query.Criteria{
		View:     q.Get("view"),
		Search:   q.Get("buscar"),
		Response: query.ResponseFilter(q.Get("respuesta")),
	}
	requested := -1
	if v := q.Get("pagina"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "pagina must be a number")
			return
		}
		requested = n
	}

	snap := h.store.Snapshot()
	filtered := query.FilterContacts(snap, criteria)

	h.pagerMu.Lock()
	page := h.pager.Resolve(criteria, requested)
	h.pagerMu.Unlock()

	items, totalPages := query.Paginate(filtered, page, h.perPage)
	if items == nil {
		items = []domain.Contact{}
	}
	if page >= totalPages && totalPages > 0 {
		page = totalPages - 1
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"contactos":      items,
		"pagina":         page,
		"total_paginas":  totalPages,
		"total_filtrado": len(filtered),
	})
}

// GetContact returns one contact with its history, flag and reminder.
func (h *Handlers) GetContact(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "pasID")
	if !ok {
		return
	}
	snap := h.store.Snapshot()
	contact, found := snap.ContactByID(id)
	if !found {
		respondError(w, http.StatusNotFound, "contact not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"contacto":     contact,
		"historial":    snap.History[id],
		"derivador":    snap.Referrers[id],
		"recordatorio": snap.Reminders[id],
	})
}

type outreachRequest struct {
	Date     string           `json:"fecha"`
	Outcomes []domain.Outcome `json:"resultados"`
	Note     string           `json:"nota"`
	Reminder string           `json:"recordatorio"`
}

// RecordOutreach appends an outreach attempt to a contact's history.
func (h *Handlers) RecordOutreach(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "pasID")
	if !ok {
		return
	}
	var req outreachRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	entry := h.store.RecordOutreach(id, domain.HistoryEntry{
		Date:     req.Date,
		Outcomes: req.Outcomes,
		Note:     req.Note,
	}, req.Reminder)
	respondJSON(w, http.StatusCreated, entry)
}

// ToggleReferrer flips the referrer flag on a contact.
func (h *Handlers) ToggleReferrer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "pasID")
	if !ok {
		return
	}
	val := h.store.ToggleReferrer(id)
	respondJSON(w, http.StatusOK, map[string]bool{"derivador": val})
}

// WhatsAppLink builds the outreach deep link for one of a contact's
// phones (query: telefono; defaults to the first).
func (h *Handlers) WhatsAppLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "pasID")
	if !ok {
		return
	}
	snap := h.store.Snapshot()
	contact, found := snap.ContactByID(id)
	if !found {
		respondError(w, http.StatusNotFound, "contact not found")
		return
	}
	phone := r.URL.Query().Get("telefono")
	if phone == "" {
		if len(contact.Phones) == 0 {
			respondError(w, http.StatusUnprocessableEntity, "contact has no phone")
			return
		}
		phone = contact.Phones[0]
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"url": h.links.Link(phone, contact.Name),
	})
}

// ListReferrers returns the clients screen: per-referrer summaries.
// Query: buscar, estado.
func (h *Handlers) ListReferrers(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	out := query.ReferrerSummaries(snap, r.URL.Query().Get("buscar"), r.URL.Query().Get("estado"), h.now(), h.staleDays)
	if out == nil {
		out = []query.ReferrerSummary{}
	}
	respondJSON(w, http.StatusOK, out)
}

// SaveCase creates or updates a case under a referrer.
func (h *Handlers) SaveCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "pasID")
	if !ok {
		return
	}
	var c domain.Case
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	saved, err := h.store.SaveCase(id, c)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

// DeleteCase removes a case from a referrer's ledger.
func (h *Handlers) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "pasID")
	if !ok {
		return
	}
	caseID, err := strconv.ParseInt(chi.URLParam(r, "casoID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "casoID must be a number")
		return
	}
	if !h.store.DeleteCase(id, caseID) {
		respondError(w, http.StatusNotFound, "case not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDashboard returns the aggregated metrics view.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, query.Metrics(h.store.Snapshot(), h.now()))
}

// ExportCases streams the case book as a CSV download.
func (h *Handlers) ExportCases(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+sheet.ExportFilename(h.now())+`"`)
	if err := sheet.WriteCSV(w, h.store.Snapshot()); err != nil {
		respondError(w, http.StatusInternalServerError, "export failed")
	}
}

// ImportContacts replaces the registry from an uploaded CSV sheet. The
// body is the raw sheet; a multipart upload with field "file" also works.
func (h *Handlers) ImportContacts(w http.ResponseWriter, r *http.Request) {
	body, err := sheetBody(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer body.Close()

	progress, err := h.importer.Run(r.Context(), body)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "could not read sheet")
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// GetImportProgress reports a running or finished import session.
func (h *Handlers) GetImportProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.importer.GetProgress(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "could not read progress")
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

// DownloadBackup serves the versioned backup document.
func (h *Handlers) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	doc := backup.Build(h.store.Snapshot(), h.now())
	data, err := backup.Marshal(doc)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "backup failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.Filename(h.now())+`"`)
	w.Write(data)
}

// RestoreBackup overwrites the four backed-up collections from an
// uploaded document. Invalid documents are rejected and change nothing.
func (h *Handlers) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "could not read body")
		return
	}
	doc, err := backup.Parse(data)
	if err != nil {
		if errors.Is(err, backup.ErrInvalidBackup) {
			respondError(w, http.StatusUnprocessableEntity, "not a valid backup document")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.store.RestoreAll(doc.History, doc.Cases, doc.Referrers, doc.Reminders)
	respondJSON(w, http.StatusOK, map[string]string{"restaurado": doc.Date})
}

// sheetBody picks the CSV stream out of the request: the "file" part of
// a multipart upload, or the raw body otherwise.
func sheetBody(r *http.Request) (io.ReadCloser, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, errors.New("invalid multipart body")
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, errors.New(`multipart upload needs a "file" field`)
		}
		return file, nil
	}
	return r.Body, nil
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		respondError(w, http.StatusBadRequest, name+" must be a number")
		return 0, false
	}
	return id, true
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
