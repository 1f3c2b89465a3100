// Package backup serializes the four persisted collections (history,
// cases, referrer flags, reminders) into a versioned JSON document and
// reads it back. The contact registry is excluded: it is rebuilt from a
// sheet re-import, never from a backup.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/store"
)

// Version identifies the current document layout.
const Version = 1

// ErrInvalidBackup marks a document that is not a tracker backup: not
// JSON, or missing the version marker. A restore that fails with it
// changes nothing.
var ErrInvalidBackup = errors.New("not a valid backup document")

// Document is the on-disk backup shape. Integer contact ids become JSON
// string keys and are decoded back to ints.
type Document struct {
	Version   int                           `json:"version"`
	Date      string                        `json:"fecha"`
	History   map[int][]domain.HistoryEntry `json:"historial"`
	Cases     map[int][]domain.Case         `json:"casos"`
	Referrers map[int]bool                  `json:"derivadores"`
	Reminders map[int]string                `json:"recordatorios"`
}

// Build captures a snapshot into a backup document, stamped with now.
func Build(snap *store.Snapshot, now time.Time) Document {
	return Document{
		Version:   Version,
		Date:      now.UTC().Format(time.RFC3339),
		History:   snap.History,
		Cases:     snap.Cases,
		Referrers: snap.Referrers,
		Reminders: snap.Reminders,
	}
}

// Marshal renders the document as indented JSON, the download format.
func Marshal(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

// Parse validates and decodes a backup document. Missing collections
// decode as nil; the store treats them as empty on restore.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}
	if doc.Version == 0 {
		return Document{}, fmt.Errorf("%w: missing version", ErrInvalidBackup)
	}
	return doc, nil
}

// Filename names the download with the backup date.
func Filename(now time.Time) string {
	return fmt.Sprintf("pastracker_backup_%s.json", now.Format("2006-01-02"))
}
