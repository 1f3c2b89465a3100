// Package importer runs sheet imports as tracked sessions: parse the
// uploaded CSV, replace the registry and publish progress so the UI can
// poll it. Progress lives in Redis when one is configured; without it
// imports still run, only the polling endpoint reports "unknown".
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/alexisq/pastracker/internal/domain"
	"github.com/alexisq/pastracker/internal/pkg/logger"
	"github.com/alexisq/pastracker/internal/sheet"
	"github.com/alexisq/pastracker/internal/store"
)

// SessionTTL bounds how long a finished session stays pollable.
const SessionTTL = time.Hour

// Progress is the pollable state of one import session.
type Progress struct {
	SessionID     string    `json:"session_id"`
	Status        string    `json:"status"` // running, completed, failed, unknown
	TotalRows     int       `json:"total_rows"`
	ImportedCount int       `json:"imported_count"`
	DroppedCount  int       `json:"dropped_count"`
	Error         string    `json:"error,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Service parses uploads into the registry. redis may be nil.
type Service struct {
	store *store.Store
	redis *redis.Client
}

func NewService(st *store.Store, redisClient *redis.Client) *Service {
	return &Service{store: st, redis: redisClient}
}

// Run imports a sheet and replaces the contact registry. It returns the
// session id and the final progress; the session id is usable with
// GetProgress immediately.
func (s *Service) Run(ctx context.Context, r io.Reader) (Progress, error) {
	progress := Progress{
		SessionID: uuid.New().String(),
		Status:    "running",
		UpdatedAt: time.Now(),
	}
	s.publish(ctx, progress)

	rows, err := sheet.ReadRows(r)
	if err != nil {
		progress.Status = "failed"
		progress.Error = err.Error()
		progress.UpdatedAt = time.Now()
		s.publish(ctx, progress)
		return progress, fmt.Errorf("import session %s: %w", progress.SessionID, err)
	}

	contacts := domain.ParseContacts(rows)
	s.store.ImportContacts(contacts)

	progress.Status = "completed"
	progress.TotalRows = len(rows)
	progress.ImportedCount = len(contacts)
	progress.DroppedCount = len(rows) - len(contacts)
	progress.UpdatedAt = time.Now()
	s.publish(ctx, progress)

	logger.Info("sheet imported",
		"session_id", progress.SessionID,
		"rows", progress.TotalRows,
		"contacts", progress.ImportedCount,
		"dropped", progress.DroppedCount)
	return progress, nil
}

// GetProgress retrieves a session's progress. Unknown or expired
// sessions report status "unknown" rather than an error.
func (s *Service) GetProgress(ctx context.Context, sessionID string) (Progress, error) {
	if s.redis == nil {
		return Progress{SessionID: sessionID, Status: "unknown"}, nil
	}
	data, err := s.redis.Get(ctx, progressKey(sessionID)).Bytes()
	if err == redis.Nil {
		return Progress{SessionID: sessionID, Status: "unknown"}, nil
	}
	if err != nil {
		return Progress{}, fmt.Errorf("get import progress: %w", err)
	}
	var progress Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return Progress{}, fmt.Errorf("decode import progress: %w", err)
	}
	return progress, nil
}

func (s *Service) publish(ctx context.Context, progress Progress) {
	if s.redis == nil {
		return
	}
	data, _ := json.Marshal(progress)
	if err := s.redis.Set(ctx, progressKey(progress.SessionID), data, SessionTTL).Err(); err != nil {
		logger.Warn("publish import progress failed", "session_id", progress.SessionID, "error", err)
	}
}

func progressKey(sessionID string) string {
	return fmt.Sprintf("import:progress:%s", sessionID)
}
