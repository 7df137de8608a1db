package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
)

// Auditor writes security-relevant events to the log and, best effort, to the
// audit repository. A failed write never affects the request.
type Auditor struct {
	repo   outbound.AuditRepository
	logger *slog.Logger
}

func NewAuditor(repo outbound.AuditRepository, logger *slog.Logger) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{repo: repo, logger: logger}
}

func (a *Auditor) Record(ctx context.Context, entry model.AuditLog) {
	if a == nil {
		return
	}
	if entry.CorrelationID == "" {
		entry.CorrelationID = model.CorrelationID(ctx)
	}

	attrs := []any{
		"event", entry.EventType,
		"correlation_id", entry.CorrelationID,
	}
	if entry.InteractionID != "" {
		attrs = append(attrs, "interaction_id", entry.InteractionID)
	}
	if entry.UserID != "" {
		attrs = append(attrs, "user_id", entry.UserID)
	}
	if entry.Command != "" {
		attrs = append(attrs, "command", entry.Command)
	}
	a.logger.Log(ctx, auditLevel(entry.EventType), entry.Description, attrs...)

	if a.repo == nil {
		return
	}
	if err := a.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		a.logger.Warn("persisting audit log failed",
			"error", err,
			"event", entry.EventType,
			"correlation_id", entry.CorrelationID,
		)
	}
}

// ErrAuditUnavailable is returned by Query when no repository is configured.
var ErrAuditUnavailable = errors.New("audit store not configured")

// Query reads persisted audit entries, newest first unless page says otherwise.
func (a *Auditor) Query(ctx context.Context, filter outbound.AuditFilter, page outbound.PageRequest) (outbound.PageResult[model.AuditLog], error) {
	if a == nil || a.repo == nil {
		return outbound.PageResult[model.AuditLog]{}, ErrAuditUnavailable
	}
	if page.OrderBy == "" {
		page.OrderBy = "created_at"
		page.Desc = true
	}
	return a.repo.List(ctx, filter, page)
}

func auditLevel(t model.AuditEventType) slog.Level {
	switch t {
	case model.AuditSignatureRejected, model.AuditSyncFailed, model.AuditFollowUpFailed:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
