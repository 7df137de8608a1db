package outbound

import (
	"context"
	"time"

	"github.com/jonny/sheetbot/internal/domain/model"
)

type PageRequest struct {
	Page    int
	Size    int
	OrderBy string
	Desc    bool
}

type PageResult[T any] struct {
	Items      []T
	TotalCount int64
	Page       int
	Size       int
}

type AuditFilter struct {
	CorrelationID string
	EventType     string
	UserID        string
	GuildID       string
	Since         *time.Time
	Until         *time.Time
}

type AuditRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	List(ctx context.Context, filter AuditFilter, page PageRequest) (PageResult[model.AuditLog], error)
}
