package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonny/sheetbot/internal/domain/model"
	"github.com/jonny/sheetbot/internal/domain/port/outbound"
	"github.com/jonny/sheetbot/pkg/apierror"
)

const maxAuditPageSize = 200

// AuditQuerier reads persisted audit entries.
type AuditQuerier interface {
	Query(ctx context.Context, filter outbound.AuditFilter, page outbound.PageRequest) (outbound.PageResult[model.AuditLog], error)
}

type auditPage struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}

// NewAuditHandler serves read-only audit lookups for operators. It belongs on
// the internal metrics listener, never on the public interactions route.
//
// Query parameters: correlation_id, event_type, user_id, guild_id,
// since/until (RFC 3339), page, size, order, desc.
func NewAuditHandler(q AuditQuerier, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		filter, page, err := parseAuditQuery(r.URL.Query())
		if err != nil {
			apierror.Write(w, err)
			return
		}

		res, err := q.Query(r.Context(), filter, page)
		if err != nil {
			logger.Error("audit query failed", "error", err)
			apierror.Write(w, apierror.Internal("Audit query failed"))
			return
		}

		items := res.Items
		if items == nil {
			items = []model.AuditLog{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(auditPage{
			Items: items,
			Total: res.TotalCount,
			Page:  res.Page,
			Size:  res.Size,
		})
	}
}

func parseAuditQuery(v url.Values) (outbound.AuditFilter, outbound.PageRequest, error) {
	filter := outbound.AuditFilter{
		CorrelationID: v.Get("correlation_id"),
		EventType:     v.Get("event_type"),
		UserID:        v.Get("user_id"),
		GuildID:       v.Get("guild_id"),
	}
	var err error
	if filter.Since, err = parseTime(v, "since"); err != nil {
		return filter, outbound.PageRequest{}, err
	}
	if filter.Until, err = parseTime(v, "until"); err != nil {
		return filter, outbound.PageRequest{}, err
	}

	page := outbound.PageRequest{OrderBy: v.Get("order")}
	if page.Page, err = parseInt(v, "page", 0); err != nil {
		return filter, page, err
	}
	if page.Size, err = parseInt(v, "size", 50); err != nil {
		return filter, page, err
	}
	if page.Page < 0 || page.Size <= 0 || page.Size > maxAuditPageSize {
		return filter, page, apierror.BadRequest("page must be >= 0 and size between 1 and 200")
	}
	if s := v.Get("desc"); s != "" {
		if page.Desc, err = strconv.ParseBool(s); err != nil {
			return filter, page, apierror.BadRequest("invalid desc")
		}
	}
	return filter, page, nil
}

func parseTime(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apierror.BadRequest("invalid " + key + ": expected RFC 3339")
	}
	return &t, nil
}

func parseInt(v url.Values, key string, def int) (int, error) {
	s := v.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, apierror.BadRequest("invalid " + key)
	}
	return n, nil
}
