// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/taskhub/internal/app/store/audit"
	"github.com/dalemusser/taskhub/internal/app/system/apperr"
	"github.com/dalemusser/taskhub/internal/app/system/httpjson"
	"github.com/dalemusser/taskhub/internal/app/system/paging"
	"github.com/dalemusser/taskhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const pageSize = 50

// parseFilter reads category, event_type, user_id, start_date and end_date.
// Dates are YYYY-MM-DD in UTC; end_date covers the whole day.
func parseFilter(r *http.Request) (audit.QueryFilter, error) {
	var f audit.QueryFilter

	f.Category = strings.TrimSpace(query.Get(r, "category"))
	switch f.Category {
	case "", audit.CategoryAuth, audit.CategoryAdmin, audit.CategorySystem:
	default:
		return f, apperr.Validation("category must be one of auth, admin, system")
	}

	f.EventType = strings.TrimSpace(query.Get(r, "event_type"))
	if f.EventType != "" && !knownEventType(f.Category, f.EventType) {
		return f, apperr.Validationf("unknown event_type %q", f.EventType)
	}

	if s := strings.TrimSpace(query.Get(r, "user_id")); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return f, apperr.Validation("invalid user id")
		}
		f.UserID = &oid
	}

	if s := strings.TrimSpace(query.Get(r, "start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, apperr.Validation("start_date must be YYYY-MM-DD")
		}
		f.StartTime = &t
	}
	if s := strings.TrimSpace(query.Get(r, "end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return f, apperr.Validation("end_date must be YYYY-MM-DD")
		}
		endOfDay := t.Add(24*time.Hour - time.Millisecond)
		f.EndTime = &endOfDay
	}
	if f.StartTime != nil && f.EndTime != nil && f.EndTime.Before(*f.StartTime) {
		return f, apperr.Validation("end_date is before start_date")
	}
	return f, nil
}

// ServeList handles GET /audit, newest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	p := paging.Parse(r, "page_size", pageSize)
	filter.Limit = int64(p.Limit)
	filter.Offset = p.Skip()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}
	total, err := h.Events.CountByFilter(ctx, filter)
	if err != nil {
		httpjson.Error(w, h.Log, err)
		return
	}

	// Collect unique user IDs for name resolution.
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	for _, e := range events {
		for _, id := range []*primitive.ObjectID{e.ActorID, e.UserID} {
			if id == nil {
				continue
			}
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}
	names, err := h.Users.NamesByID(ctx, ids)
	if err != nil {
		// Purged accounts and lookup failures fall back to the raw id.
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		names = nil
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = nameOr(names, *e.ActorID)
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
			item.TargetName = nameOr(names, *e.UserID)
		}
		items = append(items, item)
	}

	httpjson.OK(w, httpjson.M{
		"events":      items,
		"page":        p.Page,
		"page_size":   p.Limit,
		"total":       total,
		"total_pages": paging.TotalPages(total, p.Limit),
	})
}

func nameOr(names map[primitive.ObjectID]string, id primitive.ObjectID) string {
	if n, ok := names[id]; ok {
		return n
	}
	return id.Hex()
}

// ServeCategories handles GET /audit/categories for building filters.
func (h *Handler) ServeCategories(w http.ResponseWriter, r *http.Request) {
	httpjson.OK(w, httpjson.M{"categories": allCategories()})
}
