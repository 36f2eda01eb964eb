// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/waffle/pantry/query"
)

// Default page sizes used by the list endpoints.
const (
	NotificationPageSize = 10
	UserPageSize         = 20
	MaxPageSize          = 100

	// MaxPage bounds the page number so Skip never overflows.
	MaxPage = 1_000_000
)

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// Skip returns the number of documents to skip for Mongo Find().SetSkip().
func (p Params) Skip() int64 {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return int64(p.Page-1) * int64(p.Limit)
}

// LimitPlusOne returns Limit+1 for look-ahead pagination
// (fetch one extra document to detect hasNext).
func (p Params) LimitPlusOne() int64 {
	return int64(p.Limit + 1)
}

// Parse reads "page" and the named limit parameter from the query string.
// Missing or invalid values fall back to page 1 and defaultLimit. The page
// is capped at MaxPage and the limit at MaxPageSize.
func Parse(r *http.Request, limitKey string, defaultLimit int) Params {
	return Params{
		Page:  clamp(positiveInt(query.Get(r, "page"), 1), MaxPage),
		Limit: clamp(positiveInt(query.Get(r, limitKey), defaultLimit), MaxPageSize),
	}
}

func positiveInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func clamp(n, max int) int {
	if n > max {
		return max
	}
	return n
}

// TotalPages returns ceil(total/limit), or 0 when total is 0.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// TrimNext trims a look-ahead fetch of Limit+1 rows to Limit and reports
// whether a next page exists.
func TrimNext[T any](rows *[]T, limit int) bool {
	if len(*rows) > limit {
		*rows = (*rows)[:limit]
		return true
	}
	return false
}
