package params

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rental/internal/calendar"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100

	// MaxSpanDays caps how many calendar days one availability request covers.
	MaxSpanDays = 400
)

// URL: /v1/admin/bookings?page=2&limit=30
// → ParsePagination() → Pagination{Limit:30, Page:2, Offset:30}
// → repository LIMIT 30 OFFSET 30 with COUNT(*) OVER()
// → ComputeMeta(total) fills TotalPages, HasNext, etc.
type Pagination struct {
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	Page       int  `json:"page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePagination parses ?limit=...&page=... Bad values fall back to defaults.
func ParsePagination(q url.Values) Pagination {
	p := Pagination{
		Limit: DefaultLimit,
		Page:  1,
	}

	if limitStr := strings.TrimSpace(q.Get("limit")); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			switch {
			case limit <= 0:
				p.Limit = DefaultLimit
			case limit > MaxLimit:
				p.Limit = MaxLimit
			default:
				p.Limit = limit
			}
		}
	}

	if pageStr := strings.TrimSpace(q.Get("page")); pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page > 0 {
			p.Page = page
		}
	}

	p.Offset = (p.Page - 1) * p.Limit
	return p
}

// ComputeMeta updates pagination after fetching total count.
func (p *Pagination) ComputeMeta(total int) {
	p.Total = total
	if p.Limit > 0 {
		p.TotalPages = int(math.Ceil(float64(total) / float64(p.Limit)))
	}
	p.HasPrev = p.Page > 1
	p.HasNext = (p.Page * p.Limit) < total
}

// ParseSpan reads ?from=YYYY-MM-DD&to=YYYY-MM-DD (both inclusive). Missing
// from defaults to today and missing to covers defaultDays days from it.
func ParseSpan(q url.Values, today time.Time, defaultDays int) (from, to time.Time, err error) {
	from = today
	if s := strings.TrimSpace(q.Get("from")); s != "" {
		if from, err = calendar.ParseDay(s); err != nil {
			return from, to, fmt.Errorf("from: %w", err)
		}
	}

	to = calendar.AddDays(from, defaultDays-1)
	if s := strings.TrimSpace(q.Get("to")); s != "" {
		if to, err = calendar.ParseDay(s); err != nil {
			return from, to, fmt.Errorf("to: %w", err)
		}
	}

	if to.Before(from) {
		return from, to, fmt.Errorf("to must not be before from")
	}
	if calendar.Nights(from, to) >= MaxSpanDays {
		return from, to, fmt.Errorf("span is limited to %d days", MaxSpanDays)
	}
	return from, to, nil
}
