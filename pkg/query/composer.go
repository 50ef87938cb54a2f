// Package query composes the canonical server-driven list query from its
// three independent sources: pagination+sort, per-column filters and the
// advanced filter panel.
package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultSortBy    = "updated_at"
	DefaultSortOrder = "desc"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Pagination is 0-based internally; Compose translates Page to the
// backend's 1-based page parameter.
type Pagination struct {
	Page    int
	PerPage int
}

type Sort struct {
	By    string
	Order string
}

// DateRange is an advanced-filter value expanding to <field>_from and
// <field>_to keys. Zero bounds are omitted.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Compose merges the filter sources into one query object. The merge order
// is fixed: page, per_page, sort_by, sort_order, column filters, advanced
// filters. On key collision the advanced filter wins (last write). Entries
// with empty values never appear in the output.
func Compose(p Pagination, s Sort, columnFilters, advancedFilters map[string]any) url.Values {
	values := url.Values{}

	values.Set("page", strconv.Itoa(p.Page+1))
	perPage := p.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	values.Set("per_page", strconv.Itoa(perPage))

	sortBy, sortOrder := s.By, s.Order
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	if sortOrder == "" {
		sortOrder = DefaultSortOrder
	}
	values.Set("sort_by", sortBy)
	values.Set("sort_order", sortOrder)

	applyFilters(values, columnFilters)
	applyFilters(values, advancedFilters)

	return values
}

// WithoutPagination strips page/per_page for "all matching rows" requests
// such as export.
func WithoutPagination(values url.Values) url.Values {
	out := url.Values{}
	for key, vs := range values {
		if key == "page" || key == "per_page" {
			continue
		}
		out[key] = append([]string(nil), vs...)
	}
	return out
}

func applyFilters(values url.Values, filters map[string]any) {
	keys := make([]string, 0, len(filters))
	for key := range filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" {
			continue
		}
		switch v := filters[key].(type) {
		case DateRange:
			if !v.From.IsZero() {
				values.Set(key+"_from", v.From.Format("2006-01-02"))
			}
			if !v.To.IsZero() {
				values.Set(key+"_to", v.To.Format("2006-01-02"))
			}
		default:
			if formatted, ok := formatScalar(v); ok {
				values.Set(key, formatted)
			}
		}
	}
}

// formatScalar renders a filter value. The second return is false for
// values that must be excluded from the query entirely.
func formatScalar(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		if val == "" {
			return "", false
		}
		return val, true
	case *string:
		if val == nil || *val == "" {
			return "", false
		}
		return *val, true
	case bool:
		return strconv.FormatBool(val), true
	case *bool:
		if val == nil {
			return "", false
		}
		return strconv.FormatBool(*val), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case *int64:
		if val == nil {
			return "", false
		}
		return strconv.FormatInt(*val, 10), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case decimal.Decimal:
		return val.String(), true
	case time.Time:
		if val.IsZero() {
			return "", false
		}
		return val.Format(time.RFC3339), true
	default:
		return fmt.Sprintf("%v", val), true
	}
}
