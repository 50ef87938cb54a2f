package query

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompose_PageIsTranslatedToOneBased(t *testing.T) {
	for _, page := range []int{0, 1, 7, 99} {
		values := Compose(Pagination{Page: page, PerPage: 25}, Sort{}, nil, nil)
		assert.Equal(t, strconv.Itoa(page+1), values.Get("page"))
	}
}

func TestCompose_DefaultSort(t *testing.T) {
	values := Compose(Pagination{PerPage: 25}, Sort{}, nil, nil)
	assert.Equal(t, "updated_at", values.Get("sort_by"))
	assert.Equal(t, "desc", values.Get("sort_order"))
}

func TestCompose_ExplicitSort(t *testing.T) {
	values := Compose(Pagination{PerPage: 25}, Sort{By: "name", Order: OrderAsc}, nil, nil)
	assert.Equal(t, "name", values.Get("sort_by"))
	assert.Equal(t, "asc", values.Get("sort_order"))
}

func TestCompose_EmptyFilterValuesNeverAppear(t *testing.T) {
	var nilBool *bool
	var nilStr *string
	column := map[string]any{
		"name":   "",
		"code":   nilStr,
		"status": nil,
	}
	advanced := map[string]any{
		"active":  nilBool,
		"created": time.Time{},
	}

	values := Compose(Pagination{PerPage: 25}, Sort{}, column, advanced)

	for _, key := range []string{"name", "code", "status", "active", "created"} {
		_, present := values[key]
		assert.False(t, present, "key %q must not appear", key)
	}
}

// Advanced filters silently win over column filters on key collision; the
// composition order makes this easy to invert accidentally, so it is
// locked here.
func TestCompose_AdvancedFilterWinsOnCollision(t *testing.T) {
	column := map[string]any{"x": 1}
	advanced := map[string]any{"x": 2}

	values := Compose(Pagination{PerPage: 25}, Sort{}, column, advanced)

	assert.Equal(t, "2", values.Get("x"))
}

func TestCompose_ScalarFormats(t *testing.T) {
	active := true
	column := map[string]any{
		"name":    "Acme",
		"active":  &active,
		"count":   int64(12),
		"rate":    2.5,
		"from_ts": time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	values := Compose(Pagination{PerPage: 25}, Sort{}, column, nil)

	assert.Equal(t, "Acme", values.Get("name"))
	assert.Equal(t, "true", values.Get("active"))
	assert.Equal(t, "12", values.Get("count"))
	assert.Equal(t, "2.5", values.Get("rate"))
	assert.Equal(t, "2025-03-01T10:00:00Z", values.Get("from_ts"))
}

func TestCompose_DateRangeExpands(t *testing.T) {
	advanced := map[string]any{
		"created_at": DateRange{
			From: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		},
		"updated_at": DateRange{
			From: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	values := Compose(Pagination{PerPage: 25}, Sort{}, nil, advanced)

	assert.Equal(t, "2025-01-01", values.Get("created_at_from"))
	assert.Equal(t, "2025-01-31", values.Get("created_at_to"))
	assert.Equal(t, "2025-02-01", values.Get("updated_at_from"))
	_, present := values["updated_at_to"]
	assert.False(t, present)
}

func TestWithoutPagination(t *testing.T) {
	values := Compose(Pagination{Page: 3, PerPage: 50}, Sort{By: "name"}, map[string]any{"active": true}, nil)

	stripped := WithoutPagination(values)

	_, hasPage := stripped["page"]
	_, hasPerPage := stripped["per_page"]
	assert.False(t, hasPage)
	assert.False(t, hasPerPage)
	assert.Equal(t, "name", stripped.Get("sort_by"))
	assert.Equal(t, "true", stripped.Get("active"))
}
