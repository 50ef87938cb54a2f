package stubserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyashkore/tms-console/modules/company"
	"github.com/suyashkore/tms-console/pkg/httpapi"
	"github.com/suyashkore/tms-console/pkg/logging"
	"github.com/suyashkore/tms-console/pkg/schema"
)

func newServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sch := company.Schema()
	stub := New(map[string]schema.Schema{sch.Resource: sch}, logging.ConsoleLogger(logrus.PanicLevel))
	srv := httptest.NewServer(stub.Handler())
	t.Cleanup(srv.Close)
	return stub, srv
}

func listBody(t *testing.T, srv *httptest.Server, query string) httpapi.ListBody {
	t.Helper()
	resp, err := http.Get(srv.URL + "/companies" + query)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body httpapi.ListBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestList_PaginationWindow(t *testing.T) {
	stub, srv := newServer(t)
	for i := 1; i <= 7; i++ {
		stub.Seed("companies", map[string]any{"name": fmt.Sprintf("C%02d", i), "code": fmt.Sprintf("C%d", i)})
	}

	body := listBody(t, srv, "?page=2&per_page=3&sort_by=name&sort_order=asc")

	assert.Equal(t, int64(7), body.Total, "total counts all matching rows, not the page")
	require.Len(t, body.Data, 3)
	var row map[string]any
	require.NoError(t, json.Unmarshal(body.Data[0], &row))
	assert.Equal(t, "C04", row["name"])
}

func TestList_PageBeyondEndIsEmpty(t *testing.T) {
	stub, srv := newServer(t)
	stub.Seed("companies", map[string]any{"name": "Alpha", "code": "AL1"})

	body := listBody(t, srv, "?page=9&per_page=25")

	assert.Equal(t, int64(1), body.Total)
	assert.Empty(t, body.Data)
}

func TestList_RangeKeysDoNotExactMatch(t *testing.T) {
	stub, srv := newServer(t)
	stub.Seed("companies", map[string]any{"name": "Alpha", "code": "AL1"})

	// _from/_to keys are range markers, never exact-match filters.
	body := listBody(t, srv, "?created_at_from=2020-01-01&created_at_to=2030-01-01")

	assert.Equal(t, int64(1), body.Total)
}

func TestUpdate_DuplicateCodeExcludesSelf(t *testing.T) {
	stub, srv := newServer(t)
	id := stub.Seed("companies", map[string]any{"name": "Alpha", "code": "AL1"})
	stub.Seed("companies", map[string]any{"name": "Beta", "code": "BE1"})

	// Re-submitting a record with its own code is not a duplicate.
	payload, _ := json.Marshal(map[string]any{"name": "Alpha Renamed", "code": "AL1"})
	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/companies/%d", srv.URL, id), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Taking another record's code is.
	payload, _ = json.Marshal(map[string]any{"name": "Alpha", "code": "BE1"})
	req, _ = http.NewRequest(http.MethodPut, fmt.Sprintf("%s/companies/%d", srv.URL, id), bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body httpapi.ErrorBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"Code already exists"}, body.Errors["code"])
}

func TestGet_UnknownIDIs404(t *testing.T) {
	_, srv := newServer(t)

	resp, err := http.Get(srv.URL + "/companies/id/999")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
