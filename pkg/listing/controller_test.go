package listing

import (
	"context"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suyashkore/tms-console/modules/company"
	"github.com/suyashkore/tms-console/pkg/logging"
	"github.com/suyashkore/tms-console/pkg/query"
	"github.com/suyashkore/tms-console/pkg/schema"
	"github.com/suyashkore/tms-console/pkg/serrors"
)

type listCall struct {
	values url.Values
}

type stubGateway struct {
	sch             schema.Schema
	listFn          func(call int, values url.Values) ([]schema.Record, int64, error)
	listCalls       []listCall
	deactivateCalls []int64
	deleteCalls     []int64
	deactivateErr   error
	exportValues    url.Values
}

func (s *stubGateway) Schema() schema.Schema { return s.sch }

func (s *stubGateway) List(_ context.Context, values url.Values) ([]schema.Record, int64, error) {
	s.listCalls = append(s.listCalls, listCall{values: values})
	return s.listFn(len(s.listCalls), values)
}

func (s *stubGateway) Deactivate(_ context.Context, id int64) error {
	s.deactivateCalls = append(s.deactivateCalls, id)
	return s.deactivateErr
}

func (s *stubGateway) Delete(_ context.Context, id int64) error {
	s.deleteCalls = append(s.deleteCalls, id)
	return nil
}

func (s *stubGateway) ExportBatch(_ context.Context, values url.Values) (string, []byte, error) {
	s.exportValues = values
	return "companies.xlsx", []byte("blob"), nil
}

func makeRows(n int) []schema.Record {
	rows := make([]schema.Record, 0, n)
	for i := 0; i < n; i++ {
		rec := company.New()
		rec.SetEntityID(int64(i + 1))
		rows = append(rows, rec)
	}
	return rows
}

func testLogger() *logrus.Logger {
	return logging.ConsoleLogger(logrus.PanicLevel)
}

func TestLoad_SuccessReplacesRowsAndTotalTogether(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) {
		return makeRows(5), 17, nil
	}
	c := New(gw, testLogger())

	require.NoError(t, c.Load(context.Background()))

	assert.Len(t, c.Rows(), 5)
	assert.Equal(t, int64(17), c.Total())
	assert.Equal(t, StateLoaded, c.State())
	assert.Nil(t, c.Err())
}

func TestLoad_FailureKeepsStaleRowsVisible(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(call int, _ url.Values) ([]schema.Record, int64, error) {
		if call == 1 {
			return makeRows(5), 5, nil
		}
		return nil, 0, serrors.NewMessage("backend unavailable")
	}
	c := New(gw, testLogger())
	require.NoError(t, c.Load(context.Background()))

	err := c.Load(context.Background())

	require.Error(t, err)
	assert.Len(t, c.Rows(), 5, "stale rows must stay visible")
	assert.Equal(t, int64(5), c.Total())
	assert.Equal(t, StateError, c.State())
	require.NotNil(t, c.Err())
	assert.Equal(t, "backend unavailable", c.Err().Text)
}

func TestLoad_StaleResponseIsDiscarded(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	slowRelease := make(chan struct{})
	entered := make(chan struct{})
	gw.listFn = func(call int, _ url.Values) ([]schema.Record, int64, error) {
		if call == 1 {
			close(entered)
			<-slowRelease
			return makeRows(1), 1, nil
		}
		return makeRows(3), 3, nil
	}
	c := New(gw, testLogger())

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background()) }()
	<-entered

	// A second load supersedes the in-flight one.
	require.NoError(t, c.Load(context.Background()))
	close(slowRelease)
	require.NoError(t, <-done)

	assert.Len(t, c.Rows(), 3, "the superseded response must not overwrite the newer page")
	assert.Equal(t, int64(3), c.Total())
}

func TestSetters_TriggerExactlyOneFetchEach(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) {
		return nil, 0, nil
	}
	c := New(gw, testLogger())
	ctx := context.Background()

	require.NoError(t, c.SetPagination(ctx, query.Pagination{Page: 2, PerPage: 50}))
	require.NoError(t, c.SetSort(ctx, query.Sort{By: "name", Order: "asc"}))
	require.NoError(t, c.SetColumnFilters(ctx, map[string]any{"active": true}))
	require.NoError(t, c.SetAdvancedFilters(ctx, map[string]any{"city": "Pune"}))

	require.Len(t, gw.listCalls, 4)
	// Pagination translated to 1-based on the wire.
	assert.Equal(t, "3", gw.listCalls[0].values.Get("page"))
	assert.Equal(t, "name", gw.listCalls[1].values.Get("sort_by"))
	assert.Equal(t, "true", gw.listCalls[2].values.Get("active"))
	// Filter changes rewind to the first page.
	assert.Equal(t, "1", gw.listCalls[3].values.Get("page"))
	assert.Equal(t, "Pune", gw.listCalls[3].values.Get("city"))
}

func TestRequestDestructive_RequiresExactlyOneSelectedRow(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) {
		return makeRows(3), 3, nil
	}
	c := New(gw, testLogger())

	assert.False(t, c.RequestDestructive(ActionDelete, 1), "empty selection")

	c.SetSelection([]int64{1, 2})
	assert.False(t, c.RequestDestructive(ActionDelete, 1), "plural selection")

	c.SetSelection([]int64{2})
	assert.False(t, c.RequestDestructive(ActionDelete, 1), "id mismatch")
	assert.True(t, c.RequestDestructive(ActionDelete, 2))

	// The gateway is untouched until confirmation.
	assert.Empty(t, gw.deleteCalls)

	action, id, pending := c.PendingDestructive()
	assert.True(t, pending)
	assert.Equal(t, ActionDelete, action)
	assert.Equal(t, int64(2), id)
}

func TestConfirmDestructive_CallsGatewayAndReloads(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) {
		return makeRows(2), 2, nil
	}
	c := New(gw, testLogger())
	c.SetSelection([]int64{2})
	require.True(t, c.RequestDestructive(ActionDeactivate, 2))

	require.NoError(t, c.ConfirmDestructive(context.Background()))

	assert.Equal(t, []int64{2}, gw.deactivateCalls)
	assert.Len(t, gw.listCalls, 1, "reload after mutation")
	assert.Empty(t, c.Selection())
	_, _, pending := c.PendingDestructive()
	assert.False(t, pending)
}

func TestConfirmDestructive_ReloadFailureIsSwallowed(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) {
		return nil, 0, serrors.NewMessage("reload failed")
	}
	c := New(gw, testLogger())
	c.SetSelection([]int64{1})
	require.True(t, c.RequestDestructive(ActionDelete, 1))

	// The action itself succeeded; the failed best-effort reload must not
	// mask that.
	assert.NoError(t, c.ConfirmDestructive(context.Background()))
	assert.Equal(t, []int64{1}, gw.deleteCalls)
}

func TestConfirmDestructive_ActionFailureIsSurfaced(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.deactivateErr = serrors.NewMessage("cannot deactivate")
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) {
		return nil, 0, nil
	}
	c := New(gw, testLogger())
	c.SetSelection([]int64{1})
	require.True(t, c.RequestDestructive(ActionDeactivate, 1))

	err := c.ConfirmDestructive(context.Background())

	require.Error(t, err)
	assert.Equal(t, "cannot deactivate", serrors.From(err).Text)
}

func TestCancelDestructive(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) { return nil, 0, nil }
	c := New(gw, testLogger())
	c.SetSelection([]int64{1})
	require.True(t, c.RequestDestructive(ActionDelete, 1))

	c.CancelDestructive()

	err := c.ConfirmDestructive(context.Background())
	require.Error(t, err)
	assert.Empty(t, gw.deleteCalls)
}

func TestExport_StripsPaginationButKeepsFiltersAndSort(t *testing.T) {
	gw := &stubGateway{sch: company.Schema()}
	gw.listFn = func(int, url.Values) ([]schema.Record, int64, error) { return nil, 0, nil }
	c := New(gw, testLogger())
	ctx := context.Background()
	require.NoError(t, c.SetSort(ctx, query.Sort{By: "name", Order: "asc"}))
	require.NoError(t, c.SetColumnFilters(ctx, map[string]any{"city": "Pune"}))

	filename, data, err := c.Export(ctx)

	require.NoError(t, err)
	assert.Equal(t, "companies.xlsx", filename)
	assert.Equal(t, []byte("blob"), data)
	_, hasPage := gw.exportValues["page"]
	_, hasPerPage := gw.exportValues["per_page"]
	assert.False(t, hasPage)
	assert.False(t, hasPerPage)
	assert.Equal(t, "name", gw.exportValues.Get("sort_by"))
	assert.Equal(t, "Pune", gw.exportValues.Get("city"))
}
