// Package listing orchestrates the server-driven list screen: query
// composition, loading state, row selection and confirmation-gated
// destructive actions. One Controller per mounted screen.
package listing

import (
	"context"
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/suyashkore/tms-console/pkg/eventbus"
	"github.com/suyashkore/tms-console/pkg/query"
	"github.com/suyashkore/tms-console/pkg/schema"
	"github.com/suyashkore/tms-console/pkg/serrors"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateError   State = "error"
)

type DestructiveAction string

const (
	ActionDeactivate DestructiveAction = "deactivate"
	ActionDelete     DestructiveAction = "delete"
)

// Gateway is the slice of the entity gateway the list screen consumes.
// *gateway.Client satisfies it.
type Gateway interface {
	Schema() schema.Schema
	List(ctx context.Context, values url.Values) ([]schema.Record, int64, error)
	Deactivate(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	ExportBatch(ctx context.Context, values url.Values) (string, []byte, error)
}

type pendingAction struct {
	action DestructiveAction
	id     int64
}

type Controller struct {
	gw  Gateway
	log *logrus.Entry
	bus eventbus.EventBus

	mu              sync.Mutex
	pagination      query.Pagination
	sort            query.Sort
	columnFilters   map[string]any
	advancedFilters map[string]any

	rows    []schema.Record
	total   int64
	state   State
	lastErr *serrors.Normalized

	// generation makes the last-initiated load win: a response whose
	// generation is no longer current is discarded instead of
	// overwriting a newer page.
	generation uint64

	selection []int64
	pending   *pendingAction
}

type Option func(*Controller)

func WithEventBus(bus eventbus.EventBus) Option {
	return func(c *Controller) { c.bus = bus }
}

func WithPerPage(perPage int) Option {
	return func(c *Controller) { c.pagination.PerPage = perPage }
}

// Mount-time state, e.g. restored from a persisted URL. Unlike the setters
// these do not trigger a load; call Load once after construction.

func WithPagination(p query.Pagination) Option {
	return func(c *Controller) { c.pagination = p }
}

func WithSort(s query.Sort) Option {
	return func(c *Controller) { c.sort = s }
}

func WithColumnFilters(filters map[string]any) Option {
	return func(c *Controller) { c.columnFilters = filters }
}

func WithAdvancedFilters(filters map[string]any) Option {
	return func(c *Controller) { c.advancedFilters = filters }
}

func New(gw Gateway, logger *logrus.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Controller{
		gw:         gw,
		log:        logger.WithField("resource", gw.Schema().Resource),
		pagination: query.Pagination{Page: 0, PerPage: 25},
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rows returns the materialized page. After a failed refresh this is still
// the previously loaded page (stale-but-present).
func (c *Controller) Rows() []schema.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

func (c *Controller) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Err() *serrors.Normalized {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller) Pagination() query.Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination
}

func (c *Controller) Sort() query.Sort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

// SetPagination changes the page window and triggers exactly one reload.
func (c *Controller) SetPagination(ctx context.Context, p query.Pagination) error {
	c.mu.Lock()
	c.pagination = p
	c.mu.Unlock()
	return c.Load(ctx)
}

func (c *Controller) SetSort(ctx context.Context, s query.Sort) error {
	c.mu.Lock()
	c.sort = s
	c.mu.Unlock()
	return c.Load(ctx)
}

// SetColumnFilters replaces the per-column filter map and rewinds to the
// first page, then triggers exactly one reload.
func (c *Controller) SetColumnFilters(ctx context.Context, filters map[string]any) error {
	c.mu.Lock()
	c.columnFilters = filters
	c.pagination.Page = 0
	c.mu.Unlock()
	return c.Load(ctx)
}

func (c *Controller) SetAdvancedFilters(ctx context.Context, filters map[string]any) error {
	c.mu.Lock()
	c.advancedFilters = filters
	c.pagination.Page = 0
	c.mu.Unlock()
	return c.Load(ctx)
}

// Query returns the composed query object for the current filter state.
func (c *Controller) Query() url.Values {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.composeLocked()
}

func (c *Controller) composeLocked() url.Values {
	return query.Compose(c.pagination, c.sort, c.columnFilters, c.advancedFilters)
}

// Load fetches the current page. On success rows and total are replaced
// together; on failure the previous rows stay visible and only the error
// state changes, so a failed refresh never blanks the screen. Overlapping
// loads are resolved by generation: only the newest one commits.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	values := c.composeLocked()
	c.state = StateLoading
	c.mu.Unlock()

	rows, total, err := c.gw.List(ctx, values)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		// A newer load superseded this one; discard the result.
		return nil
	}
	if err != nil {
		c.state = StateError
		c.lastErr = serrors.From(err)
		return c.lastErr
	}
	c.rows = rows
	c.total = total
	c.state = StateLoaded
	c.lastErr = nil
	return nil
}

// SetSelection replaces the selected row ids. Multi-select is allowed, but
// destructive and edit actions only act when exactly one row is selected.
func (c *Controller) SetSelection(ids []int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection = append([]int64(nil), ids...)
}

func (c *Controller) Selection() []int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int64(nil), c.selection...)
}

// SelectedID returns the single selected row id, or false when the
// selection is empty or plural.
func (c *Controller) SelectedID() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedIDLocked()
}

func (c *Controller) selectedIDLocked() (int64, bool) {
	if len(c.selection) != 1 {
		return 0, false
	}
	return c.selection[0], true
}

// RequestDestructive opens the confirmation gate for the given action on
// the single selected row. It is a no-op (false) unless exactly one row is
// selected and matches id. The gateway is not called until confirmation.
func (c *Controller) RequestDestructive(action DestructiveAction, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	selected, ok := c.selectedIDLocked()
	if !ok || selected != id {
		return false
	}
	c.pending = &pendingAction{action: action, id: id}
	return true
}

// PendingDestructive exposes the action awaiting confirmation, if any.
func (c *Controller) PendingDestructive() (DestructiveAction, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", 0, false
	}
	return c.pending.action, c.pending.id, true
}

func (c *Controller) CancelDestructive() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// ConfirmDestructive performs the gated action, then reloads best-effort:
// a reload failure is logged, not surfaced, so it cannot mask the action's
// own outcome.
func (c *Controller) ConfirmDestructive(ctx context.Context) error {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return serrors.NewMessage("no destructive action pending")
	}
	pending := *c.pending
	c.pending = nil
	c.selection = nil
	c.mu.Unlock()

	var err error
	switch pending.action {
	case ActionDeactivate:
		err = c.gw.Deactivate(ctx, pending.id)
	case ActionDelete:
		err = c.gw.Delete(ctx, pending.id)
	default:
		return serrors.NewMessage("unknown destructive action")
	}

	actionErr := serrors.From(err)
	if actionErr == nil && c.bus != nil {
		c.bus.Publish(eventbus.EntityRemoved{
			Resource: c.gw.Schema().Resource,
			ID:       pending.id,
			Action:   string(pending.action),
		})
	}

	if reloadErr := c.Load(ctx); reloadErr != nil {
		c.log.WithError(reloadErr).Warn("reload after destructive action failed")
	}

	if actionErr != nil {
		return actionErr
	}
	return nil
}

// Export streams all rows matching the current filters, never just the
// current page.
func (c *Controller) Export(ctx context.Context) (string, []byte, error) {
	return c.gw.ExportBatch(ctx, query.WithoutPagination(c.Query()))
}
