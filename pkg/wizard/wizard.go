// Package wizard is the three-step create/edit state machine: Data entry,
// Preview, Confirmation. Create and edit share the machine; the only
// difference is whether the initial draft is blank or fetched.
package wizard

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/suyashkore/tms-console/pkg/eventbus"
	"github.com/suyashkore/tms-console/pkg/schema"
	"github.com/suyashkore/tms-console/pkg/serrors"
)

type Step int

const (
	StepData Step = iota
	StepPreview
	StepConfirmation
)

// Persister is the slice of the entity gateway the wizard consumes.
// *gateway.Client satisfies it.
type Persister interface {
	Schema() schema.Schema
	GetByID(ctx context.Context, id int64) (schema.Record, error)
	Create(ctx context.Context, rec schema.Record) (schema.Record, error)
	Update(ctx context.Context, rec schema.Record) (schema.Record, error)
}

// AttachmentUploader uploads one file against a persisted record id and
// returns the stored URL. *attachment.Uploader satisfies it.
type AttachmentUploader interface {
	Upload(ctx context.Context, id int64, field, filename string, file io.Reader) (string, error)
}

// ErrSubmitInFlight rejects a second submission while one is running.
var ErrSubmitInFlight = serrors.NewError("WIZARD_SUBMIT_IN_FLIGHT", "a submission is already in progress")

type Controller struct {
	gw       Persister
	sch      schema.Schema
	log      *logrus.Entry
	bus      eventbus.EventBus
	uploader AttachmentUploader

	mu               sync.Mutex
	step             Step
	draft            schema.Record
	validationErrors serrors.ValidationErrors
	touched          map[string]bool
	apiSuccess       *bool
	responseMessage  string
	errorResponse    *serrors.Normalized
	inFlight         bool
}

type Option func(*Controller)

func WithEventBus(bus eventbus.EventBus) Option {
	return func(c *Controller) { c.bus = bus }
}

func WithUploader(u AttachmentUploader) Option {
	return func(c *Controller) { c.uploader = u }
}

// NewCreate mounts the wizard with a blank draft.
func NewCreate(gw Persister, logger *logrus.Logger, opts ...Option) *Controller {
	return newController(gw, gw.Schema().New(), logger, opts...)
}

// NewEdit mounts the wizard over the fetched record.
func NewEdit(ctx context.Context, gw Persister, id int64, logger *logrus.Logger, opts ...Option) (*Controller, error) {
	rec, err := gw.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return newController(gw, rec, logger, opts...), nil
}

func newController(gw Persister, draft schema.Record, logger *logrus.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	c := &Controller{
		gw:               gw,
		sch:              gw.Schema(),
		log:              logger.WithField("resource", gw.Schema().Resource),
		step:             StepData,
		draft:            draft,
		validationErrors: serrors.ValidationErrors{},
		touched:          map[string]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Draft returns the in-progress record. After a successful submission this
// is the canonical record the backend returned.
func (c *Controller) Draft() schema.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) ValidationErrors() serrors.ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validationErrors
}

func (c *Controller) Touched(field string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched[field]
}

// APISuccess is nil before a persistence attempt, then true or false.
func (c *Controller) APISuccess() *bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiSuccess
}

func (c *Controller) ResponseMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responseMessage
}

func (c *Controller) ErrorResponse() *serrors.Normalized {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorResponse
}

// HandlePreview validates the draft. On success the wizard advances to
// Preview; on failure it stays at Data with every declared field marked
// touched so error text renders.
func (c *Controller) HandlePreview() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepData {
		return false
	}
	if !c.validateLocked() {
		return false
	}
	c.step = StepPreview
	return true
}

// HandleBack returns from Preview to Data. Confirmation is terminal; the
// only exit from it is unmounting the controller.
func (c *Controller) HandleBack() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step != StepPreview {
		return false
	}
	c.step = StepData
	return true
}

// Submit runs the persistence call. From Data it requires skipPreview=true
// (the primary button) and validates first: an invalid draft never leaves
// Data and the validation failure is returned. From Preview it persists
// and advances to Confirmation unconditionally once the attempt resolves:
// success and failure both land there, with the outcome recorded in
// APISuccess, ResponseMessage and ErrorResponse. The returned error covers
// misuse and validation only; a failed persistence attempt is a completed
// flow and returns nil.
func (c *Controller) Submit(ctx context.Context, skipPreview bool) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrSubmitInFlight
	}
	switch c.step {
	case StepData:
		if !skipPreview {
			c.mu.Unlock()
			return serrors.NewMessage("use HandlePreview to advance from the data step")
		}
		if !c.validateLocked() {
			errs := c.validationErrors
			c.mu.Unlock()
			return serrors.NewValidation(errs, "draft is invalid")
		}
	case StepPreview:
		// Reaching Preview required validation already.
	default:
		c.mu.Unlock()
		return serrors.NewMessage("submission is not available at the confirmation step")
	}
	c.inFlight = true
	draft := c.draft
	creating := draft.EntityID() == nil
	c.mu.Unlock()

	var (
		saved schema.Record
		err   error
	)
	if creating {
		saved, err = c.gw.Create(ctx, draft)
	} else {
		saved, err = c.gw.Update(ctx, draft)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	c.step = StepConfirmation

	if err != nil {
		failure := serrors.From(err)
		success := false
		c.apiSuccess = &success
		c.responseMessage = failure.Message()
		c.errorResponse = failure
		return nil
	}

	c.draft = saved
	success := true
	c.apiSuccess = &success
	c.errorResponse = nil

	verb := "updated"
	event := any(eventbus.EntityUpdated{Resource: c.sch.Resource, ID: *saved.EntityID()})
	if creating {
		verb = "created"
		event = eventbus.EntityCreated{Resource: c.sch.Resource, ID: *saved.EntityID()}
	}
	c.responseMessage = fmt.Sprintf("Successfully %s %s with ID: %d", verb, c.sch.Label, *saved.EntityID())

	if c.bus != nil {
		c.bus.Publish(event)
	}
	return nil
}

// UploadAttachment uploads a single file against the persisted draft and
// splices the returned URL into the draft's url field.
func (c *Controller) UploadAttachment(ctx context.Context, field, filename string, file io.Reader) (string, error) {
	c.mu.Lock()
	if c.uploader == nil {
		c.mu.Unlock()
		return "", serrors.NewMessage("no attachment uploader configured")
	}
	id := c.draft.EntityID()
	if id == nil {
		c.mu.Unlock()
		return "", serrors.NewMessage("attachments require a persisted record")
	}
	af, ok := c.sch.Attachment(field)
	if !ok {
		c.mu.Unlock()
		return "", serrors.NewMessage(fmt.Sprintf("%s has no attachment field %q", c.sch.Label, field))
	}
	c.mu.Unlock()

	newURL, err := c.uploader.Upload(ctx, *id, field, filename, file)
	if err != nil {
		return "", serrors.From(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	af.Apply(c.draft, newURL)
	return newURL, nil
}

// validateLocked runs schema validation over the draft, recording failures
// and marking every declared field touched on failure.
func (c *Controller) validateLocked() bool {
	errs, ok := c.sch.Validate(c.draft)
	c.validationErrors = errs
	if ok {
		return true
	}
	for _, field := range c.sch.Fields {
		c.touched[field] = true
	}
	return false
}
