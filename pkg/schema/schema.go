// Package schema declares the per-entity descriptor the workflow engine is
// parametrized with. Entity differences live here as data; the surrounding
// machinery (gateway, listing, wizard, batch) is shared.
package schema

import (
	"github.com/go-playground/validator/v10"

	"github.com/suyashkore/tms-console/pkg/constants"
	"github.com/suyashkore/tms-console/pkg/serrors"
)

// Record is any managed domain object. A record with a non-nil id is
// persisted; a nil id marks a draft.
type Record interface {
	EntityID() *int64
	SetEntityID(id int64)
}

// AttachmentField describes a document-URL field a single-file upload can
// target. Apply splices the uploaded file's URL back into the record.
type AttachmentField struct {
	Name  string
	Apply func(rec Record, url string)
}

// Schema is the configuration table entry for one entity type.
type Schema struct {
	// Resource is the REST path segment, e.g. "companies".
	Resource string
	// Label is the human-readable singular name, e.g. "Company".
	Label string
	// New allocates a blank draft record.
	New func() Record
	// Fields lists the declared wire field names, used by the wizard to
	// mark every field touched after a failed validation.
	Fields []string
	// AttachmentFields lists the record's uploadable document fields.
	AttachmentFields []AttachmentField
	// TemplateFilename and ExportFilename are fallbacks when the backend
	// sends no usable content-disposition header.
	TemplateFilename string
	ExportFilename   string
}

// Validate runs the shared validator over the record and returns the
// failures in wire shape. The second return is true when the record is valid.
func (s Schema) Validate(rec Record) (serrors.ValidationErrors, bool) {
	err := constants.Validate.Struct(rec)
	if err == nil {
		return serrors.ValidationErrors{}, true
	}
	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return serrors.ValidationErrors{"": {err.Error()}}, false
	}
	return serrors.ProcessValidatorErrors(validatorErrs), false
}

// Attachment looks up an attachment field by its wire name.
func (s Schema) Attachment(field string) (AttachmentField, bool) {
	for _, af := range s.AttachmentFields {
		if af.Name == field {
			return af, true
		}
	}
	return AttachmentField{}, false
}
