// Package serrors normalizes the backend's heterogeneous failure shapes
// into the single taxonomy every controller consumes: a per-field
// validation map or a single human-readable message.
package serrors

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/suyashkore/tms-console/pkg/httpapi"
)

// GenericFailureText is used when a failure carries no message at all.
const GenericFailureText = "request failed"

type Kind string

const (
	KindValidation Kind = "validation"
	KindMessage    Kind = "message"
)

// ValidationErrors maps a wire field name to its message list, verbatim as
// returned by the backend. Humanization of field names is a render-time
// concern and never happens here.
type ValidationErrors map[string][]string

// Fields returns the field names in stable order.
func (v ValidationErrors) Fields() []string {
	names := make([]string, 0, len(v))
	for name := range v {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalized is the single error shape all UI consumers depend on.
type Normalized struct {
	Kind   Kind
	Fields ValidationErrors
	Text   string
}

func (n *Normalized) Error() string {
	if n.Kind == KindValidation {
		return fmt.Sprintf("validation failed on %d field(s)", len(n.Fields))
	}
	return n.Text
}

// Message returns the best top-level text for banner rendering.
func (n *Normalized) Message() string {
	if n.Kind == KindValidation {
		if n.Text != "" {
			return n.Text
		}
		return "validation failed"
	}
	return n.Text
}

func NewValidation(fields ValidationErrors, text string) *Normalized {
	return &Normalized{Kind: KindValidation, Fields: fields, Text: text}
}

func NewMessage(text string) *Normalized {
	if text == "" {
		text = GenericFailureText
	}
	return &Normalized{Kind: KindMessage, Text: text}
}

// Base is a coded sentinel error for infrastructure packages.
type Base struct {
	Code    string
	Message string
}

func (b *Base) Error() string {
	return fmt.Sprintf("%s: %s", b.Code, b.Message)
}

func NewError(code, message string) *Base {
	return &Base{Code: code, Message: message}
}

// Translate converts a raw transport failure into a Normalized error.
// A structured per-field payload wins over a top-level message; anything
// without a usable message falls back to GenericFailureText.
func Translate(err error) *Normalized {
	if err == nil {
		return nil
	}
	if n, ok := err.(*Normalized); ok {
		return n
	}
	if resp, ok := err.(*httpapi.ResponseError); ok {
		return translateResponse(resp)
	}
	return NewMessage(err.Error())
}

func translateResponse(resp *httpapi.ResponseError) *Normalized {
	var body httpapi.ErrorBody
	if unmarshalErr := json.Unmarshal(resp.Body, &body); unmarshalErr != nil {
		return NewMessage(GenericFailureText)
	}
	if len(body.Errors) > 0 {
		return NewValidation(ValidationErrors(body.Errors), body.Message)
	}
	if body.Message != "" {
		return NewMessage(body.Message)
	}
	if body.Error != "" {
		return NewMessage(body.Error)
	}
	return NewMessage(GenericFailureText)
}

// From extracts a Normalized from an error chain, translating on the fly
// when the chain carries something rawer.
func From(err error) *Normalized {
	if err == nil {
		return nil
	}
	return Translate(err)
}

// ProcessValidatorErrors bridges local draft validation into the same
// shape the backend's validation responses use.
func ProcessValidatorErrors(errs validator.ValidationErrors) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = append(out[fe.Field()], validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
