// Package tenant declares the Tenant entity: an isolated customer
// organization of the platform. State ownership follows the same scoped
// controller model as every other entity; tenants are not special-cased
// into process-wide state.
package tenant

import "github.com/suyashkore/tms-console/pkg/schema"

type Tenant struct {
	schema.Base
	Name    string `json:"name" validate:"required,max=128"`
	Code    string `json:"code" validate:"required,max=24"`
	Domain  string `json:"domain,omitempty" validate:"omitempty,max=128"`
	Country string `json:"country,omitempty" validate:"omitempty,max=64"`
	LogoURL string `json:"logo_url,omitempty"`
}

func New() *Tenant {
	t := &Tenant{}
	t.Active = true
	return t
}

func Schema() schema.Schema {
	return schema.Schema{
		Resource: "tenants",
		Label:    "Tenant",
		New:      func() schema.Record { return New() },
		Fields: []string{
			"name", "code", "domain", "country", "logo_url", "active",
		},
		AttachmentFields: []schema.AttachmentField{
			{
				Name: "logo_url",
				Apply: func(rec schema.Record, url string) {
					rec.(*Tenant).LogoURL = url
				},
			},
		},
		TemplateFilename: "tenant_template.xlsx",
		ExportFilename:   "tenants.xlsx",
	}
}
