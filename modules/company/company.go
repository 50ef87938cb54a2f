// Package company declares the Company entity: the operating transport
// company a tenant administers.
package company

import "github.com/suyashkore/tms-console/pkg/schema"

type Company struct {
	schema.Base
	Name       string `json:"name" validate:"required,max=128"`
	Code       string `json:"code" validate:"required,max=24"`
	GstNum     string `json:"gst_num,omitempty" validate:"omitempty,max=16"`
	CinNum     string `json:"cin_num,omitempty" validate:"omitempty,max=24"`
	Mobile     string `json:"mobile" validate:"required,max=20"`
	Email      string `json:"email" validate:"required,email,max=128"`
	Address    string `json:"address,omitempty" validate:"omitempty,max=255"`
	City       string `json:"city,omitempty" validate:"omitempty,max=64"`
	PinCode    string `json:"pin_code,omitempty" validate:"omitempty,max=16"`
	LogoURL    string `json:"logo_url,omitempty"`
	TenantID   *int64 `json:"tenant_id,omitempty"`
	Owner1Name string `json:"owner1_name,omitempty" validate:"omitempty,max=128"`
}

func New() *Company {
	c := &Company{}
	c.Active = true
	return c
}

func Schema() schema.Schema {
	return schema.Schema{
		Resource: "companies",
		Label:    "Company",
		New:      func() schema.Record { return New() },
		Fields: []string{
			"name", "code", "gst_num", "cin_num", "mobile", "email",
			"address", "city", "pin_code", "logo_url", "owner1_name", "active",
		},
		AttachmentFields: []schema.AttachmentField{
			{
				Name: "logo_url",
				Apply: func(rec schema.Record, url string) {
					rec.(*Company).LogoURL = url
				},
			},
		},
		TemplateFilename: "company_template.xlsx",
		ExportFilename:   "companies.xlsx",
	}
}
