// Package office declares the Office entity: a branch, hub or head office
// location of the operating company.
package office

import "github.com/suyashkore/tms-console/pkg/schema"

type Office struct {
	schema.Base
	Name       string `json:"name" validate:"required,max=128"`
	Code       string `json:"code" validate:"required,max=24"`
	OfficeType string `json:"office_type" validate:"required,oneof=head_office branch hub warehouse"`
	GstNum     string `json:"gst_num,omitempty" validate:"omitempty,max=16"`
	Address    string `json:"address" validate:"required,max=255"`
	City       string `json:"city" validate:"required,max=64"`
	PinCode    string `json:"pin_code" validate:"required,max=16"`
	Mobile     string `json:"mobile,omitempty" validate:"omitempty,max=20"`
	CompanyID  *int64 `json:"company_id,omitempty"`
	ParentID   *int64 `json:"parent_id,omitempty"`
}

func New() *Office {
	o := &Office{}
	o.Active = true
	return o
}

func Schema() schema.Schema {
	return schema.Schema{
		Resource: "offices",
		Label:    "Office",
		New:      func() schema.Record { return New() },
		Fields: []string{
			"name", "code", "office_type", "gst_num", "address",
			"city", "pin_code", "mobile", "company_id", "parent_id", "active",
		},
		TemplateFilename: "office_template.xlsx",
		ExportFilename:   "offices.xlsx",
	}
}
