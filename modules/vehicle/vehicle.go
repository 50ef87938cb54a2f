// Package vehicle declares the Vehicle entity: a truck or trailer in the
// operating fleet, keyed by its registration number.
package vehicle

import (
	"time"

	"github.com/suyashkore/tms-console/pkg/schema"
)

type Vehicle struct {
	schema.Base
	RcNum           string     `json:"rc_num" validate:"required,max=16"`
	VehicleType     string     `json:"vehicle_type" validate:"required,max=32"`
	Make            string     `json:"make,omitempty" validate:"omitempty,max=64"`
	Model           string     `json:"model,omitempty" validate:"omitempty,max=64"`
	CapacityKg      *float64   `json:"capacity_kg,omitempty" validate:"omitempty,gt=0"`
	OwnerName       string     `json:"owner_name,omitempty" validate:"omitempty,max=128"`
	InsuranceExpiry *time.Time `json:"insurance_expiry,omitempty"`
	RcDocURL        string     `json:"rc_doc_url,omitempty"`
	CompanyID       *int64     `json:"company_id,omitempty"`
}

func New() *Vehicle {
	v := &Vehicle{}
	v.Active = true
	return v
}

func Schema() schema.Schema {
	return schema.Schema{
		Resource: "vehicles",
		Label:    "Vehicle",
		New:      func() schema.Record { return New() },
		Fields: []string{
			"rc_num", "vehicle_type", "make", "model", "capacity_kg",
			"owner_name", "insurance_expiry", "rc_doc_url", "company_id", "active",
		},
		AttachmentFields: []schema.AttachmentField{
			{
				Name: "rc_doc_url",
				Apply: func(rec schema.Record, url string) {
					rec.(*Vehicle).RcDocURL = url
				},
			},
		},
		TemplateFilename: "vehicle_template.xlsx",
		ExportFilename:   "vehicles.xlsx",
	}
}
