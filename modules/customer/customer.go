// Package customer declares the Customer entity: a consignor billed for
// transport services.
package customer

import "github.com/suyashkore/tms-console/pkg/schema"

type Customer struct {
	schema.Base
	Name           string `json:"name" validate:"required,max=128"`
	Code           string `json:"code" validate:"required,max=24"`
	GstNum         string `json:"gst_num,omitempty" validate:"omitempty,max=16"`
	Mobile         string `json:"mobile" validate:"required,max=20"`
	Email          string `json:"email,omitempty" validate:"omitempty,email,max=128"`
	BillingAddress string `json:"billing_address,omitempty" validate:"omitempty,max=255"`
	City           string `json:"city,omitempty" validate:"omitempty,max=64"`
	PinCode        string `json:"pin_code,omitempty" validate:"omitempty,max=16"`
	PaymentTerms   string `json:"payment_terms,omitempty" validate:"omitempty,oneof=prepaid to_pay credit"`
	CompanyID      *int64 `json:"company_id,omitempty"`
}

func New() *Customer {
	c := &Customer{}
	c.Active = true
	return c
}

func Schema() schema.Schema {
	return schema.Schema{
		Resource: "customers",
		Label:    "Customer",
		New:      func() schema.Record { return New() },
		Fields: []string{
			"name", "code", "gst_num", "mobile", "email",
			"billing_address", "city", "pin_code", "payment_terms", "company_id", "active",
		},
		TemplateFilename: "customer_template.xlsx",
		ExportFilename:   "customers.xlsx",
	}
}
