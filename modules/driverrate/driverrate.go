// Package driverrate declares the DriverRate entity: the payout tariff for
// a driver on a vehicle type, effective over a date window.
package driverrate

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/suyashkore/tms-console/pkg/schema"
)

type DriverRate struct {
	schema.Base
	VehicleType   string           `json:"vehicle_type" validate:"required,max=32"`
	RatePerKm     decimal.Decimal  `json:"rate_per_km" validate:"required"`
	RatePerHour   *decimal.Decimal `json:"rate_per_hour,omitempty"`
	NightAllow    *decimal.Decimal `json:"night_allowance,omitempty"`
	HaltingCharge *decimal.Decimal `json:"halting_charge,omitempty"`
	EffectiveFrom *time.Time       `json:"effective_from,omitempty"`
	EffectiveTo   *time.Time       `json:"effective_to,omitempty"`
	CompanyID     *int64           `json:"company_id,omitempty"`
}

func New() *DriverRate {
	r := &DriverRate{}
	r.Active = true
	return r
}

func Schema() schema.Schema {
	return schema.Schema{
		Resource: "driverrates",
		Label:    "Driver Rate",
		New:      func() schema.Record { return New() },
		Fields: []string{
			"vehicle_type", "rate_per_km", "rate_per_hour", "night_allowance",
			"halting_charge", "effective_from", "effective_to", "company_id", "active",
		},
		TemplateFilename: "driverrate_template.xlsx",
		ExportFilename:   "driverrates.xlsx",
	}
}
