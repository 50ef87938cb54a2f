// Package geohierarchy declares the GeoHierarchy entity: one row of the
// country/state/district/place tree routing and rating are resolved against.
package geohierarchy

import "github.com/suyashkore/tms-console/pkg/schema"

type GeoHierarchy struct {
	schema.Base
	Country  string   `json:"country" validate:"required,max=64"`
	State    string   `json:"state" validate:"required,max=64"`
	District string   `json:"district,omitempty" validate:"omitempty,max=64"`
	Taluka   string   `json:"taluka,omitempty" validate:"omitempty,max=64"`
	Place    string   `json:"place" validate:"required,max=128"`
	PinCode  string   `json:"pin_code" validate:"required,max=16"`
	Zone     string   `json:"zone,omitempty" validate:"omitempty,max=32"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
}

func New() *GeoHierarchy {
	g := &GeoHierarchy{}
	g.Active = true
	return g
}

func Schema() schema.Schema {
	return schema.Schema{
		Resource: "geohierarchies",
		Label:    "Geo Hierarchy",
		New:      func() schema.Record { return New() },
		Fields: []string{
			"country", "state", "district", "taluka", "place",
			"pin_code", "zone", "lat", "lon", "active",
		},
		TemplateFilename: "geohierarchy_template.xlsx",
		ExportFilename:   "geohierarchies.xlsx",
	}
}
