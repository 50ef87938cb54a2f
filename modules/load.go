// Package modules registers the built-in entity schemas. Adding an entity
// to the console means adding its schema here; no new control flow.
package modules

import (
	"sort"

	"github.com/suyashkore/tms-console/modules/company"
	"github.com/suyashkore/tms-console/modules/customer"
	"github.com/suyashkore/tms-console/modules/driverrate"
	"github.com/suyashkore/tms-console/modules/geohierarchy"
	"github.com/suyashkore/tms-console/modules/office"
	"github.com/suyashkore/tms-console/modules/tenant"
	"github.com/suyashkore/tms-console/modules/vehicle"
	"github.com/suyashkore/tms-console/modules/vendor"
	"github.com/suyashkore/tms-console/pkg/schema"
)

var BuiltInSchemas = []schema.Schema{
	company.Schema(),
	vehicle.Schema(),
	customer.Schema(),
	vendor.Schema(),
	office.Schema(),
	driverrate.Schema(),
	geohierarchy.Schema(),
	tenant.Schema(),
}

// Load returns the registry keyed by resource path.
func Load(external ...schema.Schema) map[string]schema.Schema {
	registry := make(map[string]schema.Schema, len(BuiltInSchemas)+len(external))
	for _, sch := range BuiltInSchemas {
		registry[sch.Resource] = sch
	}
	for _, sch := range external {
		registry[sch.Resource] = sch
	}
	return registry
}

// Resources returns the registered resource names in stable order.
func Resources(registry map[string]schema.Schema) []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
