// Package catalog defines the read-only product shapes the ordering core
// consumes. Catalog management (create/edit/deactivate) lives elsewhere;
// the core only ever snapshots these values into cart lines.
package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. Price is the base price, or the
// price per kilogram when SoldByWeight is set.
type Product struct {
	ID           uuid.UUID
	Name         string
	Price        decimal.Decimal
	SoldByWeight bool
	MaxExtras    *int32 // max distinct extras per line; nil means unconstrained
	Varieties    []Variety
	Extras       []Extra
}

// Variety is a mutually-exclusive size/version option. Its price replaces
// the product's base price outright when selected.
type Variety struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	Active    bool
}

// Extra is an additive add-on priced per unit.
type Extra struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	Name        string
	Price       decimal.Decimal
	MaxQuantity int32
	Active      bool
}

// VarietyByID returns the product's variety with the given id.
func (p Product) VarietyByID(id uuid.UUID) (Variety, bool) {
	for _, v := range p.Varieties {
		if v.ID == id {
			return v, true
		}
	}
	return Variety{}, false
}

// ExtraByID returns the product's extra with the given id.
func (p Product) ExtraByID(id uuid.UUID) (Extra, bool) {
	for _, e := range p.Extras {
		if e.ID == id {
			return e, true
		}
	}
	return Extra{}, false
}
