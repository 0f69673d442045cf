// Package cart implements the mutable draft a customer or cashier composes
// before an order is submitted. Lines merge by identity key; weight-priced
// lines always stand alone.
package cart

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabor-pos/api/internal/catalog"
	"github.com/sabor-pos/api/internal/pricing"
)

// Errors returned at the cart mutation boundary. Rejected mutations leave
// the draft unchanged.
var (
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidWeight     = errors.New("weight must be > 0")
	ErrInvalidPricePerKg = errors.New("price per kg must be > 0")
	ErrExtraQuantity     = errors.New("extra quantity out of range")
	ErrTooManyExtras     = errors.New("too many distinct extras")
	ErrInactiveVariety   = errors.New("variety is not available")
	ErrInactiveExtra     = errors.New("extra is not available")
	ErrVarietyMismatch   = errors.New("variety does not belong to the product")
	ErrExtraMismatch     = errors.New("extra does not belong to the product")
	ErrLineNotFound      = errors.New("line not found")
)

// ExtraSelection pairs a catalog extra with a chosen quantity.
type ExtraSelection struct {
	Extra    catalog.Extra
	Quantity int32
}

// Line is one entry in a cart draft. Product, Variety, and Extras are
// snapshots taken at selection time; later catalog edits do not touch them.
type Line struct {
	Key         LineKey
	Product     catalog.Product
	Variety     *catalog.Variety
	Extras      []ExtraSelection // canonical order: sorted by extra id
	Quantity    int32
	Weight      *decimal.Decimal // kilograms; set only for weighed items
	PricePerKg  *decimal.Decimal
	Description string // replaces the product name on weighed items
	UnitPrice   decimal.Decimal
}

func (l *Line) weighted() bool {
	return l.Weight != nil
}

func (l *Line) priced() pricing.Line {
	p := pricing.Line{BasePrice: l.Product.Price, Quantity: l.Quantity, Weight: l.Weight}
	if l.weighted() {
		p.BasePrice = *l.PricePerKg
		return p
	}
	if l.Variety != nil {
		vp := l.Variety.Price
		p.VarietyPrice = &vp
	}
	for _, e := range l.Extras {
		p.Extras = append(p.Extras, pricing.ExtraCharge{Price: e.Extra.Price, Quantity: e.Quantity})
	}
	return p
}

// ExtendedPrice returns the line's billed amount.
func (l *Line) ExtendedPrice() decimal.Decimal {
	return pricing.ExtendedPrice(l.priced())
}

// Name returns the display name: the description for weighed items, the
// product name otherwise.
func (l *Line) Name() string {
	if l.weighted() && l.Description != "" {
		return l.Description
	}
	return l.Product.Name
}

// Draft is an in-memory cart. Insertion order is preserved for display but
// carries no other meaning. Not safe for concurrent use.
type Draft struct {
	lines []*Line
	index map[LineKey]*Line
}

// NewDraft returns an empty cart draft.
func NewDraft() *Draft {
	return &Draft{index: make(map[LineKey]*Line)}
}

// AddSelection adds a quantity-priced selection. If a line with the same
// product, variety, and extras already exists, its quantity is incremented
// and its unit price recomputed from the incoming snapshots instead of
// appending a duplicate line.
func (d *Draft) AddSelection(product catalog.Product, variety *catalog.Variety, extras []ExtraSelection, quantity int32) (*Line, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if variety != nil {
		if variety.ProductID != product.ID {
			return nil, fmt.Errorf("variety %q: %w", variety.Name, ErrVarietyMismatch)
		}
		if !variety.Active {
			return nil, fmt.Errorf("variety %q: %w", variety.Name, ErrInactiveVariety)
		}
	}

	normalized, err := normalizeExtras(product, extras)
	if err != nil {
		return nil, err
	}

	var varietyID *uuid.UUID
	if variety != nil {
		varietyID = &variety.ID
	}
	key := NewLineKey(product.ID, varietyID, normalized)

	if existing, ok := d.index[key]; ok {
		existing.Quantity += quantity
		// Recompute in case the caller holds fresher extra prices than the
		// snapshot taken when the line was first added.
		existing.Product = product
		existing.Variety = variety
		existing.Extras = normalized
		existing.UnitPrice = pricing.UnitPrice(existing.priced())
		return existing, nil
	}

	line := &Line{
		Key:      key,
		Product:  product,
		Variety:  variety,
		Extras:   normalized,
		Quantity: quantity,
	}
	line.UnitPrice = pricing.UnitPrice(line.priced())
	d.lines = append(d.lines, line)
	d.index[key] = line
	return line, nil
}

// AddWeighedItem adds a weight-priced line. Weighed lines never merge: two
// plates at the same price per kg remain two lines.
func (d *Draft) AddWeighedItem(product catalog.Product, weightKg, pricePerKg decimal.Decimal, description string) (*Line, error) {
	if !weightKg.IsPositive() {
		return nil, ErrInvalidWeight
	}
	if !pricePerKg.IsPositive() {
		return nil, ErrInvalidPricePerKg
	}
	if description == "" {
		description = product.Name
	}

	line := &Line{
		Key:         weighedKey(),
		Product:     product,
		Quantity:    1,
		Weight:      &weightKg,
		PricePerKg:  &pricePerKg,
		Description: description,
		UnitPrice:   pricePerKg,
	}
	d.lines = append(d.lines, line)
	d.index[line.Key] = line
	return line, nil
}

// SetQuantity sets a line's quantity. Zero removes the line. Weighed lines
// always bill by weight, so their quantity stays pinned at 1.
func (d *Draft) SetQuantity(key LineKey, n int32) error {
	if n < 0 {
		return ErrInvalidQuantity
	}
	line, ok := d.index[key]
	if !ok {
		return ErrLineNotFound
	}
	if n == 0 {
		d.removeLine(key)
		return nil
	}
	if line.weighted() {
		return nil
	}
	line.Quantity = n
	return nil
}

// Remove deletes a line from the draft.
func (d *Draft) Remove(key LineKey) error {
	if _, ok := d.index[key]; !ok {
		return ErrLineNotFound
	}
	d.removeLine(key)
	return nil
}

func (d *Draft) removeLine(key LineKey) {
	delete(d.index, key)
	for i, l := range d.lines {
		if l.Key == key {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return
		}
	}
}

// Lines returns the draft's lines in insertion order.
func (d *Draft) Lines() []*Line {
	out := make([]*Line, len(d.lines))
	copy(out, d.lines)
	return out
}

// Len returns the number of lines.
func (d *Draft) Len() int {
	return len(d.lines)
}

// Subtotal sums the extended price of every line.
func (d *Draft) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.lines {
		total = total.Add(l.ExtendedPrice())
	}
	return total
}

// ItemCount sums line quantities. Weighed lines count as 1 regardless of
// weight.
func (d *Draft) ItemCount() int32 {
	var n int32
	for _, l := range d.lines {
		n += l.Quantity
	}
	return n
}

// normalizeExtras rejects inactive extras and extras of another product,
// merges duplicate entries, validates quantities against each extra's max,
// enforces the product's distinct-extras cap, and returns the result sorted
// by extra id.
func normalizeExtras(product catalog.Product, extras []ExtraSelection) ([]ExtraSelection, error) {
	if len(extras) == 0 {
		return nil, nil
	}

	merged := make(map[uuid.UUID]*ExtraSelection)
	var order []uuid.UUID
	for _, e := range extras {
		if e.Extra.ProductID != product.ID {
			return nil, fmt.Errorf("extra %q: %w", e.Extra.Name, ErrExtraMismatch)
		}
		if !e.Extra.Active {
			return nil, fmt.Errorf("extra %q: %w", e.Extra.Name, ErrInactiveExtra)
		}
		if e.Quantity <= 0 {
			return nil, fmt.Errorf("extra %q: %w", e.Extra.Name, ErrExtraQuantity)
		}
		if prev, ok := merged[e.Extra.ID]; ok {
			prev.Quantity += e.Quantity
			continue
		}
		sel := e
		merged[e.Extra.ID] = &sel
		order = append(order, e.Extra.ID)
	}

	if product.MaxExtras != nil && int32(len(order)) > *product.MaxExtras {
		return nil, fmt.Errorf("product %q: %w", product.Name, ErrTooManyExtras)
	}

	out := make([]ExtraSelection, 0, len(order))
	for _, id := range order {
		sel := merged[id]
		if sel.Extra.MaxQuantity > 0 && sel.Quantity > sel.Extra.MaxQuantity {
			return nil, fmt.Errorf("extra %q: %w", sel.Extra.Name, ErrExtraQuantity)
		}
		out = append(out, *sel)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Extra.ID.String() < out[j].Extra.ID.String()
	})
	return out, nil
}
