// Package order implements the edit session over a persisted order and the
// reconciliation that turns an edited session back into store operations.
package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabor-pos/api/internal/enum"
	"github.com/sabor-pos/api/internal/gateway"
)

// Errors returned at the draft mutation boundary.
var (
	ErrInvalidQuantity   = errors.New("quantity must be > 0")
	ErrInvalidWeight     = errors.New("weight must be > 0")
	ErrInvalidPricePerKg = errors.New("price per kg must be > 0")
	ErrUnknownLine       = errors.New("unknown line")
	ErrNoLinesRemaining  = errors.New("order must keep at least one line")
	ErrExtrasImmutable   = errors.New("extras are fixed unless the product is replaced")
	ErrNotWeighed        = errors.New("line is not weight-priced")
)

// LineIdentity distinguishes lines already persisted from lines added
// during the edit session. Partitioning in Reconcile is a type switch, not
// an id-prefix convention.
type LineIdentity interface {
	lineIdentity()
}

// ExistingLine identifies a persisted order item.
type ExistingLine struct {
	ID uuid.UUID
}

// NewLine identifies a line created during this edit session. TempID is
// local to the session and never reaches the store.
type NewLine struct {
	TempID string
}

func (ExistingLine) lineIdentity() {}
func (NewLine) lineIdentity()      {}

// DraftLine is one working entry of an edit session.
type DraftLine struct {
	Identity    LineIdentity
	ProductID   *uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
	VarietyID   *uuid.UUID
	VarietyName *string
	Weight      *decimal.Decimal
	PricePerKg  *decimal.Decimal
	Notes       *string
	Extras      []gateway.OrderItemExtraDraft

	// Replaced marks an existing line whose underlying product was swapped
	// while keeping the persisted identity.
	Replaced bool

	modified          bool
	persistedSubtotal decimal.Decimal
}

func (l *DraftLine) weighted() bool {
	return l.Weight != nil && l.PricePerKg != nil
}

// Subtotal returns the line's authoritative extended price. An untouched
// existing weight-priced line keeps the subtotal the store already holds;
// the stored value bakes in the weighing and must not be recomputed unless
// the line itself changed.
func (l *DraftLine) Subtotal() decimal.Decimal {
	if l.weighted() {
		if _, existing := l.Identity.(ExistingLine); existing && !l.modified {
			return l.persistedSubtotal
		}
		return l.PricePerKg.Mul(*l.Weight)
	}
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Replacement carries the new product snapshot for a line whose product is
// swapped in place.
type Replacement struct {
	ProductID   *uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal // base or variety price, before extras
	VarietyID   *uuid.UUID
	VarietyName *string
	Extras      []gateway.OrderItemExtraDraft
}

// Draft is an edit session over one persisted order. It is hydrated once
// from the store, mutated locally, and resolved into store operations
// exactly once on save. Not safe for concurrent use.
type Draft struct {
	OrderID         uuid.UUID
	Type            string
	Status          string
	TableNumber     *string
	CustomerName    *string
	CustomerPhone   *string
	DeliveryAddress *string
	PaymentMethod   *string
	Notes           *string
	DeliveryFee     decimal.Decimal

	lines       []*DraftLine
	originalIDs []uuid.UUID
}

// NewDraftFromOrder hydrates an edit session from a fetched order. Items
// whose weighing survives only in the legacy notes encoding get their
// weight and price per kg parsed back out.
func NewDraftFromOrder(o *gateway.Order) *Draft {
	d := &Draft{
		OrderID:         o.ID,
		Type:            o.Type,
		Status:          o.Status,
		TableNumber:     o.TableNumber,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		DeliveryFee:     o.DeliveryFee,
	}
	for _, it := range o.Items {
		l := &DraftLine{
			Identity:          ExistingLine{ID: it.ID},
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			UnitPrice:         it.UnitPrice,
			Quantity:          it.Quantity,
			VarietyID:         it.VarietyID,
			VarietyName:       it.VarietyName,
			Weight:            it.Weight,
			PricePerKg:        it.PricePerKg,
			Notes:             it.Notes,
			persistedSubtotal: it.Subtotal,
		}
		if l.Weight == nil && it.Notes != nil {
			if w, p, ok := ParseWeightNote(*it.Notes); ok {
				l.Weight, l.PricePerKg = &w, &p
			}
		}
		for _, ex := range it.Extras {
			l.Extras = append(l.Extras, gateway.OrderItemExtraDraft{
				ExtraID:   ex.ExtraID,
				Name:      ex.Name,
				UnitPrice: ex.UnitPrice,
				Quantity:  ex.Quantity,
			})
		}
		d.lines = append(d.lines, l)
		d.originalIDs = append(d.originalIDs, it.ID)
	}
	return d
}

func (d *Draft) find(id LineIdentity) (*DraftLine, bool) {
	for _, l := range d.lines {
		if l.Identity == id {
			return l, true
		}
	}
	return nil, false
}

// Lines returns the working entries in display order.
func (d *Draft) Lines() []*DraftLine {
	out := make([]*DraftLine, len(d.lines))
	copy(out, d.lines)
	return out
}

// AddLine appends a new line to the session and tags it with a fresh
// temporary identity.
func (d *Draft) AddLine(l DraftLine) (*DraftLine, error) {
	if l.Weight != nil || l.PricePerKg != nil {
		if l.Weight == nil || !l.Weight.IsPositive() {
			return nil, ErrInvalidWeight
		}
		if l.PricePerKg == nil || !l.PricePerKg.IsPositive() {
			return nil, ErrInvalidPricePerKg
		}
		l.Quantity = 1
	} else if l.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	l.Identity = NewLine{TempID: uuid.NewString()}
	line := &l
	d.lines = append(d.lines, line)
	return line, nil
}

// RemoveLine drops a line from the session.
func (d *Draft) RemoveLine(id LineIdentity) error {
	for i, l := range d.lines {
		if l.Identity == id {
			d.lines = append(d.lines[:i], d.lines[i+1:]...)
			return nil
		}
	}
	return ErrUnknownLine
}

// SetQuantity sets a line's quantity; zero removes the line. Weighed lines
// keep quantity 1 regardless of n: they are resized through SetWeight and
// dropped through RemoveLine only.
func (d *Draft) SetQuantity(id LineIdentity, n int32) error {
	if n < 0 {
		return ErrInvalidQuantity
	}
	line, ok := d.find(id)
	if !ok {
		return ErrUnknownLine
	}
	if line.weighted() {
		return nil
	}
	if n == 0 {
		return d.RemoveLine(id)
	}
	if line.Quantity != n {
		line.Quantity = n
		line.modified = true
	}
	return nil
}

// SetWeight re-weighs a weight-priced line. The subtotal is recomputed from
// the new weight on save.
func (d *Draft) SetWeight(id LineIdentity, weightKg decimal.Decimal) error {
	if !weightKg.IsPositive() {
		return ErrInvalidWeight
	}
	line, ok := d.find(id)
	if !ok {
		return ErrUnknownLine
	}
	if !line.weighted() {
		return ErrNotWeighed
	}
	line.Weight = &weightKg
	line.modified = true
	return nil
}

// ReplaceProduct swaps the underlying product of an existing line while
// keeping its persisted identity. The line's extras are fully replaced:
// add-ons of the old product have no meaning under the new one.
func (d *Draft) ReplaceProduct(id LineIdentity, r Replacement) error {
	line, ok := d.find(id)
	if !ok {
		return ErrUnknownLine
	}
	if _, existing := id.(ExistingLine); !existing {
		return fmt.Errorf("replace product: %w", ErrUnknownLine)
	}
	unitPrice := r.UnitPrice
	for _, ex := range r.Extras {
		unitPrice = unitPrice.Add(ex.UnitPrice.Mul(decimal.NewFromInt32(ex.Quantity)))
	}
	line.ProductID = r.ProductID
	line.ProductName = r.ProductName
	line.UnitPrice = unitPrice
	line.VarietyID = r.VarietyID
	line.VarietyName = r.VarietyName
	line.Extras = r.Extras
	line.Weight = nil
	line.PricePerKg = nil
	// A weight encoding left in the notes would re-hydrate the line as
	// weight-priced on the next edit session.
	if line.Notes != nil {
		if stripped := StripWeightNote(*line.Notes); stripped == "" {
			line.Notes = nil
		} else {
			line.Notes = &stripped
		}
	}
	line.Replaced = true
	line.modified = true
	return nil
}

// SetExtras overwrites a line's extras. Allowed only on new lines and on
// existing lines whose product was replaced; reconciliation has no sound
// partial-diff for extras of an untouched persisted line.
func (d *Draft) SetExtras(id LineIdentity, extras []gateway.OrderItemExtraDraft) error {
	line, ok := d.find(id)
	if !ok {
		return ErrUnknownLine
	}
	if _, existing := id.(ExistingLine); existing && !line.Replaced {
		return ErrExtrasImmutable
	}
	// Extras feed the unit price: strip the old charges, apply the new.
	base := line.UnitPrice
	for _, ex := range line.Extras {
		base = base.Sub(ex.UnitPrice.Mul(decimal.NewFromInt32(ex.Quantity)))
	}
	for _, ex := range extras {
		base = base.Add(ex.UnitPrice.Mul(decimal.NewFromInt32(ex.Quantity)))
	}
	line.Extras = extras
	line.UnitPrice = base
	line.modified = true
	return nil
}

// Subtotal sums the authoritative subtotal of every working line.
func (d *Draft) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range d.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Total is the subtotal plus the delivery fee for delivery orders.
func (d *Draft) Total() decimal.Decimal {
	total := d.Subtotal()
	if d.Type == enum.OrderTypeDelivery {
		total = total.Add(d.DeliveryFee)
	}
	return total
}
