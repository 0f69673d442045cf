package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sabor-pos/api/internal/gateway"
)

// Op is one ordered store operation in a reconciliation plan.
type Op interface {
	// Name labels the operation in errors and logs.
	Name() string
}

// DeleteItemExtrasOp removes every extras row under the given items. Runs
// before the items themselves are deleted.
type DeleteItemExtrasOp struct {
	OrderItemIDs []uuid.UUID
}

// DeleteItemsOp removes dropped line items.
type DeleteItemsOp struct {
	IDs []uuid.UUID
}

// CreateItemsOp inserts lines added during the edit session. Extras inside
// each draft are inserted right after, bound to the identities the store
// echoes back.
type CreateItemsOp struct {
	Items []gateway.OrderItemDraft
}

// UpdateItemOp rewrites a kept line. When Fields.Snapshot is set the
// product was replaced and the line's extras are fully replaced with
// ReplaceExtras (delete all, then insert).
type UpdateItemOp struct {
	ID            uuid.UUID
	Fields        gateway.OrderItemUpdate
	ReplaceExtras []gateway.OrderItemExtraDraft
}

// UpdateOrderOp writes the order-level fields, including the new
// authoritative total. Always the last operation of a plan.
type UpdateOrderOp struct {
	Fields gateway.OrderUpdate
}

func (DeleteItemExtrasOp) Name() string { return "delete_item_extras" }
func (DeleteItemsOp) Name() string      { return "delete_items" }
func (CreateItemsOp) Name() string      { return "create_items" }
func (UpdateItemOp) Name() string       { return "update_item" }
func (UpdateOrderOp) Name() string      { return "update_order" }

// Plan is the ordered operation list for one save, plus the totals the
// order will carry afterwards.
type Plan struct {
	OrderID  uuid.UUID
	Ops      []Op
	Subtotal decimal.Decimal
	Total    decimal.Decimal
}

// Reconcile diffs the edit session against the order's original items and
// produces the operation sequence that brings the store in line:
// deletes first (extras before their items), then inserts of new lines,
// then unconditional per-kept-line updates, then the order-level update.
// An order must keep at least one line; reconciling to zero is refused
// before any operation is emitted, since deleting the whole order is a
// different action outside this engine.
func Reconcile(d *Draft) (*Plan, error) {
	if len(d.lines) == 0 {
		return nil, ErrNoLinesRemaining
	}

	kept := make(map[uuid.UUID]bool)
	var existing []*DraftLine
	var added []*DraftLine
	for _, l := range d.lines {
		switch id := l.Identity.(type) {
		case ExistingLine:
			kept[id.ID] = true
			existing = append(existing, l)
		case NewLine:
			added = append(added, l)
		}
	}

	var toDelete []uuid.UUID
	for _, id := range d.originalIDs {
		if !kept[id] {
			toDelete = append(toDelete, id)
		}
	}

	plan := &Plan{OrderID: d.OrderID}

	if len(toDelete) > 0 {
		plan.Ops = append(plan.Ops,
			DeleteItemExtrasOp{OrderItemIDs: toDelete},
			DeleteItemsOp{IDs: toDelete},
		)
	}

	if len(added) > 0 {
		items := make([]gateway.OrderItemDraft, len(added))
		for i, l := range added {
			items[i] = itemDraft(l)
		}
		plan.Ops = append(plan.Ops, CreateItemsOp{Items: items})
	}

	for _, l := range existing {
		op := UpdateItemOp{
			ID: l.Identity.(ExistingLine).ID,
			Fields: gateway.OrderItemUpdate{
				Quantity:    l.Quantity,
				ProductName: l.ProductName,
				Subtotal:    l.Subtotal(),
			},
		}
		if l.Replaced {
			op.Fields.Snapshot = &gateway.ItemSnapshot{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				UnitPrice:   l.UnitPrice,
				VarietyID:   l.VarietyID,
				VarietyName: l.VarietyName,
				Weight:      l.Weight,
				PricePerKg:  l.PricePerKg,
				Notes:       l.Notes,
			}
			op.ReplaceExtras = l.Extras
		}
		plan.Ops = append(plan.Ops, op)
	}

	plan.Subtotal = d.Subtotal()
	plan.Total = d.Total()

	total := plan.Total
	fee := d.DeliveryFee
	plan.Ops = append(plan.Ops, UpdateOrderOp{Fields: gateway.OrderUpdate{
		Status:          &d.Status,
		Type:            &d.Type,
		TableNumber:     d.TableNumber,
		CustomerName:    d.CustomerName,
		CustomerPhone:   d.CustomerPhone,
		DeliveryAddress: d.DeliveryAddress,
		PaymentMethod:   d.PaymentMethod,
		Notes:           d.Notes,
		DeliveryFee:     &fee,
		Total:           &total,
	}})

	return plan, nil
}

// itemDraft renders a working line as an insert row. Weighed lines write
// the weight columns and the legacy notes encoding side by side.
func itemDraft(l *DraftLine) gateway.OrderItemDraft {
	it := gateway.OrderItemDraft{
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		UnitPrice:   l.UnitPrice,
		Quantity:    l.Quantity,
		Subtotal:    l.Subtotal(),
		VarietyID:   l.VarietyID,
		VarietyName: l.VarietyName,
		Weight:      l.Weight,
		PricePerKg:  l.PricePerKg,
		Notes:       l.Notes,
		Extras:      l.Extras,
	}
	if l.weighted() {
		note := EncodeWeightNote(*l.Weight, *l.PricePerKg)
		it.Notes = &note
	}
	return it
}
