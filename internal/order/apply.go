package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sabor-pos/api/internal/gateway"
)

// Apply executes a plan against the gateway. Operations run sequentially
// and are not wrapped in a transaction: the first failure stops execution
// and leaves everything already applied in place, with no compensating
// calls. Callers recover by re-fetching the order and building a fresh
// draft; retrying against a stale snapshot produces a wrong diff.
func Apply(ctx context.Context, gw gateway.Gateway, plan *Plan) error {
	for i, op := range plan.Ops {
		if err := applyOp(ctx, gw, plan.OrderID, op); err != nil {
			return fmt.Errorf("op[%d] %s: %w", i, op.Name(), err)
		}
	}
	return nil
}

func applyOp(ctx context.Context, gw gateway.Gateway, orderID uuid.UUID, op Op) error {
	switch op := op.(type) {
	case DeleteItemExtrasOp:
		return gw.DeleteOrderItemExtras(ctx, op.OrderItemIDs)

	case DeleteItemsOp:
		return gw.DeleteOrderItems(ctx, op.IDs)

	case CreateItemsOp:
		created, err := gw.CreateOrderItems(ctx, orderID, op.Items)
		if err != nil {
			return err
		}
		if len(created) != len(op.Items) {
			return fmt.Errorf("store echoed %d created items, sent %d", len(created), len(op.Items))
		}
		var inserts []gateway.OrderItemExtraInsert
		for i, draft := range op.Items {
			for _, ex := range draft.Extras {
				inserts = append(inserts, gateway.OrderItemExtraInsert{
					OrderItemID: created[i].ID,
					ExtraID:     ex.ExtraID,
					Name:        ex.Name,
					UnitPrice:   ex.UnitPrice,
					Quantity:    ex.Quantity,
				})
			}
		}
		if len(inserts) == 0 {
			return nil
		}
		return gw.CreateOrderItemExtras(ctx, inserts)

	case UpdateItemOp:
		if err := gw.UpdateOrderItem(ctx, op.ID, op.Fields); err != nil {
			return err
		}
		if op.Fields.Snapshot == nil {
			return nil
		}
		// Product replaced: old extras are meaningless under the new
		// product, so replace wholesale instead of diffing.
		if err := gw.DeleteOrderItemExtras(ctx, []uuid.UUID{op.ID}); err != nil {
			return err
		}
		if len(op.ReplaceExtras) == 0 {
			return nil
		}
		inserts := make([]gateway.OrderItemExtraInsert, len(op.ReplaceExtras))
		for i, ex := range op.ReplaceExtras {
			inserts[i] = gateway.OrderItemExtraInsert{
				OrderItemID: op.ID,
				ExtraID:     ex.ExtraID,
				Name:        ex.Name,
				UnitPrice:   ex.UnitPrice,
				Quantity:    ex.Quantity,
			}
		}
		return gw.CreateOrderItemExtras(ctx, inserts)

	case UpdateOrderOp:
		return gw.UpdateOrder(ctx, orderID, op.Fields)

	default:
		return fmt.Errorf("unsupported operation %T", op)
	}
}
