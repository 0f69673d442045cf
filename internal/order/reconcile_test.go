package order

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/sabor-pos/api/internal/enum"
	"github.com/sabor-pos/api/internal/gateway"
)

// twoItemOrder builds the reconciliation fixture: items A and B, no extras
// on A beyond the persisted bacon row, B carrying one extra.
func twoItemOrder() (*gateway.Order, uuid.UUID, uuid.UUID) {
	orderID := uuid.New()
	idA := uuid.New()
	idB := uuid.New()
	o := &gateway.Order{
		ID:     orderID,
		Type:   enum.OrderTypeDineIn,
		Status: enum.OrderStatusOpen,
		Total:  dec("43.00"),
		Items: []gateway.OrderItem{
			{ID: idA, OrderID: orderID, ProductName: "Burger", UnitPrice: dec("28.00"), Quantity: 1, Subtotal: dec("28.00")},
			{
				ID: idB, OrderID: orderID, ProductName: "Fries", UnitPrice: dec("15.00"), Quantity: 1, Subtotal: dec("15.00"),
				Extras: []gateway.OrderItemExtra{{ID: uuid.New(), OrderItemID: idB, Name: "Ketchup", UnitPrice: dec("1.00"), Quantity: 1}},
			},
		},
	}
	return o, idA, idB
}

func TestReconcileDeleteAndCreate(t *testing.T) {
	o, idA, idB := twoItemOrder()
	d := NewDraftFromOrder(o)

	// Drop B, bump A to 2, add C.
	if err := d.RemoveLine(ExistingLine{ID: idB}); err != nil {
		t.Fatalf("RemoveLine() error = %v", err)
	}
	if err := d.SetQuantity(ExistingLine{ID: idA}, 2); err != nil {
		t.Fatalf("SetQuantity() error = %v", err)
	}
	if _, err := d.AddLine(DraftLine{ProductName: "Soda", UnitPrice: dec("6.00"), Quantity: 1}); err != nil {
		t.Fatalf("AddLine() error = %v", err)
	}

	plan, err := Reconcile(d)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if len(plan.Ops) != 5 {
		t.Fatalf("len(Ops) = %d, want 5", len(plan.Ops))
	}

	delExtras, ok := plan.Ops[0].(DeleteItemExtrasOp)
	if !ok {
		t.Fatalf("Ops[0] = %T, want DeleteItemExtrasOp", plan.Ops[0])
	}
	if len(delExtras.OrderItemIDs) != 1 || delExtras.OrderItemIDs[0] != idB {
		t.Errorf("extras delete set = %v, want exactly [%s]", delExtras.OrderItemIDs, idB)
	}

	delItems, ok := plan.Ops[1].(DeleteItemsOp)
	if !ok {
		t.Fatalf("Ops[1] = %T, want DeleteItemsOp", plan.Ops[1])
	}
	if len(delItems.IDs) != 1 || delItems.IDs[0] != idB {
		t.Errorf("delete set = %v, want exactly [%s]", delItems.IDs, idB)
	}

	create, ok := plan.Ops[2].(CreateItemsOp)
	if !ok {
		t.Fatalf("Ops[2] = %T, want CreateItemsOp", plan.Ops[2])
	}
	if len(create.Items) != 1 || create.Items[0].ProductName != "Soda" {
		t.Errorf("create items = %+v, want one Soda", create.Items)
	}
	if !create.Items[0].Subtotal.Equal(dec("6.00")) {
		t.Errorf("created subtotal = %s, want 6.00", create.Items[0].Subtotal)
	}

	update, ok := plan.Ops[3].(UpdateItemOp)
	if !ok {
		t.Fatalf("Ops[3] = %T, want UpdateItemOp", plan.Ops[3])
	}
	if update.ID != idA {
		t.Errorf("update id = %s, want %s (no update may touch a deleted line)", update.ID, idA)
	}
	if update.Fields.Quantity != 2 || !update.Fields.Subtotal.Equal(dec("56.00")) {
		t.Errorf("update fields = %+v, want quantity 2 subtotal 56.00", update.Fields)
	}
	if update.Fields.Snapshot != nil {
		t.Error("Snapshot set on a line whose product was not replaced")
	}

	orderOp, ok := plan.Ops[4].(UpdateOrderOp)
	if !ok {
		t.Fatalf("Ops[4] = %T, want UpdateOrderOp", plan.Ops[4])
	}
	if orderOp.Fields.Total == nil || !orderOp.Fields.Total.Equal(dec("62.00")) { // 56 + 6
		t.Errorf("order total = %v, want 62.00", orderOp.Fields.Total)
	}
	if !plan.Total.Equal(dec("62.00")) {
		t.Errorf("plan.Total = %s, want 62.00", plan.Total)
	}
}

func TestReconcileRefusesZeroLines(t *testing.T) {
	o, idA, idB := twoItemOrder()
	d := NewDraftFromOrder(o)
	if err := d.RemoveLine(ExistingLine{ID: idA}); err != nil {
		t.Fatalf("RemoveLine() error = %v", err)
	}
	if err := d.RemoveLine(ExistingLine{ID: idB}); err != nil {
		t.Fatalf("RemoveLine() error = %v", err)
	}

	plan, err := Reconcile(d)
	if !errors.Is(err, ErrNoLinesRemaining) {
		t.Fatalf("Reconcile() error = %v, want ErrNoLinesRemaining", err)
	}
	if plan != nil {
		t.Error("plan must be nil: refusal happens before any operation is emitted")
	}
}

func TestReconcileNoDeletesWhenAllKept(t *testing.T) {
	o, _, _ := twoItemOrder()
	d := NewDraftFromOrder(o)

	plan, err := Reconcile(d)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	for _, op := range plan.Ops {
		switch op.(type) {
		case DeleteItemExtrasOp, DeleteItemsOp, CreateItemsOp:
			t.Errorf("unexpected %T in a keep-everything plan", op)
		}
	}
	// Kept lines are still updated unconditionally.
	var updates int
	for _, op := range plan.Ops {
		if _, ok := op.(UpdateItemOp); ok {
			updates++
		}
	}
	if updates != 2 {
		t.Errorf("update ops = %d, want 2", updates)
	}
}

func TestReconcileReplacedLine(t *testing.T) {
	o, idA, _ := twoItemOrder()
	d := NewDraftFromOrder(o)
	newProductID := uuid.New()

	err := d.ReplaceProduct(ExistingLine{ID: idA}, Replacement{
		ProductID:   &newProductID,
		ProductName: "Pizza",
		UnitPrice:   dec("35.00"),
		Extras: []gateway.OrderItemExtraDraft{
			{Name: "Olives", UnitPrice: dec("2.00"), Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("ReplaceProduct() error = %v", err)
	}

	plan, err := Reconcile(d)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	var found bool
	for _, op := range plan.Ops {
		up, ok := op.(UpdateItemOp)
		if !ok || up.ID != idA {
			continue
		}
		found = true
		if up.Fields.Snapshot == nil {
			t.Fatal("replaced line must carry a snapshot update")
		}
		if up.Fields.Snapshot.ProductName != "Pizza" {
			t.Errorf("snapshot product = %q, want Pizza", up.Fields.Snapshot.ProductName)
		}
		if len(up.ReplaceExtras) != 1 || up.ReplaceExtras[0].Name != "Olives" {
			t.Errorf("ReplaceExtras = %+v, want the full new extras set", up.ReplaceExtras)
		}
	}
	if !found {
		t.Fatal("no UpdateItemOp for the replaced line")
	}
}

func TestReconcilePreservesWeighedSubtotal(t *testing.T) {
	orderID := uuid.New()
	id := uuid.New()
	o := &gateway.Order{
		ID:     orderID,
		Type:   enum.OrderTypeDineIn,
		Status: enum.OrderStatusOpen,
		Items: []gateway.OrderItem{{
			ID: id, OrderID: orderID, ProductName: "Buffet plate",
			UnitPrice: dec("39.90"), Quantity: 1,
			Subtotal: dec("20.10"), // differs from 0.5*39.90 on purpose
			Weight:   decPtr("0.500"), PricePerKg: decPtr("39.90"),
		}},
	}

	d := NewDraftFromOrder(o)
	plan, err := Reconcile(d)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	up := plan.Ops[0].(UpdateItemOp)
	if !up.Fields.Subtotal.Equal(dec("20.10")) {
		t.Errorf("untouched weighed subtotal = %s, want the persisted 20.10", up.Fields.Subtotal)
	}
	if !plan.Total.Equal(dec("20.10")) {
		t.Errorf("plan.Total = %s, want 20.10", plan.Total)
	}
}

func TestReconcileNewWeighedLineCarriesNote(t *testing.T) {
	o, _, _ := twoItemOrder()
	d := NewDraftFromOrder(o)
	if _, err := d.AddLine(DraftLine{
		ProductName: "Buffet plate",
		UnitPrice:   dec("39.90"),
		Weight:      decPtr("0.500"),
		PricePerKg:  decPtr("39.90"),
	}); err != nil {
		t.Fatalf("AddLine() error = %v", err)
	}

	plan, err := Reconcile(d)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	var create CreateItemsOp
	for _, op := range plan.Ops {
		if c, ok := op.(CreateItemsOp); ok {
			create = c
		}
	}
	if len(create.Items) != 1 {
		t.Fatalf("create items = %d, want 1", len(create.Items))
	}
	it := create.Items[0]
	if it.Notes == nil || *it.Notes != "weight=0.500kg price_per_kg=39.90" {
		t.Errorf("Notes = %v, want the legacy weight encoding", it.Notes)
	}
	if it.Weight == nil || !it.Weight.Equal(dec("0.500")) {
		t.Errorf("Weight = %v, want 0.500", it.Weight)
	}
	if !it.Subtotal.Equal(dec("19.95")) {
		t.Errorf("Subtotal = %s, want 19.95", it.Subtotal)
	}
}

func TestReconcileDeliveryFee(t *testing.T) {
	o, _, _ := twoItemOrder()
	o.Type = enum.OrderTypeDelivery
	o.DeliveryFee = dec("7.00")

	d := NewDraftFromOrder(o)
	plan, err := Reconcile(d)
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	if !plan.Subtotal.Equal(dec("43.00")) {
		t.Errorf("Subtotal = %s, want 43.00", plan.Subtotal)
	}
	if !plan.Total.Equal(dec("50.00")) {
		t.Errorf("Total = %s, want 50.00 (subtotal + fee)", plan.Total)
	}
}
