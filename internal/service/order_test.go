package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/sabor-pos/api/internal/catalog"
	"github.com/sabor-pos/api/internal/enum"
	"github.com/sabor-pos/api/internal/gateway"
	"github.com/sabor-pos/api/internal/order"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// mockStore implements OrderStore with overridable funcs.
type mockStore struct {
	nextNumberFn   func(ctx context.Context) (string, int32, error)
	createOrderFn  func(ctx context.Context, params gateway.CreateOrderParams) (*gateway.Order, error)
	getProductFn   func(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	fetchFn        func(ctx context.Context, orderID uuid.UUID) (*gateway.Order, error)
	createItemsFn  func(ctx context.Context, orderID uuid.UUID, items []gateway.OrderItemDraft) ([]gateway.OrderItem, error)
	createExtrasFn func(ctx context.Context, extras []gateway.OrderItemExtraInsert) error
	deleteExtrasFn func(ctx context.Context, orderItemIDs []uuid.UUID) error
	deleteItemsFn  func(ctx context.Context, ids []uuid.UUID) error
	updateItemFn   func(ctx context.Context, id uuid.UUID, fields gateway.OrderItemUpdate) error
	updateOrderFn  func(ctx context.Context, orderID uuid.UUID, fields gateway.OrderUpdate) error

	nextNumberCalls int
}

func (m *mockStore) NextOrderNumber(ctx context.Context) (string, int32, error) {
	m.nextNumberCalls++
	if m.nextNumberFn != nil {
		return m.nextNumberFn(ctx)
	}
	return fmt.Sprintf("ORD-%03d", m.nextNumberCalls), int32(m.nextNumberCalls), nil
}

func (m *mockStore) CreateOrder(ctx context.Context, params gateway.CreateOrderParams) (*gateway.Order, error) {
	if m.createOrderFn != nil {
		return m.createOrderFn(ctx, params)
	}
	return &gateway.Order{ID: uuid.New(), Number: params.Number, Type: params.Type, Status: params.Status, Total: params.Total}, nil
}

func (m *mockStore) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	if m.getProductFn != nil {
		return m.getProductFn(ctx, id)
	}
	return nil, gateway.ErrNotFound
}

func (m *mockStore) FetchOrderWithItems(ctx context.Context, orderID uuid.UUID) (*gateway.Order, error) {
	if m.fetchFn != nil {
		return m.fetchFn(ctx, orderID)
	}
	return nil, gateway.ErrNotFound
}

func (m *mockStore) CreateOrderItems(ctx context.Context, orderID uuid.UUID, items []gateway.OrderItemDraft) ([]gateway.OrderItem, error) {
	if m.createItemsFn != nil {
		return m.createItemsFn(ctx, orderID, items)
	}
	created := make([]gateway.OrderItem, len(items))
	for i, it := range items {
		created[i] = gateway.OrderItem{ID: uuid.New(), OrderID: orderID, ProductName: it.ProductName}
	}
	return created, nil
}

func (m *mockStore) CreateOrderItemExtras(ctx context.Context, extras []gateway.OrderItemExtraInsert) error {
	if m.createExtrasFn != nil {
		return m.createExtrasFn(ctx, extras)
	}
	return nil
}

func (m *mockStore) DeleteOrderItemExtras(ctx context.Context, orderItemIDs []uuid.UUID) error {
	if m.deleteExtrasFn != nil {
		return m.deleteExtrasFn(ctx, orderItemIDs)
	}
	return nil
}

func (m *mockStore) DeleteOrderItems(ctx context.Context, ids []uuid.UUID) error {
	if m.deleteItemsFn != nil {
		return m.deleteItemsFn(ctx, ids)
	}
	return nil
}

func (m *mockStore) UpdateOrderItem(ctx context.Context, id uuid.UUID, fields gateway.OrderItemUpdate) error {
	if m.updateItemFn != nil {
		return m.updateItemFn(ctx, id, fields)
	}
	return nil
}

func (m *mockStore) UpdateOrder(ctx context.Context, orderID uuid.UUID, fields gateway.OrderUpdate) error {
	if m.updateOrderFn != nil {
		return m.updateOrderFn(ctx, orderID, fields)
	}
	return nil
}

func burgerProduct() *catalog.Product {
	productID := uuid.New()
	return &catalog.Product{
		ID:    productID,
		Name:  "Burger",
		Price: dec("20.00"),
		Varieties: []catalog.Variety{
			{ID: uuid.New(), ProductID: productID, Name: "Large", Price: dec("25.00"), Active: true},
		},
		Extras: []catalog.Extra{
			{ID: uuid.New(), ProductID: productID, Name: "Bacon", Price: dec("3.00"), MaxQuantity: 3, Active: true},
		},
	}
}

func productStore(products ...*catalog.Product) *mockStore {
	return &mockStore{
		getProductFn: func(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
			for _, p := range products {
				if p.ID == id {
					return p, nil
				}
			}
			return nil, gateway.ErrNotFound
		},
	}
}

func newService(store *mockStore) *OrderService {
	return NewOrderService(store, order.NewExtrasClipboard())
}

func TestCreateOrder(t *testing.T) {
	p := burgerProduct()
	store := productStore(p)

	var captured gateway.CreateOrderParams
	store.createOrderFn = func(_ context.Context, params gateway.CreateOrderParams) (*gateway.Order, error) {
		captured = params
		return &gateway.Order{ID: uuid.New(), Number: params.Number, Total: params.Total}, nil
	}

	svc := newService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Type:          enum.OrderTypeDineIn,
		TableNumber:   "12",
		PaymentMethod: enum.PaymentMethodCash,
		Items: []OrderItemRequest{
			{
				ProductID: p.ID.String(),
				VarietyID: p.Varieties[0].ID.String(),
				Quantity:  1,
				Extras:    []ExtraRequest{{ExtraID: p.Extras[0].ID.String(), Quantity: 1}},
			},
			{
				// Same selection again: must merge, not duplicate.
				ProductID: p.ID.String(),
				VarietyID: p.Varieties[0].ID.String(),
				Quantity:  1,
				Extras:    []ExtraRequest{{ExtraID: p.Extras[0].ID.String(), Quantity: 1}},
			},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if captured.Number != "ORD-001" || captured.NumberSeq != 1 {
		t.Errorf("number = %s/%d, want ORD-001/1", captured.Number, captured.NumberSeq)
	}
	if captured.Status != enum.OrderStatusOpen {
		t.Errorf("status = %s, want OPEN", captured.Status)
	}
	if len(captured.Items) != 1 {
		t.Fatalf("items = %d, want 1 (identical selections merge)", len(captured.Items))
	}
	it := captured.Items[0]
	if it.Quantity != 2 {
		t.Errorf("quantity = %d, want 2", it.Quantity)
	}
	if !it.UnitPrice.Equal(dec("28.00")) { // 25 variety + 3 bacon
		t.Errorf("unit price = %s, want 28.00", it.UnitPrice)
	}
	if !it.Subtotal.Equal(dec("56.00")) {
		t.Errorf("subtotal = %s, want 56.00", it.Subtotal)
	}
	if len(it.Extras) != 1 || it.Extras[0].Name != "Bacon" {
		t.Errorf("extras = %+v, want the bacon row", it.Extras)
	}
	if !captured.Total.Equal(dec("56.00")) {
		t.Errorf("total = %s, want 56.00", captured.Total)
	}
}

func TestCreateOrderWeighedItem(t *testing.T) {
	buffet := &catalog.Product{ID: uuid.New(), Name: "Buffet", Price: dec("39.90"), SoldByWeight: true}
	store := productStore(buffet)

	var captured gateway.CreateOrderParams
	store.createOrderFn = func(_ context.Context, params gateway.CreateOrderParams) (*gateway.Order, error) {
		captured = params
		return &gateway.Order{ID: uuid.New()}, nil
	}

	svc := newService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Type: enum.OrderTypePickup,
		Items: []OrderItemRequest{
			{ProductID: buffet.ID.String(), WeightKg: "0.500", Description: "Buffet plate"},
			{ProductID: buffet.ID.String(), WeightKg: "0.500", Description: "Buffet plate"},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}

	if len(captured.Items) != 2 {
		t.Fatalf("items = %d, want 2 (weighed items never merge)", len(captured.Items))
	}
	it := captured.Items[0]
	if it.ProductName != "Buffet plate" {
		t.Errorf("name = %q, want Buffet plate", it.ProductName)
	}
	if !it.Subtotal.Equal(dec("19.95")) {
		t.Errorf("subtotal = %s, want 19.95", it.Subtotal)
	}
	if it.Weight == nil || !it.Weight.Equal(dec("0.500")) {
		t.Errorf("weight = %v, want 0.500", it.Weight)
	}
	if it.Notes == nil || *it.Notes != "weight=0.500kg price_per_kg=39.90" {
		t.Errorf("notes = %v, want the weight encoding", it.Notes)
	}
	if !captured.Total.Equal(dec("39.90")) {
		t.Errorf("total = %s, want 39.90", captured.Total)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	p := burgerProduct()

	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr error
	}{
		{
			name:    "invalid order type",
			req:     CreateOrderRequest{Type: "DRIVE_THRU", Items: []OrderItemRequest{{ProductID: p.ID.String(), Quantity: 1}}},
			wantErr: ErrInvalidOrderType,
		},
		{
			name:    "empty items",
			req:     CreateOrderRequest{Type: enum.OrderTypeDineIn},
			wantErr: ErrEmptyItems,
		},
		{
			name:    "invalid payment method",
			req:     CreateOrderRequest{Type: enum.OrderTypeDineIn, PaymentMethod: "BARTER", Items: []OrderItemRequest{{ProductID: p.ID.String(), Quantity: 1}}},
			wantErr: ErrInvalidPayment,
		},
		{
			name:    "malformed product id",
			req:     CreateOrderRequest{Type: enum.OrderTypeDineIn, Items: []OrderItemRequest{{ProductID: "nope", Quantity: 1}}},
			wantErr: ErrInvalidProductID,
		},
		{
			name:    "unknown product",
			req:     CreateOrderRequest{Type: enum.OrderTypeDineIn, Items: []OrderItemRequest{{ProductID: uuid.NewString(), Quantity: 1}}},
			wantErr: ErrProductNotFound,
		},
		{
			name:    "unknown variety",
			req:     CreateOrderRequest{Type: enum.OrderTypeDineIn, Items: []OrderItemRequest{{ProductID: p.ID.String(), VarietyID: uuid.NewString(), Quantity: 1}}},
			wantErr: ErrVarietyNotFound,
		},
		{
			name:    "unknown extra",
			req:     CreateOrderRequest{Type: enum.OrderTypeDineIn, Items: []OrderItemRequest{{ProductID: p.ID.String(), Quantity: 1, Extras: []ExtraRequest{{ExtraID: uuid.NewString(), Quantity: 1}}}}},
			wantErr: ErrExtraNotFound,
		},
		{
			name:    "delivery without address",
			req:     CreateOrderRequest{Type: enum.OrderTypeDelivery, Items: []OrderItemRequest{{ProductID: p.ID.String(), Quantity: 1}}},
			wantErr: ErrDeliveryAddress,
		},
		{
			name: "bad delivery fee",
			req: CreateOrderRequest{
				Type: enum.OrderTypeDelivery, DeliveryAddress: "Main St 1", DeliveryFee: "-5",
				Items: []OrderItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
			},
			wantErr: ErrInvalidDeliveryFee,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(productStore(p))
			_, err := svc.CreateOrder(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateOrder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateOrderDeliveryFeeInTotal(t *testing.T) {
	p := burgerProduct()
	store := productStore(p)

	var captured gateway.CreateOrderParams
	store.createOrderFn = func(_ context.Context, params gateway.CreateOrderParams) (*gateway.Order, error) {
		captured = params
		return &gateway.Order{ID: uuid.New()}, nil
	}

	svc := newService(store)
	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Type:            enum.OrderTypeDelivery,
		DeliveryAddress: "Main St 1",
		DeliveryFee:     "7.00",
		Items:           []OrderItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if !captured.Total.Equal(dec("27.00")) { // 20 + 7 fee
		t.Errorf("total = %s, want 27.00", captured.Total)
	}
	if !captured.DeliveryFee.Equal(dec("7.00")) {
		t.Errorf("fee = %s, want 7.00", captured.DeliveryFee)
	}
}

func TestCreateOrderRetriesNumberConflict(t *testing.T) {
	p := burgerProduct()
	store := productStore(p)

	conflict := &pgconn.PgError{Code: "23505", ConstraintName: "orders_day_seq_key"}
	attempts := 0
	store.createOrderFn = func(_ context.Context, params gateway.CreateOrderParams) (*gateway.Order, error) {
		attempts++
		if attempts < 3 {
			return nil, conflict
		}
		return &gateway.Order{ID: uuid.New(), Number: params.Number}, nil
	}

	svc := newService(store)
	created, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Type:  enum.OrderTypeDineIn,
		Items: []OrderItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("CreateOrder() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if created.Number != "ORD-003" {
		t.Errorf("number = %s, want ORD-003 (fresh number per retry)", created.Number)
	}
}

func TestUpdateItems(t *testing.T) {
	p := burgerProduct()
	orderID := uuid.New()
	idA := uuid.New()
	idB := uuid.New()
	persisted := &gateway.Order{
		ID:     orderID,
		Type:   enum.OrderTypeDineIn,
		Status: enum.OrderStatusOpen,
		Items: []gateway.OrderItem{
			{ID: idA, OrderID: orderID, ProductName: "Burger", UnitPrice: dec("28.00"), Quantity: 1, Subtotal: dec("28.00")},
			{ID: idB, OrderID: orderID, ProductName: "Fries", UnitPrice: dec("15.00"), Quantity: 1, Subtotal: dec("15.00")},
		},
	}

	store := productStore(p)
	store.fetchFn = func(_ context.Context, id uuid.UUID) (*gateway.Order, error) {
		return persisted, nil
	}

	var deletedItems []uuid.UUID
	store.deleteItemsFn = func(_ context.Context, ids []uuid.UUID) error {
		deletedItems = append(deletedItems, ids...)
		return nil
	}
	updates := make(map[uuid.UUID]gateway.OrderItemUpdate)
	store.updateItemFn = func(_ context.Context, id uuid.UUID, fields gateway.OrderItemUpdate) error {
		updates[id] = fields
		return nil
	}
	var createdDrafts []gateway.OrderItemDraft
	store.createItemsFn = func(_ context.Context, oid uuid.UUID, items []gateway.OrderItemDraft) ([]gateway.OrderItem, error) {
		createdDrafts = append(createdDrafts, items...)
		created := make([]gateway.OrderItem, len(items))
		for i := range items {
			created[i] = gateway.OrderItem{ID: uuid.New(), OrderID: oid}
		}
		return created, nil
	}
	var capturedTotal *decimal.Decimal
	store.updateOrderFn = func(_ context.Context, _ uuid.UUID, fields gateway.OrderUpdate) error {
		capturedTotal = fields.Total
		return nil
	}

	svc := newService(store)
	_, err := svc.UpdateItems(context.Background(), orderID, UpdateItemsRequest{
		Items: []WorkingItemRequest{
			{ID: idA.String(), Quantity: 2},
			{ProductID: p.ID.String(), Quantity: 1}, // new line
		},
	})
	if err != nil {
		t.Fatalf("UpdateItems() error = %v", err)
	}

	if len(deletedItems) != 1 || deletedItems[0] != idB {
		t.Errorf("deleted = %v, want exactly [%s]", deletedItems, idB)
	}
	if _, touched := updates[idB]; touched {
		t.Error("no update may touch a deleted line")
	}
	up, ok := updates[idA]
	if !ok {
		t.Fatal("kept line was not updated")
	}
	if up.Quantity != 2 || !up.Subtotal.Equal(dec("56.00")) {
		t.Errorf("update = %+v, want quantity 2 subtotal 56.00", up)
	}
	if len(createdDrafts) != 1 || !createdDrafts[0].Subtotal.Equal(dec("20.00")) {
		t.Errorf("created = %+v, want one 20.00 burger", createdDrafts)
	}
	if capturedTotal == nil || !capturedTotal.Equal(dec("76.00")) { // 56 + 20
		t.Errorf("total = %v, want 76.00", capturedTotal)
	}
}

func TestUpdateItemsReweighWithoutQuantity(t *testing.T) {
	orderID := uuid.New()
	itemID := uuid.New()
	buffetID := uuid.New()
	weight := dec("0.500")
	pricePerKg := dec("39.90")

	store := &mockStore{
		fetchFn: func(context.Context, uuid.UUID) (*gateway.Order, error) {
			return &gateway.Order{ID: orderID, Type: enum.OrderTypeDineIn, Status: enum.OrderStatusOpen, Items: []gateway.OrderItem{
				{
					ID: itemID, OrderID: orderID, ProductID: &buffetID, ProductName: "Buffet plate",
					UnitPrice: pricePerKg, Quantity: 1, Subtotal: dec("19.95"),
					Weight: &weight, PricePerKg: &pricePerKg,
				},
			}}, nil
		},
	}
	var deleted []uuid.UUID
	store.deleteItemsFn = func(_ context.Context, ids []uuid.UUID) error {
		deleted = append(deleted, ids...)
		return nil
	}
	updates := make(map[uuid.UUID]gateway.OrderItemUpdate)
	store.updateItemFn = func(_ context.Context, id uuid.UUID, fields gateway.OrderItemUpdate) error {
		updates[id] = fields
		return nil
	}

	svc := newService(store)
	// Quantity deliberately omitted: weighed lines bill by weight only.
	_, err := svc.UpdateItems(context.Background(), orderID, UpdateItemsRequest{
		Items: []WorkingItemRequest{{ID: itemID.String(), WeightKg: "0.750"}},
	})
	if err != nil {
		t.Fatalf("UpdateItems() error = %v", err)
	}

	if len(deleted) != 0 {
		t.Fatalf("deleted = %v, want none (a re-weigh must not drop the line)", deleted)
	}
	up, ok := updates[itemID]
	if !ok {
		t.Fatal("re-weighed line was not updated")
	}
	if up.Quantity != 1 {
		t.Errorf("quantity = %d, want 1", up.Quantity)
	}
	if !up.Subtotal.Equal(dec("29.925")) { // 0.750 * 39.90
		t.Errorf("subtotal = %s, want 29.925", up.Subtotal)
	}
}

func TestUpdateItemsReplaceProduct(t *testing.T) {
	p := burgerProduct()
	orderID := uuid.New()
	itemID := uuid.New()
	oldProductID := uuid.New()
	weight := dec("0.500")
	pricePerKg := dec("39.90")
	note := "weight=0.500kg price_per_kg=39.90"

	store := productStore(p)
	store.fetchFn = func(context.Context, uuid.UUID) (*gateway.Order, error) {
		return &gateway.Order{ID: orderID, Type: enum.OrderTypeDineIn, Status: enum.OrderStatusOpen, Items: []gateway.OrderItem{
			{
				ID: itemID, OrderID: orderID, ProductID: &oldProductID, ProductName: "Buffet plate",
				UnitPrice: pricePerKg, Quantity: 1, Subtotal: dec("19.95"),
				Weight: &weight, PricePerKg: &pricePerKg, Notes: &note,
			},
		}}, nil
	}
	updates := make(map[uuid.UUID]gateway.OrderItemUpdate)
	store.updateItemFn = func(_ context.Context, id uuid.UUID, fields gateway.OrderItemUpdate) error {
		updates[id] = fields
		return nil
	}
	var extraInserts []gateway.OrderItemExtraInsert
	store.createExtrasFn = func(_ context.Context, extras []gateway.OrderItemExtraInsert) error {
		extraInserts = append(extraInserts, extras...)
		return nil
	}

	svc := newService(store)
	_, err := svc.UpdateItems(context.Background(), orderID, UpdateItemsRequest{
		Items: []WorkingItemRequest{{
			ID:        itemID.String(),
			ProductID: p.ID.String(),
			VarietyID: p.Varieties[0].ID.String(),
			Quantity:  2,
			Extras:    []ExtraRequest{{ExtraID: p.Extras[0].ID.String(), Quantity: 1}},
		}},
	})
	if err != nil {
		t.Fatalf("UpdateItems() error = %v", err)
	}

	up, ok := updates[itemID]
	if !ok {
		t.Fatal("replaced line was not updated")
	}
	if up.Snapshot == nil {
		t.Fatal("update carries no product snapshot")
	}
	if up.Snapshot.ProductID == nil || *up.Snapshot.ProductID != p.ID {
		t.Errorf("snapshot product = %v, want %s", up.Snapshot.ProductID, p.ID)
	}
	if up.Snapshot.Weight != nil || up.Snapshot.PricePerKg != nil {
		t.Error("weight pricing must not survive the swap")
	}
	if up.Snapshot.Notes != nil {
		t.Errorf("snapshot notes = %q, want nil (no stale weight encoding)", *up.Snapshot.Notes)
	}
	if up.Quantity != 2 || !up.Subtotal.Equal(dec("56.00")) { // (25 variety + 3 bacon) * 2
		t.Errorf("update = qty %d subtotal %s, want qty 2 subtotal 56.00", up.Quantity, up.Subtotal)
	}
	if len(extraInserts) != 1 || extraInserts[0].OrderItemID != itemID || extraInserts[0].Name != "Bacon" {
		t.Errorf("extra inserts = %+v, want one bacon row on the kept line", extraInserts)
	}
}

func TestUpdateItemsReplaceWithoutQuantityKeepsCount(t *testing.T) {
	p := burgerProduct()
	orderID := uuid.New()
	itemID := uuid.New()
	oldProductID := uuid.New()

	store := productStore(p)
	store.fetchFn = func(context.Context, uuid.UUID) (*gateway.Order, error) {
		return &gateway.Order{ID: orderID, Type: enum.OrderTypeDineIn, Status: enum.OrderStatusOpen, Items: []gateway.OrderItem{
			{ID: itemID, OrderID: orderID, ProductID: &oldProductID, ProductName: "Fries", UnitPrice: dec("15.00"), Quantity: 3, Subtotal: dec("45.00")},
		}}, nil
	}
	updates := make(map[uuid.UUID]gateway.OrderItemUpdate)
	store.updateItemFn = func(_ context.Context, id uuid.UUID, fields gateway.OrderItemUpdate) error {
		updates[id] = fields
		return nil
	}

	svc := newService(store)
	_, err := svc.UpdateItems(context.Background(), orderID, UpdateItemsRequest{
		Items: []WorkingItemRequest{{ID: itemID.String(), ProductID: p.ID.String()}},
	})
	if err != nil {
		t.Fatalf("UpdateItems() error = %v", err)
	}

	up, ok := updates[itemID]
	if !ok {
		t.Fatal("replaced line was not updated")
	}
	if up.Quantity != 3 {
		t.Errorf("quantity = %d, want 3 (kept from the line)", up.Quantity)
	}
	if !up.Subtotal.Equal(dec("60.00")) { // 3 * 20.00 base price
		t.Errorf("subtotal = %s, want 60.00", up.Subtotal)
	}
}

func TestUpdateItemsUnknownID(t *testing.T) {
	orderID := uuid.New()
	store := &mockStore{
		fetchFn: func(context.Context, uuid.UUID) (*gateway.Order, error) {
			return &gateway.Order{ID: orderID, Type: enum.OrderTypeDineIn, Items: []gateway.OrderItem{
				{ID: uuid.New(), OrderID: orderID, ProductName: "Burger", UnitPrice: dec("20.00"), Quantity: 1, Subtotal: dec("20.00")},
			}}, nil
		},
	}

	svc := newService(store)
	_, err := svc.UpdateItems(context.Background(), orderID, UpdateItemsRequest{
		Items: []WorkingItemRequest{{ID: uuid.NewString(), Quantity: 1}},
	})
	if !errors.Is(err, order.ErrUnknownLine) {
		t.Fatalf("UpdateItems() error = %v, want ErrUnknownLine", err)
	}
}

func TestUpdateItemsRefusesEmptySet(t *testing.T) {
	orderID := uuid.New()
	calls := 0
	store := &mockStore{
		fetchFn: func(context.Context, uuid.UUID) (*gateway.Order, error) {
			return &gateway.Order{ID: orderID, Type: enum.OrderTypeDineIn, Items: []gateway.OrderItem{
				{ID: uuid.New(), OrderID: orderID, ProductName: "Burger", UnitPrice: dec("20.00"), Quantity: 1, Subtotal: dec("20.00")},
			}}, nil
		},
		deleteItemsFn: func(context.Context, []uuid.UUID) error {
			calls++
			return nil
		},
	}

	svc := newService(store)
	_, err := svc.UpdateItems(context.Background(), orderID, UpdateItemsRequest{})
	if !errors.Is(err, order.ErrNoLinesRemaining) {
		t.Fatalf("UpdateItems() error = %v, want ErrNoLinesRemaining", err)
	}
	if calls != 0 {
		t.Error("no delete may run when reconciliation is refused")
	}
}
