// Package gateway defines the persistence contract the ordering core
// consumes. The core is storage-agnostic: it emits strongly-typed records
// and expects an implementation (see gateway/postgres) to move them.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Order is a persisted order with its line items hydrated.
type Order struct {
	ID              uuid.UUID
	Number          string
	NumberSeq       int32
	Type            string
	Status          string
	TableNumber     *string
	CustomerName    *string
	CustomerPhone   *string
	DeliveryAddress *string
	PaymentMethod   *string
	Notes           *string
	DeliveryFee     decimal.Decimal
	Total           decimal.Decimal
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// OrderItem is a persisted line item. ProductName and UnitPrice are
// snapshots taken at order time; the catalog may have changed since.
// Subtotal is authoritative and independently stored: for weight-priced
// lines it bakes in the weighing and is not recomputable from
// UnitPrice times Quantity.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   *uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
	Subtotal    decimal.Decimal
	VarietyID   *uuid.UUID
	VarietyName *string
	Weight      *decimal.Decimal // kilograms
	PricePerKg  *decimal.Decimal
	Notes       *string
	Extras      []OrderItemExtra
}

// OrderItemExtra is a persisted add-on row under a line item.
type OrderItemExtra struct {
	ID          uuid.UUID
	OrderItemID uuid.UUID
	ExtraID     *uuid.UUID
	Name        string
	UnitPrice   decimal.Decimal
	Quantity    int32
}

// OrderItemDraft is a line item ready for insertion. The store assigns the
// identity and echoes it back.
type OrderItemDraft struct {
	ProductID   *uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
	Subtotal    decimal.Decimal
	VarietyID   *uuid.UUID
	VarietyName *string
	Weight      *decimal.Decimal
	PricePerKg  *decimal.Decimal
	Notes       *string
	Extras      []OrderItemExtraDraft
}

// OrderItemExtraDraft is an add-on row before its parent line has an
// identity.
type OrderItemExtraDraft struct {
	ExtraID   *uuid.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int32
}

// OrderItemExtraInsert is an add-on row bound to its persisted parent.
type OrderItemExtraInsert struct {
	OrderItemID uuid.UUID
	ExtraID     *uuid.UUID
	Name        string
	UnitPrice   decimal.Decimal
	Quantity    int32
}

// ItemSnapshot carries the product/variety/unit-price snapshot fields
// written when a line's underlying product was swapped in place.
type ItemSnapshot struct {
	ProductID   *uuid.UUID
	ProductName string
	UnitPrice   decimal.Decimal
	VarietyID   *uuid.UUID
	VarietyName *string
	Weight      *decimal.Decimal
	PricePerKg  *decimal.Decimal
	Notes       *string
}

// OrderItemUpdate is the closed set of fields reconciliation may change on
// a persisted line. Snapshot is non-nil only when the underlying product
// was replaced.
type OrderItemUpdate struct {
	Quantity    int32
	ProductName string
	Subtotal    decimal.Decimal
	Snapshot    *ItemSnapshot
}

// OrderUpdate is a partial update of order-level fields. A nil field is
// left unchanged.
type OrderUpdate struct {
	Status          *string
	Type            *string
	TableNumber     *string
	CustomerName    *string
	CustomerPhone   *string
	DeliveryAddress *string
	PaymentMethod   *string
	Notes           *string
	DeliveryFee     *decimal.Decimal
	Total           *decimal.Decimal
}

// CreateOrderParams is the input for creating a new order with its initial
// line items in one call.
type CreateOrderParams struct {
	Number          string
	NumberSeq       int32
	Type            string
	Status          string
	TableNumber     *string
	CustomerName    *string
	CustomerPhone   *string
	DeliveryAddress *string
	PaymentMethod   *string
	Notes           *string
	DeliveryFee     decimal.Decimal
	Total           decimal.Decimal
	Items           []OrderItemDraft
}

// Gateway is the record-store surface the reconciliation engine drives.
// Implementations are not required to be transactional; callers treat each
// method as an independent call (see order.Apply).
type Gateway interface {
	CreateOrderItems(ctx context.Context, orderID uuid.UUID, items []OrderItemDraft) ([]OrderItem, error)
	CreateOrderItemExtras(ctx context.Context, extras []OrderItemExtraInsert) error
	DeleteOrderItemExtras(ctx context.Context, orderItemIDs []uuid.UUID) error
	DeleteOrderItems(ctx context.Context, ids []uuid.UUID) error
	UpdateOrderItem(ctx context.Context, id uuid.UUID, fields OrderItemUpdate) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, fields OrderUpdate) error
	FetchOrderWithItems(ctx context.Context, orderID uuid.UUID) (*Order, error)
}
