package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/sabor-pos/api/internal/cart"
	"github.com/sabor-pos/api/internal/catalog"
	"github.com/sabor-pos/api/internal/enum"
	"github.com/sabor-pos/api/internal/gateway"
	"github.com/sabor-pos/api/internal/order"
)

const maxOrderNumberRetries = 3

// Errors returned by the order service.
var (
	ErrEmptyItems         = errors.New("items are required")
	ErrInvalidOrderType   = errors.New("invalid order_type")
	ErrInvalidPayment     = errors.New("invalid payment_method")
	ErrInvalidProductID   = errors.New("invalid product_id")
	ErrInvalidVarietyID   = errors.New("invalid variety_id")
	ErrInvalidExtraID     = errors.New("invalid extra_id")
	ErrInvalidItemID      = errors.New("invalid item id")
	ErrInvalidWeight      = errors.New("invalid weight_kg")
	ErrInvalidPricePerKg  = errors.New("invalid price_per_kg")
	ErrInvalidDeliveryFee = errors.New("invalid delivery_fee")
	ErrProductNotFound    = errors.New("product not found")
	ErrVarietyNotFound    = errors.New("variety not found")
	ErrExtraNotFound      = errors.New("extra not found")
	ErrDeliveryAddress    = errors.New("delivery_address is required for DELIVERY orders")
)

// OrderStore defines the storage methods the service needs. Satisfied by
// *postgres.Store.
type OrderStore interface {
	gateway.Gateway
	NextOrderNumber(ctx context.Context) (string, int32, error)
	CreateOrder(ctx context.Context, params gateway.CreateOrderParams) (*gateway.Order, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
}

// CreateOrderRequest is the validated input for creating an order.
// Monetary fields travel as strings and are parsed into decimals here.
type CreateOrderRequest struct {
	Type            string
	TableNumber     string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	PaymentMethod   string
	Notes           string
	DeliveryFee     string
	Items           []OrderItemRequest
}

// OrderItemRequest is a single item in the order. WeightKg marks the item
// as weight-priced; PricePerKg defaults to the product's price.
type OrderItemRequest struct {
	ProductID   string
	VarietyID   string
	Quantity    int32
	WeightKg    string
	PricePerKg  string
	Description string
	Extras      []ExtraRequest
}

// ExtraRequest is an add-on on an order item.
type ExtraRequest struct {
	ExtraID  string
	Quantity int32
}

// UpdateItemsRequest is the desired line set for an order being edited.
// Entries with ID refer to persisted items; entries without ID are new.
// Persisted items absent from the list are deleted.
type UpdateItemsRequest struct {
	Items []WorkingItemRequest
}

// WorkingItemRequest is one entry of the desired line set.
type WorkingItemRequest struct {
	ID       string // persisted item id; empty for new lines
	Quantity int32
	WeightKg string // re-weighs a weight-priced line when set

	// ProductID on a kept entry swaps the line's product in place, with
	// VarietyID and Extras describing the new selection. On entries
	// without ID these are the new-line fields.
	ProductID   string
	VarietyID   string
	PricePerKg  string
	Description string
	Extras      []ExtraRequest
}

// OrderService handles order composition and editing.
type OrderService struct {
	store  OrderStore
	editor *order.Editor
}

// NewOrderService creates an OrderService.
func NewOrderService(store OrderStore, clip *order.ExtrasClipboard) *OrderService {
	return &OrderService{
		store:  store,
		editor: order.NewEditor(store, clip),
	}
}

// CreateOrder validates the request, prices the cart, and persists the
// order. Retries when the daily order number races with a concurrent
// creation.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*gateway.Order, error) {
	if err := validateOrderType(req.Type); err != nil {
		return nil, err
	}
	if req.PaymentMethod != "" && !isValidPaymentMethod(req.PaymentMethod) {
		return nil, ErrInvalidPayment
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	deliveryFee := decimal.Zero
	if req.Type == enum.OrderTypeDelivery {
		if req.DeliveryAddress == "" {
			return nil, ErrDeliveryAddress
		}
		if req.DeliveryFee != "" {
			fee, err := decimal.NewFromString(req.DeliveryFee)
			if err != nil || fee.IsNegative() {
				return nil, ErrInvalidDeliveryFee
			}
			deliveryFee = fee
		}
	}

	draft := cart.NewDraft()
	for i, item := range req.Items {
		if err := s.addToCart(ctx, draft, item); err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
	}

	subtotal := draft.Subtotal()
	total := subtotal.Add(deliveryFee)

	params := gateway.CreateOrderParams{
		Type:            req.Type,
		Status:          enum.OrderStatusOpen,
		TableNumber:     optional(req.TableNumber),
		CustomerName:    optional(req.CustomerName),
		CustomerPhone:   optional(req.CustomerPhone),
		DeliveryAddress: optional(req.DeliveryAddress),
		PaymentMethod:   optional(req.PaymentMethod),
		Notes:           optional(req.Notes),
		DeliveryFee:     deliveryFee,
		Total:           total,
		Items:           itemDrafts(draft),
	}

	// The daily number sequence is read-then-insert; two concurrent
	// creations can pick the same value and trip the unique index.
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		number, seq, err := s.store.NextOrderNumber(ctx)
		if err != nil {
			return nil, err
		}
		params.Number = number
		params.NumberSeq = seq

		created, err := s.store.CreateOrder(ctx, params)
		if err == nil {
			return created, nil
		}
		if isNumberConflict(err) {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// addToCart resolves one request item against the catalog and adds it to
// the draft.
func (s *OrderService) addToCart(ctx context.Context, draft *cart.Draft, item OrderItemRequest) error {
	productID, err := uuid.Parse(item.ProductID)
	if err != nil {
		return ErrInvalidProductID
	}
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			return ErrProductNotFound
		}
		return fmt.Errorf("get product: %w", err)
	}

	if item.WeightKg != "" || product.SoldByWeight {
		weight, err := decimal.NewFromString(item.WeightKg)
		if err != nil {
			return ErrInvalidWeight
		}
		pricePerKg := product.Price
		if item.PricePerKg != "" {
			pricePerKg, err = decimal.NewFromString(item.PricePerKg)
			if err != nil {
				return ErrInvalidPricePerKg
			}
		}
		_, err = draft.AddWeighedItem(*product, weight, pricePerKg, item.Description)
		return err
	}

	var variety *catalog.Variety
	if item.VarietyID != "" {
		vid, err := uuid.Parse(item.VarietyID)
		if err != nil {
			return ErrInvalidVarietyID
		}
		v, ok := product.VarietyByID(vid)
		if !ok {
			return ErrVarietyNotFound
		}
		variety = &v
	}

	extras := make([]cart.ExtraSelection, 0, len(item.Extras))
	for j, ex := range item.Extras {
		eid, err := uuid.Parse(ex.ExtraID)
		if err != nil {
			return fmt.Errorf("extras[%d]: %w", j, ErrInvalidExtraID)
		}
		e, ok := product.ExtraByID(eid)
		if !ok {
			return fmt.Errorf("extras[%d]: %w", j, ErrExtraNotFound)
		}
		extras = append(extras, cart.ExtraSelection{Extra: e, Quantity: ex.Quantity})
	}

	_, err = draft.AddSelection(*product, variety, extras, item.Quantity)
	return err
}

// UpdateItems reconciles the desired line set against the persisted order
// and returns the refreshed order.
func (s *OrderService) UpdateItems(ctx context.Context, orderID uuid.UUID, req UpdateItemsRequest) (*gateway.Order, error) {
	draft, err := s.editor.Open(ctx, orderID)
	if err != nil {
		return nil, err
	}

	keep := make(map[uuid.UUID]WorkingItemRequest)
	for i, item := range req.Items {
		if item.ID == "" {
			if err := s.addWorkingLine(ctx, draft, item); err != nil {
				return nil, fmt.Errorf("items[%d]: %w", i, err)
			}
			continue
		}
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidItemID)
		}
		keep[id] = item
	}

	for _, line := range draft.Lines() {
		existing, ok := line.Identity.(order.ExistingLine)
		if !ok {
			continue
		}
		item, kept := keep[existing.ID]
		if !kept {
			if err := draft.RemoveLine(existing); err != nil {
				return nil, err
			}
			continue
		}
		if item.ProductID != "" {
			if err := s.replaceLine(ctx, draft, existing, item); err != nil {
				return nil, err
			}
			// A replacement entry without an explicit quantity keeps the
			// line's count.
			if item.Quantity == 0 {
				item.Quantity = line.Quantity
			}
		}
		if item.WeightKg != "" {
			weight, err := decimal.NewFromString(item.WeightKg)
			if err != nil {
				return nil, ErrInvalidWeight
			}
			if err := draft.SetWeight(existing, weight); err != nil {
				return nil, err
			}
		}
		if err := draft.SetQuantity(existing, item.Quantity); err != nil {
			return nil, err
		}
		delete(keep, existing.ID)
	}
	for id := range keep {
		return nil, fmt.Errorf("item %s: %w", id, order.ErrUnknownLine)
	}

	if _, err := s.editor.Save(ctx, draft); err != nil {
		return nil, err
	}
	return s.store.FetchOrderWithItems(ctx, orderID)
}

// addWorkingLine resolves a new request entry and appends it to the edit
// session.
func (s *OrderService) addWorkingLine(ctx context.Context, draft *order.Draft, item WorkingItemRequest) error {
	// Pricing for new lines during an edit follows the same rules as the
	// cart, so build through one and lift the resulting line over.
	scratch := cart.NewDraft()
	if err := s.addToCart(ctx, scratch, OrderItemRequest{
		ProductID:   item.ProductID,
		VarietyID:   item.VarietyID,
		Quantity:    item.Quantity,
		WeightKg:    item.WeightKg,
		PricePerKg:  item.PricePerKg,
		Description: item.Description,
		Extras:      item.Extras,
	}); err != nil {
		return err
	}
	line := scratch.Lines()[0]

	dl := order.DraftLine{
		ProductName: line.Name(),
		UnitPrice:   line.UnitPrice,
		Quantity:    line.Quantity,
		Weight:      line.Weight,
		PricePerKg:  line.PricePerKg,
	}
	productID := line.Product.ID
	dl.ProductID = &productID
	if line.Variety != nil {
		varietyID := line.Variety.ID
		dl.VarietyID = &varietyID
		dl.VarietyName = &line.Variety.Name
	}
	for _, ex := range line.Extras {
		extraID := ex.Extra.ID
		dl.Extras = append(dl.Extras, gateway.OrderItemExtraDraft{
			ExtraID:   &extraID,
			Name:      ex.Extra.Name,
			UnitPrice: ex.Extra.Price,
			Quantity:  ex.Quantity,
		})
	}
	_, err := draft.AddLine(dl)
	return err
}

// replaceLine swaps the product of a kept line in place. The new selection
// goes through the cart so variety and extras get the same validation as a
// fresh line.
func (s *OrderService) replaceLine(ctx context.Context, draft *order.Draft, id order.LineIdentity, item WorkingItemRequest) error {
	scratch := cart.NewDraft()
	if err := s.addToCart(ctx, scratch, OrderItemRequest{
		ProductID: item.ProductID,
		VarietyID: item.VarietyID,
		Quantity:  1,
		Extras:    item.Extras,
	}); err != nil {
		return err
	}
	line := scratch.Lines()[0]

	r := order.Replacement{
		ProductName: line.Product.Name,
		UnitPrice:   line.Product.Price,
	}
	productID := line.Product.ID
	r.ProductID = &productID
	if line.Variety != nil {
		r.UnitPrice = line.Variety.Price
		varietyID := line.Variety.ID
		r.VarietyID = &varietyID
		r.VarietyName = &line.Variety.Name
	}
	for _, ex := range line.Extras {
		extraID := ex.Extra.ID
		r.Extras = append(r.Extras, gateway.OrderItemExtraDraft{
			ExtraID:   &extraID,
			Name:      ex.Extra.Name,
			UnitPrice: ex.Extra.Price,
			Quantity:  ex.Quantity,
		})
	}
	return draft.ReplaceProduct(id, r)
}

// itemDrafts renders cart lines as insert rows. Weighed lines carry the
// weight columns plus the legacy notes encoding.
func itemDrafts(draft *cart.Draft) []gateway.OrderItemDraft {
	lines := draft.Lines()
	out := make([]gateway.OrderItemDraft, len(lines))
	for i, line := range lines {
		it := gateway.OrderItemDraft{
			ProductName: line.Name(),
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			Subtotal:    line.ExtendedPrice(),
			Weight:      line.Weight,
			PricePerKg:  line.PricePerKg,
		}
		productID := line.Product.ID
		it.ProductID = &productID
		if line.Variety != nil {
			varietyID := line.Variety.ID
			it.VarietyID = &varietyID
			it.VarietyName = &line.Variety.Name
		}
		if line.Weight != nil && line.PricePerKg != nil {
			note := order.EncodeWeightNote(*line.Weight, *line.PricePerKg)
			it.Notes = &note
		}
		for _, ex := range line.Extras {
			extraID := ex.Extra.ID
			it.Extras = append(it.Extras, gateway.OrderItemExtraDraft{
				ExtraID:   &extraID,
				Name:      ex.Extra.Name,
				UnitPrice: ex.Extra.Price,
				Quantity:  ex.Quantity,
			})
		}
		out[i] = it
	}
	return out
}

// --- Helpers ---

func validateOrderType(s string) error {
	switch s {
	case enum.OrderTypeDineIn, enum.OrderTypePickup, enum.OrderTypeDelivery:
		return nil
	}
	return ErrInvalidOrderType
}

func isValidPaymentMethod(s string) bool {
	switch s {
	case enum.PaymentMethodCash, enum.PaymentMethodCard, enum.PaymentMethodPix:
		return true
	}
	return false
}

func isNumberConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == "orders_day_seq_key"
	}
	return false
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
