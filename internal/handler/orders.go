package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sabor-pos/api/internal/enum"
	"github.com/sabor-pos/api/internal/gateway"
	"github.com/sabor-pos/api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService; narrow interface for testability.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*gateway.Order, error)
	UpdateItems(ctx context.Context, orderID uuid.UUID, req service.UpdateItemsRequest) (*gateway.Order, error)
}

// OrderStore defines the store methods needed by order read/update handlers.
// Satisfied by *postgres.Store; narrow interface for testability.
type OrderStore interface {
	FetchOrderWithItems(ctx context.Context, orderID uuid.UUID) (*gateway.Order, error)
	ListOrders(ctx context.Context, status string) ([]*gateway.Order, error)
	UpdateOrder(ctx context.Context, orderID uuid.UUID, fields gateway.OrderUpdate) error
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc   OrderServicer
	store OrderStore
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore) *OrderHandler {
	return &OrderHandler{svc: svc, store: store}
}

// RegisterRoutes registers order endpoints on the given Chi router.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Put("/{id}/items", h.UpdateItems)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// --- Request / Response types ---

type createOrderRequest struct {
	Type            string                   `json:"type"`
	TableNumber     string                   `json:"table_number"`
	CustomerName    string                   `json:"customer_name"`
	CustomerPhone   string                   `json:"customer_phone"`
	DeliveryAddress string                   `json:"delivery_address"`
	PaymentMethod   string                   `json:"payment_method"`
	Notes           string                   `json:"notes"`
	DeliveryFee     string                   `json:"delivery_fee"`
	Items           []createOrderItemRequest `json:"items"`
}

type createOrderItemRequest struct {
	ProductID   string              `json:"product_id"`
	VarietyID   string              `json:"variety_id"`
	Quantity    int32               `json:"quantity"`
	WeightKg    string              `json:"weight_kg"`
	PricePerKg  string              `json:"price_per_kg"`
	Description string              `json:"description"`
	Extras      []extraRequestEntry `json:"extras"`
}

type extraRequestEntry struct {
	ExtraID  string `json:"extra_id"`
	Quantity int32  `json:"quantity"`
}

type updateItemsRequest struct {
	Items []workingItemRequest `json:"items"`
}

type workingItemRequest struct {
	ID          string              `json:"id"`
	Quantity    int32               `json:"quantity"`
	WeightKg    string              `json:"weight_kg"`
	ProductID   string              `json:"product_id"`
	VarietyID   string              `json:"variety_id"`
	PricePerKg  string              `json:"price_per_kg"`
	Description string              `json:"description"`
	Extras      []extraRequestEntry `json:"extras"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID              uuid.UUID           `json:"id"`
	Number          string              `json:"number"`
	Type            string              `json:"type"`
	Status          string              `json:"status"`
	TableNumber     *string             `json:"table_number"`
	CustomerName    *string             `json:"customer_name"`
	CustomerPhone   *string             `json:"customer_phone"`
	DeliveryAddress *string             `json:"delivery_address"`
	PaymentMethod   *string             `json:"payment_method"`
	Notes           *string             `json:"notes"`
	DeliveryFee     string              `json:"delivery_fee"`
	Total           string              `json:"total"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

type orderItemResponse struct {
	ID          uuid.UUID           `json:"id"`
	ProductID   *uuid.UUID          `json:"product_id"`
	ProductName string              `json:"product_name"`
	UnitPrice   string              `json:"unit_price"`
	Quantity    int32               `json:"quantity"`
	Subtotal    string              `json:"subtotal"`
	VarietyID   *uuid.UUID          `json:"variety_id"`
	VarietyName *string             `json:"variety_name"`
	WeightKg    *string             `json:"weight_kg"`
	PricePerKg  *string             `json:"price_per_kg"`
	Notes       *string             `json:"notes"`
	Extras      []itemExtraResponse `json:"extras"`
}

type itemExtraResponse struct {
	ID        uuid.UUID  `json:"id"`
	ExtraID   *uuid.UUID `json:"extra_id"`
	Name      string     `json:"name"`
	UnitPrice string     `json:"unit_price"`
	Quantity  int32      `json:"quantity"`
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
}

func toOrderResponse(o *gateway.Order) orderResponse {
	resp := orderResponse{
		ID:              o.ID,
		Number:          o.Number,
		Type:            o.Type,
		Status:          o.Status,
		TableNumber:     o.TableNumber,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		DeliveryFee:     o.DeliveryFee.StringFixed(2),
		Total:           o.Total.StringFixed(2),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}

	resp.Items = make([]orderItemResponse, len(o.Items))
	for i, item := range o.Items {
		resp.Items[i] = toItemResponse(item)
	}
	return resp
}

func toItemResponse(item gateway.OrderItem) orderItemResponse {
	resp := orderItemResponse{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		UnitPrice:   item.UnitPrice.StringFixed(2),
		Quantity:    item.Quantity,
		Subtotal:    item.Subtotal.StringFixed(2),
		VarietyID:   item.VarietyID,
		VarietyName: item.VarietyName,
		Notes:       item.Notes,
	}
	if item.Weight != nil {
		s := item.Weight.StringFixed(3)
		resp.WeightKg = &s
	}
	if item.PricePerKg != nil {
		s := item.PricePerKg.StringFixed(2)
		resp.PricePerKg = &s
	}
	resp.Extras = make([]itemExtraResponse, len(item.Extras))
	for j, e := range item.Extras {
		resp.Extras[j] = itemExtraResponse{
			ID:        e.ID,
			ExtraID:   e.ExtraID,
			Name:      e.Name,
			UnitPrice: e.UnitPrice.StringFixed(2),
			Quantity:  e.Quantity,
		}
	}
	return resp
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Type == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type is required"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "items are required"})
		return
	}

	svcItems := make([]service.OrderItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.OrderItemRequest{
			ProductID:   item.ProductID,
			VarietyID:   item.VarietyID,
			Quantity:    item.Quantity,
			WeightKg:    item.WeightKg,
			PricePerKg:  item.PricePerKg,
			Description: item.Description,
			Extras:      toExtraRequests(item.Extras),
		}
	}

	order, err := h.svc.CreateOrder(r.Context(), service.CreateOrderRequest{
		Type:            req.Type,
		TableNumber:     req.TableNumber,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		DeliveryFee:     req.DeliveryFee,
		Items:           svcItems,
	})
	if err != nil {
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("create order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// List handles GET /orders. Accepts an optional ?status= filter.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !isValidOrderStatus(status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	orders, err := h.store.ListOrders(r.Context(), status)
	if err != nil {
		log.Error().Err(err).Msg("list orders")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, orderListResponse{Orders: resp})
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	order, err := h.store.FetchOrderWithItems(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Error().Err(err).Msg("get order")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateItems handles PUT /orders/{id}/items. The body is the full desired
// line set; persisted items absent from it are deleted.
func (h *OrderHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateItemsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	svcItems := make([]service.WorkingItemRequest, len(req.Items))
	for i, item := range req.Items {
		svcItems[i] = service.WorkingItemRequest{
			ID:          item.ID,
			Quantity:    item.Quantity,
			WeightKg:    item.WeightKg,
			ProductID:   item.ProductID,
			VarietyID:   item.VarietyID,
			PricePerKg:  item.PricePerKg,
			Description: item.Description,
			Extras:      toExtraRequests(item.Extras),
		}
	}

	order, err := h.svc.UpdateItems(r.Context(), orderID, service.UpdateItemsRequest{Items: svcItems})
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		if isValidationError(err) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("update order items")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// UpdateStatus handles PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order ID"})
		return
	}

	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}
	if !isValidOrderStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid status"})
		return
	}

	err = h.store.UpdateOrder(r.Context(), orderID, gateway.OrderUpdate{Status: &req.Status})
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "order not found"})
			return
		}
		log.Error().Err(err).Msg("update order status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	order, err := h.store.FetchOrderWithItems(r.Context(), orderID)
	if err != nil {
		log.Error().Err(err).Msg("fetch order after status update")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// --- Helpers ---

func toExtraRequests(in []extraRequestEntry) []service.ExtraRequest {
	if len(in) == 0 {
		return nil
	}
	out := make([]service.ExtraRequest, len(in))
	for i, e := range in {
		out[i] = service.ExtraRequest{ExtraID: e.ExtraID, Quantity: e.Quantity}
	}
	return out
}

func isValidOrderStatus(s string) bool {
	switch s {
	case enum.OrderStatusOpen,
		enum.OrderStatusPreparing,
		enum.OrderStatusReady,
		enum.OrderStatusCompleted,
		enum.OrderStatusCancelled:
		return true
	}
	return false
}
