package enum

// ── Order statuses (CHECK constrained in DB) ──

const (
	OrderStatusOpen      = "OPEN"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// ── Order types (CHECK constrained in DB) ──

const (
	OrderTypeDineIn   = "DINE_IN"
	OrderTypePickup   = "PICKUP"
	OrderTypeDelivery = "DELIVERY"
)

// ── Payment methods (configurable labels, no DB constraint) ──

const (
	PaymentMethodCash = "CASH"
	PaymentMethodCard = "CARD"
	PaymentMethodPix  = "PIX"
)
