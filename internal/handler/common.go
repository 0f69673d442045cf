package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/sabor-pos/api/internal/cart"
	"github.com/sabor-pos/api/internal/order"
	"github.com/sabor-pos/api/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write response")
	}
}

// decodeJSON decodes a request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// validationErrs are the mutation-boundary errors that map to 400. They are
// raised before any store call, so the caller can fix the input and retry.
var validationErrs = []error{
	service.ErrEmptyItems,
	service.ErrInvalidOrderType,
	service.ErrInvalidPayment,
	service.ErrInvalidProductID,
	service.ErrInvalidVarietyID,
	service.ErrInvalidExtraID,
	service.ErrInvalidItemID,
	service.ErrInvalidWeight,
	service.ErrInvalidPricePerKg,
	service.ErrInvalidDeliveryFee,
	service.ErrProductNotFound,
	service.ErrVarietyNotFound,
	service.ErrExtraNotFound,
	service.ErrDeliveryAddress,
	cart.ErrInvalidQuantity,
	cart.ErrInvalidWeight,
	cart.ErrInvalidPricePerKg,
	cart.ErrExtraQuantity,
	cart.ErrTooManyExtras,
	cart.ErrInactiveVariety,
	cart.ErrInactiveExtra,
	cart.ErrVarietyMismatch,
	cart.ErrExtraMismatch,
	order.ErrInvalidQuantity,
	order.ErrInvalidWeight,
	order.ErrInvalidPricePerKg,
	order.ErrUnknownLine,
	order.ErrNoLinesRemaining,
	order.ErrExtrasImmutable,
	order.ErrNotWeighed,
}

func isValidationError(err error) bool {
	for _, target := range validationErrs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
