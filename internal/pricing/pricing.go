// Package pricing computes unit and extended prices for cart lines.
// All functions are pure; validation happens at the mutation boundary,
// not here.
package pricing

import "github.com/shopspring/decimal"

// ExtraCharge is one selected add-on with its unit price and quantity.
type ExtraCharge struct {
	Price    decimal.Decimal
	Quantity int32
}

// Line is the minimal view of a cart line the pricing functions need.
// BasePrice is the product's base price, reinterpreted as price per
// kilogram when Weight is set.
type Line struct {
	BasePrice    decimal.Decimal
	VarietyPrice *decimal.Decimal // replaces BasePrice outright when set
	Extras       []ExtraCharge
	Quantity     int32
	Weight       *decimal.Decimal // kilograms; set only for weight-priced lines
}

func (l Line) weighted() bool {
	return l.Weight != nil && l.Weight.IsPositive()
}

// UnitPrice returns the price of one unit of the line. For weight-priced
// lines this is the price per kilogram; such lines carry no variety or
// extras.
func UnitPrice(l Line) decimal.Decimal {
	if l.weighted() {
		return l.BasePrice
	}
	price := l.BasePrice
	if l.VarietyPrice != nil {
		price = *l.VarietyPrice
	}
	for _, e := range l.Extras {
		price = price.Add(e.Price.Mul(decimal.NewFromInt32(e.Quantity)))
	}
	return price
}

// ExtendedPrice returns the line's billed amount: unit price times weight
// for weight-priced lines, unit price times quantity otherwise.
func ExtendedPrice(l Line) decimal.Decimal {
	if l.weighted() {
		return UnitPrice(l).Mul(*l.Weight)
	}
	return UnitPrice(l).Mul(decimal.NewFromInt32(l.Quantity))
}

// OrderTotal sums the extended price of every line plus the delivery fee.
func OrderTotal(lines []Line, deliveryFee decimal.Decimal) decimal.Decimal {
	total := deliveryFee
	for _, l := range lines {
		total = total.Add(ExtendedPrice(l))
	}
	return total
}
