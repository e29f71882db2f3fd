package model

import "main/internal/model/enum"

// OrderIntent is the strategy's abstract request, free of venue encoding.
type OrderIntent struct {
	Symbol       string
	Exchange     enum.Exchange
	Side         enum.OrderSide
	Kind         enum.OrderKind
	Quantity     Quantity
	LimitPrice   Price // present iff Kind.RequiresLimitPrice
	TriggerPrice Price // present iff Kind.RequiresTriggerPrice
	Product      enum.ProductType

	// Bracket sub-fields, used only when Kind is Bracket.
	TakeProfit   Price
	StopLoss     Price
	TrailingStop Price

	CreatedTime int64
}

// Order is the local view of one venue order.
//
// LocalRef is assigned at creation and stable for the order's lifetime.
// BrokerID is assigned exactly once when the venue acknowledges the order
// and is immutable afterwards.
type Order struct {
	LocalRef     uint64
	BrokerID     string
	Symbol       string
	Token        string
	Exchange     enum.Exchange
	Side         enum.OrderSide
	Kind         enum.OrderKind
	Quantity     Quantity
	LimitPrice   Price
	TriggerPrice Price
	Status       enum.OrderStatus
	FilledQty    Quantity
	AvgFillPrice Price // defined only when FilledQty > 0
	RejectReason string
	UpdatedTime  int64
}

// Remaining returns the unfilled quantity.
func (o *Order) Remaining() Quantity {
	return o.Quantity - o.FilledQty
}
