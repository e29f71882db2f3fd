package broker

import (
	"context"

	"main/internal/model"
)

// OrderPayload is the exact venue request for placing one order. The
// router owns the kind→type/variety mapping; the gateway only transports.
type OrderPayload struct {
	Variety         string // NORMAL, STOPLOSS, BO, CO
	TradingSymbol   string
	SymbolToken     string
	TransactionType string // BUY, SELL
	Exchange        string
	OrderType       string // MARKET, LIMIT, STOPLOSS_MARKET, STOPLOSS_LIMIT
	ProductType     string
	Duration        string
	Quantity        model.Quantity
	Price           model.Price
	TriggerPrice    model.Price

	// Bracket-only sub-fields.
	SquareOff        model.Price
	StopLoss         model.Price
	TrailingStopLoss model.Price
}

// PlaceAck is the venue's synchronous response to a placement.
type PlaceAck struct {
	OrderID string
	Status  string
}

// OrderEvent is one push update from the venue order stream.
// FillQty/FillPrice are meaningful only for fill-bearing statuses.
type OrderEvent struct {
	OrderID     string
	Status      string // open, complete, partial, rejected, cancelled
	FillQty     model.Quantity
	FillPrice   model.Price
	Reason      string
	EventTsNano int64
}

// Event status codes as delivered by the venue stream.
const (
	EventStatusOpen      = "open"
	EventStatusComplete  = "complete"
	EventStatusPartial   = "partial"
	EventStatusRejected  = "rejected"
	EventStatusCancelled = "cancelled"
)

// PositionRecord is one broker-side position row from the resync query.
type PositionRecord struct {
	Token    string
	Qty      model.Quantity
	AvgPrice model.Price
}

// Gateway is the venue boundary consumed by the router and the engine.
//
// PlaceOrder and CancelOrder are blocking network calls with no implicit
// timeout; callers impose one through ctx. The two subscriptions push
// into the handler from the gateway's own goroutines; handlers must hand
// off quickly and never block.
type Gateway interface {
	PlaceOrder(ctx context.Context, payload OrderPayload) (PlaceAck, error)
	CancelOrder(ctx context.Context, orderID, variety string) error
	Positions(ctx context.Context) ([]PositionRecord, error)
	Cash(ctx context.Context) (model.Notional, error)

	SubscribeOrders(ctx context.Context, handler func(OrderEvent)) (unsubscribe func(), err error)
	SubscribeTicks(ctx context.Context, tokens []string, handler func(model.Tick)) (unsubscribe func(), err error)
}
