package enum

// OrderSide buy, sell
type OrderSide uint8

const (
	_order_side_beg OrderSide = iota
	OrderSideBuy
	OrderSideSell
	_order_side_end
)

func (s OrderSide) IsAvailable() bool {
	return s > _order_side_beg && s < _order_side_end
}

func (s OrderSide) Opposite() OrderSide {
	switch s {
	case OrderSideBuy:
		return OrderSideSell
	case OrderSideSell:
		return OrderSideBuy
	default:
		return s
	}
}

func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "BUY"
	case OrderSideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// OrderKind market, limit, stop market, stop limit, bracket, cover
type OrderKind uint8

const (
	_order_kind_beg OrderKind = iota
	OrderKindMarket
	OrderKindLimit
	OrderKindStopMarket
	OrderKindStopLimit
	OrderKindBracket
	OrderKindCover
	_order_kind_end
)

func (k OrderKind) IsAvailable() bool {
	return k > _order_kind_beg && k < _order_kind_end
}

// RequiresLimitPrice reports whether the kind carries a limit price.
func (k OrderKind) RequiresLimitPrice() bool {
	switch k {
	case OrderKindLimit, OrderKindStopLimit, OrderKindBracket, OrderKindCover:
		return true
	default:
		return false
	}
}

// RequiresTriggerPrice reports whether the kind carries a trigger price.
func (k OrderKind) RequiresTriggerPrice() bool {
	switch k {
	case OrderKindStopMarket, OrderKindStopLimit, OrderKindCover:
		return true
	default:
		return false
	}
}

func (k OrderKind) String() string {
	switch k {
	case OrderKindMarket:
		return "MARKET"
	case OrderKindLimit:
		return "LIMIT"
	case OrderKindStopMarket:
		return "STOP_MARKET"
	case OrderKindStopLimit:
		return "STOP_LIMIT"
	case OrderKindBracket:
		return "BRACKET"
	case OrderKindCover:
		return "COVER"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus created, submitted, accepted, partially filled, completed, rejected, cancelled
type OrderStatus uint8

const (
	_order_status_beg OrderStatus = iota
	OrderStatusCreated
	OrderStatusSubmitted
	OrderStatusAccepted
	OrderStatusPartiallyFilled
	OrderStatusCompleted
	OrderStatusRejected
	OrderStatusCancelled
	_order_status_end
)

func (s OrderStatus) IsAvailable() bool {
	return s > _order_status_beg && s < _order_status_end
}

// IsTerminal reports whether no transition may leave the status.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusRejected, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusCreated:
		return "CREATED"
	case OrderStatusSubmitted:
		return "SUBMITTED"
	case OrderStatusAccepted:
		return "ACCEPTED"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusCompleted:
		return "COMPLETED"
	case OrderStatusRejected:
		return "REJECTED"
	case OrderStatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ProductType delivery, intraday, margin, carry forward
type ProductType uint8

const (
	_product_type_beg ProductType = iota
	ProductTypeDelivery
	ProductTypeIntraday
	ProductTypeMargin
	ProductTypeCarryForward
	_product_type_end
)

func (p ProductType) IsAvailable() bool {
	return p > _product_type_beg && p < _product_type_end
}

func (p ProductType) String() string {
	switch p {
	case ProductTypeDelivery:
		return "DELIVERY"
	case ProductTypeIntraday:
		return "INTRADAY"
	case ProductTypeMargin:
		return "MARGIN"
	case ProductTypeCarryForward:
		return "CARRYFORWARD"
	default:
		return "UNKNOWN"
	}
}
