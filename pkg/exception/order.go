package exception

import "errors"

// Validation errors: the intent is malformed and no order is created.
var (
	ErrOrderUnsupportedKind    = errors.New("order: unsupported kind")
	ErrOrderUnsupportedSide    = errors.New("order: unsupported side")
	ErrOrderMissingLimitPrice  = errors.New("order: missing limit price")
	ErrOrderMissingTrigger     = errors.New("order: missing trigger price")
	ErrOrderMissingBracketLegs = errors.New("order: missing bracket take-profit/stop-loss")
	ErrOrderInvalidQuantity    = errors.New("order: quantity must be > 0")
)

// Table errors.
var (
	ErrOrderUnknownRef       = errors.New("order: local ref not found")
	ErrOrderBrokerIDReassign = errors.New("order: broker id already assigned")
	ErrOrderMissingBrokerID  = errors.New("order: broker id not assigned yet")
)
