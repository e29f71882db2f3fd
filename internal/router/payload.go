package router

import (
	"main/internal/broker"
	"main/internal/instrument"
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const defaultDuration = "DAY"

// varietyFor maps an order kind to the venue order category. Stop kinds
// ride the STOPLOSS variety; bracket and cover orders have their own.
func varietyFor(kind enum.OrderKind) (string, error) {
	switch kind {
	case enum.OrderKindMarket, enum.OrderKindLimit:
		return "NORMAL", nil
	case enum.OrderKindStopMarket, enum.OrderKindStopLimit:
		return "STOPLOSS", nil
	case enum.OrderKindBracket:
		return "BO", nil
	case enum.OrderKindCover:
		return "CO", nil
	default:
		return "", exception.ErrBrokerUnsupportedKind
	}
}

// buildPayload maps a validated intent onto the wire-level type/variety
// the venue requires. Unsupported combinations fail fast; no field is
// ever silently dropped.
func buildPayload(intent model.OrderIntent, meta instrument.Meta) (broker.OrderPayload, error) {
	variety, err := varietyFor(intent.Kind)
	if err != nil {
		return broker.OrderPayload{}, err
	}

	payload := broker.OrderPayload{
		Variety:         variety,
		TradingSymbol:   meta.Symbol,
		SymbolToken:     meta.Token,
		TransactionType: intent.Side.String(),
		Exchange:        intent.Exchange.String(),
		ProductType:     intent.Product.String(),
		Duration:        defaultDuration,
		Quantity:        intent.Quantity,
	}

	switch intent.Kind {
	case enum.OrderKindMarket:
		payload.OrderType = "MARKET"
	case enum.OrderKindLimit:
		payload.OrderType = "LIMIT"
		payload.Price = intent.LimitPrice
	case enum.OrderKindStopMarket:
		payload.OrderType = "STOPLOSS_MARKET"
		payload.TriggerPrice = intent.TriggerPrice
	case enum.OrderKindStopLimit:
		payload.OrderType = "STOPLOSS_LIMIT"
		payload.Price = intent.LimitPrice
		payload.TriggerPrice = intent.TriggerPrice
	case enum.OrderKindBracket:
		payload.OrderType = "LIMIT"
		payload.Price = intent.LimitPrice
		payload.SquareOff = intent.TakeProfit
		payload.StopLoss = intent.StopLoss
		payload.TrailingStopLoss = intent.TrailingStop
	case enum.OrderKindCover:
		payload.OrderType = "LIMIT"
		payload.Price = intent.LimitPrice
		payload.TriggerPrice = intent.TriggerPrice
	default:
		return broker.OrderPayload{}, exception.ErrBrokerUnsupportedKind
	}

	return payload, nil
}

// validateIntent rejects malformed intents before any order is created.
func validateIntent(intent model.OrderIntent) error {
	if !intent.Side.IsAvailable() {
		return exception.ErrOrderUnsupportedSide
	}
	if !intent.Kind.IsAvailable() {
		return exception.ErrOrderUnsupportedKind
	}
	if intent.Quantity <= 0 {
		return exception.ErrOrderInvalidQuantity
	}
	if intent.Kind.RequiresLimitPrice() && intent.LimitPrice <= 0 {
		return exception.ErrOrderMissingLimitPrice
	}
	if intent.Kind.RequiresTriggerPrice() && intent.TriggerPrice <= 0 {
		return exception.ErrOrderMissingTrigger
	}
	if intent.Kind == enum.OrderKindBracket && (intent.TakeProfit <= 0 || intent.StopLoss <= 0) {
		return exception.ErrOrderMissingBracketLegs
	}
	return nil
}
