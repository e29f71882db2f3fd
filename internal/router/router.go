package router

import (
	"context"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/instrument"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/risk"
	"main/pkg/exception"
)

// QuoteSource serves the last traded price per instrument token.
type QuoteSource interface {
	LastPrice(token string) (model.Price, bool)
}

// Router turns abstract intents into venue orders: validation, risk
// gating, payload mapping and the single outbound placement call.
type Router struct {
	table       *Table
	engine      *risk.Engine
	gateway     broker.Gateway
	instruments *instrument.Service
	ledger      *ledger.Ledger
	quotes      QuoteSource
	metrics     *obs.Metrics

	// events replays order events parked before the broker id was
	// bound; the engine wires it to the reconciler.
	events func(broker.OrderEvent)
}

func New(table *Table, engine *risk.Engine, gateway broker.Gateway, instruments *instrument.Service, book *ledger.Ledger, quotes QuoteSource, metrics *obs.Metrics, events func(broker.OrderEvent)) *Router {
	return &Router{
		table:       table,
		engine:      engine,
		gateway:     gateway,
		instruments: instruments,
		ledger:      book,
		quotes:      quotes,
		metrics:     metrics,
		events:      events,
	}
}

// Submit synchronously runs the pipeline and returns the local ref.
//
// Malformed intents return a validation error with no order created.
// Risk denials create the order directly in Rejected status and return
// the named check's error. Transport failures mark the order Rejected
// locally and are never retried; the venue is assumed not to have
// accepted the order.
func (r *Router) Submit(ctx context.Context, intent model.OrderIntent) (uint64, error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveSubmit(time.Since(start))
	}()

	if err := validateIntent(intent); err != nil {
		return 0, err
	}

	meta, known, err := r.instruments.Lookup(ctx, intent.Symbol, intent.Exchange.String())
	if err != nil {
		return 0, errors.Wrap(err, "instrument lookup")
	}
	if !known {
		return 0, errors.Wrap(exception.ErrBrokerInstrumentLookup, intent.Symbol)
	}

	var lastPrice model.Price
	if price, ok := r.quotes.LastPrice(meta.Token); ok {
		lastPrice = price
	}

	decision := r.engine.Evaluate(intent, risk.View{
		Position:  r.ledger.Position(meta.Token),
		Cash:      r.ledger.Cash(),
		LastPrice: lastPrice,
		Meta:      meta,
		MetaKnown: known,
		Now:       time.Now().UTC().UnixNano(),
	})
	r.metrics.IncRiskDecision(decision.Action)

	order := model.Order{
		Symbol:       intent.Symbol,
		Token:        meta.Token,
		Exchange:     intent.Exchange,
		Side:         intent.Side,
		Kind:         intent.Kind,
		Quantity:     intent.Quantity,
		LimitPrice:   intent.LimitPrice,
		TriggerPrice: intent.TriggerPrice,
		Status:       enum.OrderStatusCreated,
		UpdatedTime:  time.Now().UTC().UnixNano(),
	}

	switch decision.Action {
	case risk.ActionDeny:
		order.Status = enum.OrderStatusRejected
		order.RejectReason = decision.Err.Error()
		ref := r.table.Insert(order)
		logs.Warnf("order %d rejected pre-trade: %s", ref, decision.Err.Error())
		return ref, decision.Err
	case risk.ActionAdjust:
		intent.Kind = decision.AdjustedKind
		intent.LimitPrice = decision.AdjustedPrice
		order.Kind = decision.AdjustedKind
		order.LimitPrice = decision.AdjustedPrice
		logs.Infof("market intent for %s rewritten to limit @ %s", intent.Symbol, decision.AdjustedPrice.String())
	}

	payload, err := buildPayload(intent, meta)
	if err != nil {
		return 0, err
	}

	ref := r.table.Insert(order)

	// The gateway call happens outside the table lock so a slow venue
	// never stalls the event-stream consumer.
	ack, err := r.gateway.PlaceOrder(ctx, payload)
	if err != nil {
		r.table.Update(ref, func(o *model.Order) {
			o.Status = enum.OrderStatusRejected
			o.RejectReason = err.Error()
			o.UpdatedTime = time.Now().UTC().UnixNano()
		})
		return ref, errors.Wrap(err, "place order")
	}
	if ack.OrderID == "" {
		r.table.Update(ref, func(o *model.Order) {
			o.Status = enum.OrderStatusRejected
			o.RejectReason = exception.ErrBrokerEmptyOrderID.Error()
			o.UpdatedTime = time.Now().UTC().UnixNano()
		})
		return ref, exception.ErrBrokerEmptyOrderID
	}

	parked, err := r.table.Bind(ref, ack.OrderID)
	if err != nil {
		return ref, err
	}
	logs.Infof("order %d submitted, broker id %s", ref, ack.OrderID)
	for _, event := range parked {
		if r.events == nil {
			logs.Warnf("no event sink, dropping parked event for broker order %s", event.OrderID)
			continue
		}
		r.events(event)
	}
	return ref, nil
}

// Cancel sends a fire-and-forget cancel for a tracked order. Local state
// changes only when the Cancelled event arrives through reconciliation.
func (r *Router) Cancel(ctx context.Context, ref uint64) error {
	order, ok := r.table.Get(ref)
	if !ok {
		return exception.ErrOrderUnknownRef
	}
	if order.BrokerID == "" {
		return exception.ErrOrderMissingBrokerID
	}

	variety, err := varietyFor(order.Kind)
	if err != nil {
		return err
	}
	if err := r.gateway.CancelOrder(ctx, order.BrokerID, variety); err != nil {
		return errors.Wrap(err, "cancel order")
	}
	logs.Infof("cancel requested for order %d, broker id %s", ref, order.BrokerID)
	return nil
}

// Order returns a copy of a tracked order.
func (r *Router) Order(ref uint64) (model.Order, bool) {
	return r.table.Get(ref)
}
