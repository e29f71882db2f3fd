package sim

import (
	"context"
	"strconv"
	"sync"
	"time"

	"main/internal/broker"
	"main/internal/model"
)

// Gateway is an in-process paper venue. Placements are acknowledged
// immediately and the fill plan decides which order events follow, so
// sessions replay deterministically without a network.
//
// Planned events are pushed before PlaceOrder returns the ack, the
// tightest ordering a venue stream can produce; the order table parks
// them until the id is bound.
type Gateway struct {
	mu            sync.Mutex
	nextID        int64
	nextSub       int
	placed        map[string]broker.OrderPayload
	cancelled     []string
	orderHandlers map[int]func(broker.OrderEvent)
	tickHandlers  map[int]func(model.Tick)

	// FillPlan maps a placed payload to the events pushed after the ack.
	// Nil means one immediate complete fill at the payload price.
	FillPlan func(orderID string, payload broker.OrderPayload) []broker.OrderEvent

	// PlaceErr, when set, fails every placement before an id is issued.
	PlaceErr error

	// CashBalance and PositionRows back the resync queries.
	CashBalance  model.Notional
	PositionRows []broker.PositionRecord
}

func New() *Gateway {
	return &Gateway{
		placed:        make(map[string]broker.OrderPayload),
		orderHandlers: make(map[int]func(broker.OrderEvent)),
		tickHandlers:  make(map[int]func(model.Tick)),
	}
}

// PlaceOrder pushes the planned events to every order subscriber and
// then returns the ack.
func (g *Gateway) PlaceOrder(_ context.Context, payload broker.OrderPayload) (broker.PlaceAck, error) {
	g.mu.Lock()
	if g.PlaceErr != nil {
		err := g.PlaceErr
		g.mu.Unlock()
		return broker.PlaceAck{}, err
	}

	g.nextID++
	orderID := "SIM-" + strconv.FormatInt(g.nextID, 10)
	g.placed[orderID] = payload

	events := g.planEvents(orderID, payload)
	handlers := g.snapshotOrderHandlers()
	g.mu.Unlock()

	for _, event := range events {
		for _, handler := range handlers {
			handler(event)
		}
	}
	return broker.PlaceAck{OrderID: orderID, Status: "submitted"}, nil
}

// CancelOrder records the request and pushes a cancelled event for any
// known order.
func (g *Gateway) CancelOrder(_ context.Context, orderID, _ string) error {
	g.mu.Lock()
	g.cancelled = append(g.cancelled, orderID)
	_, known := g.placed[orderID]
	handlers := g.snapshotOrderHandlers()
	g.mu.Unlock()

	if known {
		event := broker.OrderEvent{
			OrderID:     orderID,
			Status:      broker.EventStatusCancelled,
			EventTsNano: time.Now().UTC().UnixNano(),
		}
		for _, handler := range handlers {
			handler(event)
		}
	}
	return nil
}

func (g *Gateway) Positions(context.Context) ([]broker.PositionRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]broker.PositionRecord, len(g.PositionRows))
	copy(out, g.PositionRows)
	return out, nil
}

func (g *Gateway) Cash(context.Context) (model.Notional, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.CashBalance, nil
}

// SubscribeOrders registers an order-event handler. The returned func
// detaches it; no events are delivered to a detached handler.
func (g *Gateway) SubscribeOrders(_ context.Context, handler func(broker.OrderEvent)) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSub++
	id := g.nextSub
	g.orderHandlers[id] = handler
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.orderHandlers, id)
	}, nil
}

// SubscribeTicks registers a tick handler, detached by the returned
// func.
func (g *Gateway) SubscribeTicks(_ context.Context, _ []string, handler func(model.Tick)) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextSub++
	id := g.nextSub
	g.tickHandlers[id] = handler
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		delete(g.tickHandlers, id)
	}, nil
}

// PushTick feeds one tick to every tick subscriber.
func (g *Gateway) PushTick(tick model.Tick) {
	g.mu.Lock()
	handlers := make([]func(model.Tick), 0, len(g.tickHandlers))
	for _, handler := range g.tickHandlers {
		handlers = append(handlers, handler)
	}
	g.mu.Unlock()
	for _, handler := range handlers {
		handler(tick)
	}
}

// PushOrderEvent feeds one order event to every order subscriber.
func (g *Gateway) PushOrderEvent(event broker.OrderEvent) {
	g.mu.Lock()
	handlers := g.snapshotOrderHandlers()
	g.mu.Unlock()
	for _, handler := range handlers {
		handler(event)
	}
}

// Placed returns the payload recorded for an order id.
func (g *Gateway) Placed(orderID string) (broker.OrderPayload, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	payload, ok := g.placed[orderID]
	return payload, ok
}

// Cancelled returns the order ids cancel was requested for.
func (g *Gateway) Cancelled() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.cancelled))
	copy(out, g.cancelled)
	return out
}

func (g *Gateway) planEvents(orderID string, payload broker.OrderPayload) []broker.OrderEvent {
	if g.FillPlan != nil {
		return g.FillPlan(orderID, payload)
	}
	now := time.Now().UTC().UnixNano()
	return []broker.OrderEvent{
		{OrderID: orderID, Status: broker.EventStatusOpen, EventTsNano: now},
		{
			OrderID:     orderID,
			Status:      broker.EventStatusComplete,
			FillQty:     payload.Quantity,
			FillPrice:   payload.Price,
			EventTsNano: now,
		},
	}
}

// snapshotOrderHandlers must be called with the mutex held.
func (g *Gateway) snapshotOrderHandlers() []func(broker.OrderEvent) {
	handlers := make([]func(broker.OrderEvent), 0, len(g.orderHandlers))
	for _, handler := range g.orderHandlers {
		handlers = append(handlers, handler)
	}
	return handlers
}
