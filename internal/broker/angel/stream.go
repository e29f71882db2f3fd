package angel

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"
	"github.com/yanun0323/pkg/ws"

	"main/internal/broker"
	"main/internal/model"
	"main/internal/ops"
)

const _tickSubscribeID = 1

// streams owns the two push websockets: order updates and ticks. Each
// is started lazily on first subscription.
type streams struct {
	session ops.BrokerSession
	orders  *ws.WebSocket
	ticks   *ws.WebSocket

	// The wire reports filledshares as the running total for the order;
	// fills tracks the last total seen so updates can be turned into
	// per-event increments.
	fillMu sync.Mutex
	fills  map[string]fillState
}

type fillState struct {
	qty model.Quantity
	avg model.Price
}

func newStreams(session ops.BrokerSession) *streams {
	return &streams{
		session: session,
		fills:   make(map[string]fillState),
	}
}

func (s *streams) subscribeOrders(ctx context.Context, handler func(broker.OrderEvent)) (func(), error) {
	if s.orders == nil {
		s.orders = ws.New(ctx, s.session.OrderWsURL)
		if err := s.orders.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "start order stream")
		}
	}

	ch, cancel := s.orders.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				update, ok := ws.ReadMessage[orderUpdate](m)
				if !ok || update.OrderID == "" {
					continue
				}

				event, err := s.normalizeOrderUpdate(update)
				if err != nil {
					logs.Errorf("normalize order update, err: %+v", err)
					continue
				}
				handler(event)
			}
		}
	}()

	return cancel, nil
}

func (s *streams) subscribeTicks(ctx context.Context, tokens []string, handler func(model.Tick)) (func(), error) {
	if s.ticks == nil {
		s.ticks = ws.New(ctx, s.session.TickWsURL)
		if err := s.ticks.Start(ctx); err != nil {
			return nil, errors.Wrap(err, "start tick stream")
		}
	}

	appendIntoRegister := true
	if err := s.ticks.SendAndWait(ctx, ws.Sidecar{
		Sender: func(ctx context.Context, client *ws.WebSocket) error {
			payload := map[string]any{
				"correlationID": _tickSubscribeID,
				"action":        1,
				"params": map[string]any{
					"mode":   1,
					"tokens": tokens,
				},
			}
			if err := client.WriteJSON(payload); err != nil {
				return errors.Wrap(err, "write tick subscribe payload").With("payload", payload)
			}
			return nil
		},
		Waiter: func(ctx context.Context, m ws.Message) (bool, error) {
			var resp struct {
				CorrelationID int64  `json:"correlationID"`
				ErrorMessage  string `json:"errorMessage"`
			}
			if err := m.Unmarshal(&resp); err != nil || resp.CorrelationID != _tickSubscribeID {
				return false, nil
			}
			if resp.ErrorMessage != "" {
				return false, errors.Errorf("tick subscribe, err: %s", resp.ErrorMessage)
			}
			return true, nil
		},
	}, appendIntoRegister); err != nil {
		return nil, errors.Wrap(err, "send and wait")
	}

	ch, cancel := s.ticks.Subscribe()
	go func() {
		defer cancel()
		for {
			select {
			case <-sys.Shutdown():
				return
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}

				update, ok := ws.ReadMessage[tickUpdate](m)
				if !ok || update.Token == "" {
					continue
				}

				tick, err := normalizeTick(update)
				if err != nil {
					logs.Errorf("normalize tick, err: %+v", err)
					continue
				}
				handler(tick)
			}
		}
	}()

	return cancel, nil
}

// Close tears down both streams.
func (s *streams) Close() {
	if s.orders != nil {
		s.orders.Close()
	}
	if s.ticks != nil {
		s.ticks.Close()
	}
}

func (s *streams) normalizeOrderUpdate(update orderUpdate) (broker.OrderEvent, error) {
	event := broker.OrderEvent{
		OrderID:     update.OrderID,
		Reason:      update.Text,
		EventTsNano: update.UpdateTimeMs * int64(1e6),
	}

	switch strings.ToLower(update.Status) {
	case "open", "pending", "trigger pending":
		event.Status = broker.EventStatusOpen
	case "complete":
		event.Status = broker.EventStatusComplete
	case "partially filled", "partial":
		event.Status = broker.EventStatusPartial
	case "rejected":
		event.Status = broker.EventStatusRejected
	case "cancelled", "canceled":
		event.Status = broker.EventStatusCancelled
	default:
		return broker.OrderEvent{}, errors.Errorf("unknown order status %q", update.Status)
	}

	switch event.Status {
	case broker.EventStatusComplete, broker.EventStatusPartial:
		var total model.Quantity
		if update.FilledShares != "" {
			qty, err := strconv.ParseInt(strings.TrimSpace(update.FilledShares), 10, 64)
			if err != nil {
				return broker.OrderEvent{}, errors.Wrap(err, "parse filledshares")
			}
			total = model.Quantity(qty)
		}
		avg, err := model.ParsePrice(update.AvgPrice.String())
		if err != nil {
			return broker.OrderEvent{}, errors.Wrap(err, "parse averageprice")
		}
		event.FillQty, event.FillPrice = s.fillIncrement(update.OrderID, event.Status, total, avg)
	case broker.EventStatusRejected, broker.EventStatusCancelled:
		s.forgetFills(update.OrderID)
	}
	return event, nil
}

// fillIncrement converts the wire's running totals into the increment
// this update adds. The increment price is backed out from the two
// running averages so the order's VWAP reconstructs the venue's.
func (s *streams) fillIncrement(orderID, status string, total model.Quantity, avg model.Price) (model.Quantity, model.Price) {
	s.fillMu.Lock()
	prev := s.fills[orderID]
	delta := total - prev.qty
	if delta < 0 {
		// A stale running total never un-fills the order.
		delta = 0
	}
	if status == broker.EventStatusComplete {
		delete(s.fills, orderID)
	} else if delta > 0 {
		s.fills[orderID] = fillState{qty: total, avg: avg}
	}
	s.fillMu.Unlock()

	if delta <= 0 {
		return 0, 0
	}
	notional := int64(avg)*int64(total) - int64(prev.avg)*int64(prev.qty)
	price := model.Price((notional + int64(delta)/2) / int64(delta))
	if price < 0 {
		price = 0
	}
	return delta, price
}

func (s *streams) forgetFills(orderID string) {
	s.fillMu.Lock()
	delete(s.fills, orderID)
	s.fillMu.Unlock()
}

func normalizeTick(update tickUpdate) (model.Tick, error) {
	price, err := model.ParsePrice(update.LastPrice.String())
	if err != nil {
		return model.Tick{}, errors.Wrap(err, "parse last traded price")
	}
	return model.Tick{
		Token:       update.Token,
		Price:       price,
		Quantity:    model.Quantity(update.LastQty),
		EventTsNano: update.ExchangeTsMs * int64(1e6),
	}, nil
}
