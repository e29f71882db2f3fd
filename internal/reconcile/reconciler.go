package reconcile

import (
	"time"

	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/router"
)

// Reconciler applies broker-pushed order events to the shared order
// table and the position ledger.
//
// Apply never returns an error: a malformed or inconsistent event is
// isolated to itself, counted, logged and dropped so the consuming
// worker keeps draining the stream. The transport preserves per-order
// ordering; nothing here assumes ordering across orders.
type Reconciler struct {
	table   *router.Table
	ledger  *ledger.Ledger
	metrics *obs.Metrics

	// onCompleted feeds the duplicate-signal suppression log.
	onCompleted func(symbol string, side enum.OrderSide, now int64)
}

func New(table *router.Table, book *ledger.Ledger, metrics *obs.Metrics, onCompleted func(symbol string, side enum.OrderSide, now int64)) *Reconciler {
	return &Reconciler{
		table:       table,
		ledger:      book,
		metrics:     metrics,
		onCompleted: onCompleted,
	}
}

// Apply processes one order event.
func (r *Reconciler) Apply(event broker.OrderEvent) {
	now := event.EventTsNano
	if now == 0 {
		now = time.Now().UTC().UnixNano()
	}

	var (
		fillApplied  model.Quantity
		fillSide     enum.OrderSide
		fillToken    string
		completed    bool
		completedSym string
		overfill     bool
		terminal     bool
		applied      bool
	)

	apply := func(o *model.Order) {
		if o.Status.IsTerminal() {
			terminal = true
			return
		}
		applied = true

		switch event.Status {
		case broker.EventStatusOpen:
			o.Status = enum.OrderStatusAccepted

		case broker.EventStatusPartial, broker.EventStatusComplete:
			qty := event.FillQty
			if qty <= 0 {
				applied = false
				return
			}
			fillSide = o.Side
			fillToken = o.Token
			if remaining := o.Remaining(); qty > remaining {
				// Overfill is a consistency fault; apply only the
				// remainder and flag it.
				overfill = true
				qty = remaining
			}
			if qty > 0 {
				total := o.FilledQty + qty
				o.AvgFillPrice = model.Price((int64(o.AvgFillPrice)*int64(o.FilledQty) + int64(event.FillPrice)*int64(qty) + int64(total)/2) / int64(total))
				o.FilledQty = total
				fillApplied = qty
			}
			if o.FilledQty == o.Quantity {
				o.Status = enum.OrderStatusCompleted
				completed = true
				completedSym = o.Symbol
			} else {
				o.Status = enum.OrderStatusPartiallyFilled
			}

		case broker.EventStatusRejected:
			// Terminal regardless of prior fills; applied fills stand.
			o.Status = enum.OrderStatusRejected
			o.RejectReason = event.Reason

		case broker.EventStatusCancelled:
			o.Status = enum.OrderStatusCancelled

		default:
			applied = false
		}

		if applied {
			o.UpdatedTime = now
		}
	}

	found := r.table.UpdateByBroker(event.OrderID, apply)
	if !found {
		// The id may belong to a placement whose ack is still in
		// flight; park the event so Bind replays it.
		switch r.table.Park(event) {
		case router.ParkBound:
			found = r.table.UpdateByBroker(event.OrderID, apply)
		case router.ParkStored:
			logs.Infof("parked event for unbound broker order %s", event.OrderID)
			return
		case router.ParkDropped:
			r.metrics.IncAnomaly(obs.AnomalyUnknownOrder)
			logs.Infof("dropping event for unknown broker order %s", event.OrderID)
			return
		}
	}

	switch {
	case !found:
		r.metrics.IncAnomaly(obs.AnomalyUnknownOrder)
		logs.Infof("dropping event for unknown broker order %s", event.OrderID)
		return
	case terminal:
		r.metrics.IncAnomaly(obs.AnomalyTerminalOrder)
		logs.Infof("dropping %s event for terminal broker order %s", event.Status, event.OrderID)
		return
	case !applied:
		r.metrics.IncAnomaly(obs.AnomalyMalformedEvent)
		logs.Warnf("dropping malformed event for broker order %s, status %q", event.OrderID, event.Status)
		return
	}

	if overfill {
		r.metrics.IncAnomaly(obs.AnomalyOverfill)
		logs.Errorf("fill exceeds remaining quantity on broker order %s, excess ignored", event.OrderID)
	}

	if fillApplied > 0 {
		if err := r.ledger.ApplyFill(fillToken, fillSide, fillApplied, event.FillPrice); err != nil {
			r.metrics.IncAnomaly(obs.AnomalyLedger)
			logs.Errorf("ledger apply fill for broker order %s, err: %+v", event.OrderID, err)
		}
	}
	if completed && r.onCompleted != nil {
		r.onCompleted(completedSym, fillSide, now)
	}
	r.metrics.IncEventApplied()
}
