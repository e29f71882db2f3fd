package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/broker"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/router"
)

func seedOrder(table *router.Table, brokerID string, qty model.Quantity) uint64 {
	ref := table.Insert(model.Order{
		Symbol:   "SBIN-EQ",
		Token:    "3045",
		Exchange: enum.ExchangeNSE,
		Side:     enum.OrderSideBuy,
		Kind:     enum.OrderKindLimit,
		Quantity: qty,
		Status:   enum.OrderStatusCreated,
	})
	if _, err := table.Bind(ref, brokerID); err != nil {
		panic(err)
	}
	return ref
}

func TestApplyOpenAccepts(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)
	metrics := obs.NewMetrics()
	r := New(table, book, metrics, nil)

	ref := seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusOpen})

	order, _ := table.Get(ref)
	assert.Equal(t, enum.OrderStatusAccepted, order.Status)
	assert.Equal(t, uint64(1), metrics.Snapshot().EventsApplied)
}

func TestApplyPartialThenComplete(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)
	r := New(table, book, obs.NewMetrics(), nil)

	ref := seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusPartial, FillQty: 4, FillPrice: 10000})

	order, _ := table.Get(ref)
	assert.Equal(t, enum.OrderStatusPartiallyFilled, order.Status)
	assert.Equal(t, model.Quantity(4), order.FilledQty)
	assert.Equal(t, model.Price(10000), order.AvgFillPrice)
	assert.Equal(t, model.Quantity(4), book.Position("3045").Qty)

	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusComplete, FillQty: 6, FillPrice: 10100})

	order, _ = table.Get(ref)
	assert.Equal(t, enum.OrderStatusCompleted, order.Status)
	assert.Equal(t, model.Quantity(10), order.FilledQty)
	// VWAP of 4@100.00 and 6@101.00.
	assert.Equal(t, model.Price(10060), order.AvgFillPrice)
	assert.Equal(t, model.Quantity(10), book.Position("3045").Qty)
}

func TestApplyCompletionFeedsSignalLog(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)

	var gotSymbol string
	var gotSide enum.OrderSide
	r := New(table, book, obs.NewMetrics(), func(symbol string, side enum.OrderSide, _ int64) {
		gotSymbol = symbol
		gotSide = side
	})

	seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusComplete, FillQty: 10, FillPrice: 10000})

	assert.Equal(t, "SBIN-EQ", gotSymbol)
	assert.Equal(t, enum.OrderSideBuy, gotSide)
}

func TestApplyOverfillClamped(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)
	metrics := obs.NewMetrics()
	r := New(table, book, metrics, nil)

	ref := seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusComplete, FillQty: 15, FillPrice: 10000})

	order, _ := table.Get(ref)
	assert.Equal(t, enum.OrderStatusCompleted, order.Status)
	assert.Equal(t, model.Quantity(10), order.FilledQty)
	assert.Equal(t, model.Quantity(10), book.Position("3045").Qty)
	assert.Equal(t, uint64(1), metrics.Snapshot().Anomalies[obs.AnomalyOverfill])
}

func TestApplyRejectAfterPartialKeepsFills(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)
	r := New(table, book, obs.NewMetrics(), nil)

	ref := seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusPartial, FillQty: 4, FillPrice: 10000})
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusRejected, Reason: "margin shortfall"})

	order, _ := table.Get(ref)
	assert.Equal(t, enum.OrderStatusRejected, order.Status)
	assert.Equal(t, "margin shortfall", order.RejectReason)
	assert.Equal(t, model.Quantity(4), order.FilledQty)
	// The booked fill is never rolled back.
	assert.Equal(t, model.Quantity(4), book.Position("3045").Qty)
}

func TestApplyTerminalAbsorbs(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)
	metrics := obs.NewMetrics()
	r := New(table, book, metrics, nil)

	ref := seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusCancelled})
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusComplete, FillQty: 10, FillPrice: 10000})

	order, _ := table.Get(ref)
	assert.Equal(t, enum.OrderStatusCancelled, order.Status)
	assert.Zero(t, order.FilledQty)
	assert.Zero(t, book.Position("3045").Qty)
	assert.Equal(t, uint64(1), metrics.Snapshot().Anomalies[obs.AnomalyTerminalOrder])
}

func TestApplyBeforeBindParksAndReplays(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)
	metrics := obs.NewMetrics()
	r := New(table, book, metrics, nil)

	// The fill lands while the placement ack is still in flight.
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusComplete, FillQty: 10, FillPrice: 10000})

	snapshot := metrics.Snapshot()
	assert.Zero(t, snapshot.Anomalies[obs.AnomalyUnknownOrder])
	assert.Zero(t, snapshot.EventsApplied)
	assert.Zero(t, book.Position("3045").Qty)

	ref := table.Insert(model.Order{
		Symbol:   "SBIN-EQ",
		Token:    "3045",
		Exchange: enum.ExchangeNSE,
		Side:     enum.OrderSideBuy,
		Kind:     enum.OrderKindLimit,
		Quantity: 10,
		Status:   enum.OrderStatusCreated,
	})
	parked, err := table.Bind(ref, "B-1")
	require.NoError(t, err)
	require.Len(t, parked, 1)
	for _, event := range parked {
		r.Apply(event)
	}

	order, _ := table.Get(ref)
	assert.Equal(t, enum.OrderStatusCompleted, order.Status)
	assert.Equal(t, model.Quantity(10), order.FilledQty)
	assert.Equal(t, model.Quantity(10), book.Position("3045").Qty)
}

func TestApplyUnboundOrderOverflowDropped(t *testing.T) {
	table := router.NewTable()
	metrics := obs.NewMetrics()
	r := New(table, ledger.New(0), metrics, nil)

	for i := 0; i < 17; i++ {
		r.Apply(broker.OrderEvent{OrderID: "GHOST", Status: broker.EventStatusOpen})
	}

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.Anomalies[obs.AnomalyUnknownOrder])
	assert.Zero(t, snapshot.EventsApplied)
}

func TestApplyMalformedEventDropped(t *testing.T) {
	table := router.NewTable()
	metrics := obs.NewMetrics()
	r := New(table, ledger.New(1_000_000_00), metrics, nil)

	ref := seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: "weird"})
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusComplete, FillQty: 0})

	order, _ := table.Get(ref)
	assert.Equal(t, enum.OrderStatusSubmitted, order.Status)
	assert.Equal(t, uint64(2), metrics.Snapshot().Anomalies[obs.AnomalyMalformedEvent])
}

func TestApplyCancelWithoutFills(t *testing.T) {
	table := router.NewTable()
	book := ledger.New(1_000_000_00)
	r := New(table, book, obs.NewMetrics(), nil)

	ref := seedOrder(table, "B-1", 10)
	r.Apply(broker.OrderEvent{OrderID: "B-1", Status: broker.EventStatusCancelled})

	order, _ := table.Get(ref)
	require.Equal(t, enum.OrderStatusCancelled, order.Status)
	assert.Zero(t, book.Position("3045").Qty)
}
