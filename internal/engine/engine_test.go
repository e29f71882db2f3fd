package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/broker"
	"main/internal/broker/sim"
	"main/internal/instrument"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/obs"
	"main/internal/risk"
)

func newTestEngine(gateway broker.Gateway) *Engine {
	static := instrument.StaticSource{
		"SBIN-EQ|NSE": {
			Token:    "3045",
			Symbol:   "SBIN-EQ",
			ExchSeg:  "NSE",
			LotSize:  10000,
			TickSize: 5,
		},
	}
	return New(Config{
		BarInterval:   time.Minute,
		StartingCash:  1_000_000_00,
		OrderQueueCap: 256,
		TickQueueCap:  256,
		Risk:          risk.DefaultConfig(),
		Tokens:        []string{"3045"},
	}, gateway, instrument.NewService(static))
}

func startEngine(t *testing.T, eng *Engine) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = eng.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func TestEngineEndToEndFill(t *testing.T) {
	gateway := sim.New()
	eng := newTestEngine(gateway)
	startEngine(t, eng)

	gateway.PushTick(model.Tick{
		Token:       "3045",
		Price:       57040,
		Quantity:    100,
		EventTsNano: time.Now().UTC().UnixNano(),
	})
	require.Eventually(t, func() bool {
		_, ok := eng.LastPrice("3045")
		return ok
	}, 2*time.Second, 5*time.Millisecond)

	ref, err := eng.SubmitOrder(t.Context(), model.OrderIntent{
		Symbol:   "SBIN-EQ",
		Exchange: enum.ExchangeNSE,
		Side:     enum.OrderSideBuy,
		Kind:     enum.OrderKindMarket,
		Quantity: 10,
		Product:  enum.ProductTypeIntraday,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		order, ok := eng.Order(ref)
		return ok && order.Status == enum.OrderStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	order, _ := eng.Order(ref)
	// Market intent rewritten to a limit 5 ticks through 570.40.
	assert.Equal(t, enum.OrderKindLimit, order.Kind)
	assert.Equal(t, model.Price(57065), order.LimitPrice)
	assert.Equal(t, model.Quantity(10), order.FilledQty)

	position := eng.Position("3045")
	assert.Equal(t, model.Quantity(10), position.Qty)
	assert.Equal(t, model.Price(57065), position.AvgPrice)
	assert.Equal(t, model.Notional(1_000_000_00-10*57065), eng.Cash())

	// The sim pushes the fill before the placement ack returns; the
	// parked event replays on bind instead of being dropped as unknown.
	snapshot := eng.Metrics()
	assert.GreaterOrEqual(t, snapshot.EventsApplied, uint64(1))
	assert.Zero(t, snapshot.Anomalies[obs.AnomalyUnknownOrder])
	assert.Equal(t, uint64(1), snapshot.SubmitLatency.Count)
}

func TestEngineCancelFlow(t *testing.T) {
	gateway := sim.New()
	// Acknowledge only; the order rests until cancelled.
	gateway.FillPlan = func(orderID string, _ broker.OrderPayload) []broker.OrderEvent {
		return []broker.OrderEvent{{OrderID: orderID, Status: broker.EventStatusOpen}}
	}
	eng := newTestEngine(gateway)
	startEngine(t, eng)

	ref, err := eng.SubmitOrder(t.Context(), model.OrderIntent{
		Symbol:     "SBIN-EQ",
		Exchange:   enum.ExchangeNSE,
		Side:       enum.OrderSideBuy,
		Kind:       enum.OrderKindLimit,
		Quantity:   10,
		LimitPrice: 57000,
		Product:    enum.ProductTypeIntraday,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		order, ok := eng.Order(ref)
		return ok && order.Status == enum.OrderStatusAccepted
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, eng.CancelOrder(t.Context(), ref))
	require.Eventually(t, func() bool {
		order, ok := eng.Order(ref)
		return ok && order.Status == enum.OrderStatusCancelled
	}, 2*time.Second, 5*time.Millisecond)

	assert.Zero(t, eng.Position("3045").Qty)
}

func TestEngineBarsFromTicks(t *testing.T) {
	gateway := sim.New()
	eng := newTestEngine(gateway)

	barCh := make(chan model.Bar, 4)
	eng.OnBar(func(bar model.Bar) { barCh <- bar })
	startEngine(t, eng)

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	for _, tick := range []model.Tick{
		{Token: "3045", Price: 10000, Quantity: 10, EventTsNano: base.UnixNano()},
		{Token: "3045", Price: 10500, Quantity: 20, EventTsNano: base.Add(20 * time.Second).UnixNano()},
		{Token: "3045", Price: 9500, Quantity: 5, EventTsNano: base.Add(59 * time.Second).UnixNano()},
		{Token: "3045", Price: 9800, Quantity: 7, EventTsNano: base.Add(time.Minute).UnixNano()},
	} {
		gateway.PushTick(tick)
	}

	select {
	case bar := <-barCh:
		assert.Equal(t, model.Price(10000), bar.Open)
		assert.Equal(t, model.Price(10500), bar.High)
		assert.Equal(t, model.Price(9500), bar.Low)
		assert.Equal(t, model.Price(9500), bar.Close)
		assert.Equal(t, model.Quantity(35), bar.Volume)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for bar")
	}

	assert.Equal(t, uint64(1), eng.Metrics().BarsEmitted)
}

func TestEngineResync(t *testing.T) {
	gateway := sim.New()
	gateway.CashBalance = 42_000_00
	gateway.PositionRows = []broker.PositionRecord{
		{Token: "3045", Qty: 25, AvgPrice: 56000},
	}
	eng := newTestEngine(gateway)

	require.NoError(t, eng.Resync(t.Context()))

	position := eng.Position("3045")
	assert.Equal(t, model.Quantity(25), position.Qty)
	assert.Equal(t, model.Price(56000), position.AvgPrice)
	assert.Equal(t, model.Notional(42_000_00), eng.Cash())
}

func TestEngineDuplicateSignalAfterFill(t *testing.T) {
	gateway := sim.New()
	eng := newTestEngine(gateway)
	startEngine(t, eng)

	intent := model.OrderIntent{
		Symbol:     "SBIN-EQ",
		Exchange:   enum.ExchangeNSE,
		Side:       enum.OrderSideBuy,
		Kind:       enum.OrderKindLimit,
		Quantity:   10,
		LimitPrice: 57000,
		Product:    enum.ProductTypeIntraday,
	}

	ref, err := eng.SubmitOrder(t.Context(), intent)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		order, ok := eng.Order(ref)
		return ok && order.Status == enum.OrderStatusCompleted
	}, 2*time.Second, 5*time.Millisecond)

	// Same (instrument, side) inside the window is suppressed.
	_, err = eng.SubmitOrder(t.Context(), intent)
	require.Error(t, err)

	// The opposite side still goes through.
	sell := intent
	sell.Side = enum.OrderSideSell
	_, err = eng.SubmitOrder(t.Context(), sell)
	assert.NoError(t, err)
}
