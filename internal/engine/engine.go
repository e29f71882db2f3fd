package engine

import (
	"context"
	"sync"
	"time"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bars"
	"main/internal/broker"
	"main/internal/bus"
	"main/internal/instrument"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/obs"
	"main/internal/reconcile"
	"main/internal/risk"
	"main/internal/router"
)

// Config is the engine's runtime wiring.
type Config struct {
	BarInterval   time.Duration
	StartingCash  model.Notional
	OrderQueueCap int
	TickQueueCap  int
	Risk          risk.Config

	// Tokens is the tick subscription list.
	Tokens []string
}

// Engine composes the order pipeline, reconciliation and market data
// aggregation behind one facade. The gateway pushes into bounded queues
// and two single consumers drain them, so per-order and per-instrument
// ordering holds without further locking.
type Engine struct {
	cfg     Config
	gateway broker.Gateway

	table      *router.Table
	book       *ledger.Ledger
	riskEngine *risk.Engine
	router     *router.Router
	reconciler *reconcile.Reconciler
	bars       *bars.Aggregator
	metrics    *obs.Metrics
	trace      *obs.TraceGenerator

	quotes     *quoteCache
	orderQueue *bus.Queue[broker.OrderEvent]
	tickQueue  *bus.Queue[model.Tick]
}

func New(cfg Config, gateway broker.Gateway, instruments *instrument.Service) *Engine {
	metrics := obs.NewMetrics()
	table := router.NewTable()
	book := ledger.New(cfg.StartingCash)
	riskEngine := risk.NewEngine(cfg.Risk)
	quotes := newQuoteCache()

	reconciler := reconcile.New(table, book, metrics, riskEngine.NoteCompleted)
	e := &Engine{
		cfg:        cfg,
		gateway:    gateway,
		table:      table,
		book:       book,
		riskEngine: riskEngine,
		router:     router.New(table, riskEngine, gateway, instruments, book, quotes, metrics, reconciler.Apply),
		reconciler: reconciler,
		bars:       bars.NewAggregator(cfg.BarInterval),
		metrics:    metrics,
		trace:      obs.NewTraceGenerator(),
		quotes:     quotes,
		orderQueue: bus.NewQueue[broker.OrderEvent](cfg.OrderQueueCap),
		tickQueue:  bus.NewQueue[model.Tick](cfg.TickQueueCap),
	}
	e.bars.Subscribe(func(model.Bar) { metrics.IncBarEmitted() })
	return e
}

// Run subscribes both venue streams and drains them until ctx is done.
// It blocks; cancel ctx to stop.
func (e *Engine) Run(ctx context.Context) error {
	unsubOrders, err := e.gateway.SubscribeOrders(ctx, func(event broker.OrderEvent) {
		if err := e.orderQueue.TryPublish(event); err != nil {
			e.metrics.IncQueueDrop()
			logs.Errorf("order queue drop, broker order %s, err: %+v", event.OrderID, err)
		}
	})
	if err != nil {
		return errors.Wrap(err, "subscribe orders")
	}

	unsubTicks, err := e.gateway.SubscribeTicks(ctx, e.cfg.Tokens, func(tick model.Tick) {
		if err := e.tickQueue.TryPublish(tick); err != nil {
			e.metrics.IncQueueDrop()
		}
	})
	if err != nil {
		unsubOrders()
		return errors.Wrap(err, "subscribe ticks")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		e.orderQueue.Run(ctx, e.reconciler.Apply)
	}()
	go func() {
		defer wg.Done()
		e.tickQueue.Run(ctx, func(tick model.Tick) {
			e.quotes.set(tick.Token, tick.Price)
			e.bars.OnTick(tick)
		})
	}()

	<-ctx.Done()
	// Detach from the gateway before closing the queues so no callback
	// publishes into a closed queue.
	unsubOrders()
	unsubTicks()
	e.orderQueue.Close()
	e.tickQueue.Close()
	wg.Wait()
	e.bars.Flush()
	return nil
}

// SubmitOrder runs an intent through the order pipeline.
func (e *Engine) SubmitOrder(ctx context.Context, intent model.OrderIntent) (uint64, error) {
	trace := e.trace.Next()
	ref, err := e.router.Submit(ctx, intent)
	if err != nil {
		logs.Warnf("submit trace %d, symbol %s, err: %+v", trace, intent.Symbol, err)
		return ref, err
	}
	logs.Infof("submit trace %d, symbol %s, ref %d", trace, intent.Symbol, ref)
	return ref, nil
}

// CancelOrder requests cancellation of a tracked order.
func (e *Engine) CancelOrder(ctx context.Context, ref uint64) error {
	return e.router.Cancel(ctx, ref)
}

// Order returns a copy of a tracked order.
func (e *Engine) Order(ref uint64) (model.Order, bool) {
	return e.table.Get(ref)
}

// Position returns the ledger position for a token.
func (e *Engine) Position(token string) ledger.Position {
	return e.book.Position(token)
}

// Cash returns the current available cash.
func (e *Engine) Cash() model.Notional {
	return e.book.Cash()
}

// LastPrice returns the cached last traded price for a token.
func (e *Engine) LastPrice(token string) (model.Price, bool) {
	return e.quotes.LastPrice(token)
}

// OnBar registers a sink for completed bars.
func (e *Engine) OnBar(sink bars.Sink) {
	e.bars.Subscribe(sink)
}

// Metrics returns a snapshot of the engine counters.
func (e *Engine) Metrics() obs.Snapshot {
	return e.metrics.Snapshot()
}

// Resync replaces local positions and cash with the broker-side truth,
// the recovery path after a stream gap or reconnect. In-flight order
// state is untouched.
func (e *Engine) Resync(ctx context.Context) error {
	records, err := e.gateway.Positions(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch positions")
	}
	cash, err := e.gateway.Cash(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch cash")
	}

	positions := make([]ledger.Position, 0, len(records))
	for _, record := range records {
		positions = append(positions, ledger.Position{
			Token:    record.Token,
			Qty:      record.Qty,
			AvgPrice: record.AvgPrice,
		})
	}
	e.book.ApplySnapshot(positions)
	e.book.SetCash(cash)
	logs.Infof("resync applied, %d positions, cash %s", len(positions), cash.String())
	return nil
}

// quoteCache holds the last traded price per token.
type quoteCache struct {
	mu     sync.RWMutex
	prices map[string]model.Price
}

func newQuoteCache() *quoteCache {
	return &quoteCache{prices: make(map[string]model.Price)}
}

func (c *quoteCache) set(token string, price model.Price) {
	c.mu.Lock()
	c.prices[token] = price
	c.mu.Unlock()
}

func (c *quoteCache) LastPrice(token string) (model.Price, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	price, ok := c.prices[token]
	return price, ok
}
