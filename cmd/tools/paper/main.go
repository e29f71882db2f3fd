package main

import (
	"context"
	"flag"
	"log"
	"time"

	"main/internal/broker/sim"
	"main/internal/engine"
	"main/internal/instrument"
	"main/internal/model"
	"main/internal/model/enum"
	"main/internal/risk"
)

// Runs a scripted session against the in-process paper venue: feed a
// few ticks, submit market orders through the full pipeline and print
// the resulting ledger and counters.
func main() {
	symbol := flag.String("symbol", "SBIN-EQ", "Trading symbol")
	token := flag.String("token", "3045", "Instrument token")
	qty := flag.Int64("qty", 10, "Order quantity in shares")
	lastPrice := flag.String("last-price", "570.40", "Seed last traded price")
	orderCount := flag.Int("orders", 1, "Number of buy orders to submit")
	cash := flag.String("cash", "100000.00", "Starting cash")
	flag.Parse()

	price, err := model.ParsePrice(*lastPrice)
	if err != nil {
		log.Fatalf("invalid last-price: %v", err)
	}
	startingCash, err := model.ParsePrice(*cash)
	if err != nil {
		log.Fatalf("invalid cash: %v", err)
	}

	static := instrument.StaticSource{
		*symbol + "|NSE": {
			Token:    *token,
			Symbol:   *symbol,
			ExchSeg:  "NSE",
			LotSize:  model.Quantity(*qty) * model.Quantity(*orderCount),
			TickSize: 5,
		},
	}

	gateway := sim.New()
	eng := engine.New(engine.Config{
		BarInterval:   time.Minute,
		StartingCash:  model.Notional(startingCash),
		OrderQueueCap: 1024,
		TickQueueCap:  1024,
		Risk:          risk.DefaultConfig(),
		Tokens:        []string{*token},
	}, gateway, instrument.NewService(static))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := eng.Run(ctx); err != nil {
			log.Printf("engine run failed: %v", err)
		}
	}()

	gateway.PushTick(model.Tick{
		Token:       *token,
		Price:       price,
		Quantity:    100,
		EventTsNano: time.Now().UTC().UnixNano(),
	})
	waitFor(func() bool {
		_, ok := eng.LastPrice(*token)
		return ok
	})

	for i := 0; i < *orderCount; i++ {
		ref, err := eng.SubmitOrder(ctx, model.OrderIntent{
			Symbol:      *symbol,
			Exchange:    enum.ExchangeNSE,
			Side:        enum.OrderSideBuy,
			Kind:        enum.OrderKindMarket,
			Quantity:    model.Quantity(*qty),
			Product:     enum.ProductTypeIntraday,
			CreatedTime: time.Now().UTC().UnixNano(),
		})
		if err != nil {
			log.Printf("order %d rejected: %v", ref, err)
			continue
		}
		waitFor(func() bool {
			order, ok := eng.Order(ref)
			return ok && order.Status.IsTerminal()
		})
		order, _ := eng.Order(ref)
		log.Printf("order %d %s, filled %d @ %s", ref, order.Status, order.FilledQty, order.AvgFillPrice.String())
	}

	cancel()
	<-done

	position := eng.Position(*token)
	log.Printf("position: token=%s qty=%d avg=%s cash=%s", position.Token, position.Qty, position.AvgPrice.String(), eng.Cash().String())
	snapshot := eng.Metrics()
	log.Printf("metrics: events=%d bars=%d drops=%d anomalies=%v risk=%v submit_latency=%+v",
		snapshot.EventsApplied, snapshot.BarsEmitted, snapshot.QueueDrops,
		snapshot.Anomalies, snapshot.RiskDecisions, snapshot.SubmitLatency)
}

func waitFor(cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
}
