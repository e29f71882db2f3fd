package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	pyroscope "github.com/grafana/pyroscope-go"

	"main/internal/broker/angel"
	"main/internal/engine"
	"main/internal/instrument"
	"main/internal/ops"
	"main/pkg/conn"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to JSON config")
	tokens := flag.String("tokens", "", "Comma-separated instrument tokens to stream (default: static instrument table)")
	resync := flag.Bool("resync", true, "Pull broker positions and cash on startup")
	resyncInterval := flag.Duration("resync-interval", 0, "Periodic resync interval (0=disable)")
	pyroscopeAddr := flag.String("pyroscope", "", "Pyroscope server address (empty=disable)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *pyroscopeAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "order-engine",
			ServerAddress:   *pyroscopeAddr,
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer profiler.Stop()
	}

	loaded, err := ops.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	source, closeSource, err := buildSource(loaded)
	if err != nil {
		log.Fatalf("instrument source failed: %v", err)
	}
	defer closeSource()

	gateway := angel.NewDelegator(nil, loaded.Broker)
	eng := engine.New(engine.Config{
		BarInterval:   loaded.BarInterval,
		StartingCash:  loaded.StartingCash,
		OrderQueueCap: loaded.OrderQueueCap,
		TickQueueCap:  loaded.TickQueueCap,
		Risk:          loaded.Risk,
		Tokens:        resolveTokens(*tokens, loaded.Static),
	}, gateway, instrument.NewService(source))

	if *resync {
		if err := eng.Resync(ctx); err != nil {
			log.Fatalf("startup resync failed: %v", err)
		}
	}
	if *resyncInterval > 0 {
		go runPeriodicResync(ctx, eng, *resyncInterval)
	}

	if err := eng.Run(ctx); err != nil {
		log.Fatalf("engine run failed: %v", err)
	}

	snapshot := eng.Metrics()
	log.Printf("metrics: events=%d bars=%d drops=%d anomalies=%v risk=%v submit_latency=%+v",
		snapshot.EventsApplied, snapshot.BarsEmitted, snapshot.QueueDrops,
		snapshot.Anomalies, snapshot.RiskDecisions, snapshot.SubmitLatency)
}

func buildSource(loaded ops.Loaded) (instrument.Source, func(), error) {
	if loaded.Postgres != nil {
		client, err := conn.New(*loaded.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return instrument.NewRepository(client.DB()), func() { _ = client.Close() }, nil
	}
	return loaded.Static, func() {}, nil
}

func resolveTokens(flagValue string, static instrument.StaticSource) []string {
	if flagValue != "" {
		parts := strings.Split(flagValue, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			if token := strings.TrimSpace(part); token != "" {
				out = append(out, token)
			}
		}
		return out
	}
	out := make([]string, 0, len(static))
	for _, meta := range static {
		out = append(out, meta.Token)
	}
	return out
}

func runPeriodicResync(ctx context.Context, eng *engine.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := eng.Resync(ctx); err != nil {
				log.Printf("periodic resync failed: %v", err)
			}
		}
	}
}
