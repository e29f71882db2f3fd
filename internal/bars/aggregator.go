package bars

import (
	"sync"
	"time"

	"main/internal/model"
)

// Sink receives completed bars. It runs on the tick consumer goroutine
// and must hand off quickly.
type Sink func(model.Bar)

// Aggregator folds a tick stream into fixed-interval OHLCV bars, one
// open bar per instrument.
//
// A tick strictly before the window boundary updates the open bar; a
// tick on or after the boundary emits the open bar and seeds the next
// one. Windows with no ticks produce no bars, and no bar exists before
// the first tick.
type Aggregator struct {
	mu       sync.Mutex
	interval time.Duration
	open     map[string]*series
	sinks    []Sink
}

type series struct {
	bar model.Bar
	end time.Time
}

func NewAggregator(interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Aggregator{
		interval: interval,
		open:     make(map[string]*series),
	}
}

// Subscribe registers a sink for completed bars.
func (a *Aggregator) Subscribe(sink Sink) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sinks = append(a.sinks, sink)
}

// OnTick folds one tick into the open bar for its instrument.
func (a *Aggregator) OnTick(tick model.Tick) {
	ts := time.Unix(0, tick.EventTsNano).UTC()

	a.mu.Lock()
	s, ok := a.open[tick.Token]
	if !ok {
		a.open[tick.Token] = a.newSeries(tick, ts)
		a.mu.Unlock()
		return
	}

	if ts.Before(s.end) {
		if tick.Price > s.bar.High {
			s.bar.High = tick.Price
		}
		if tick.Price < s.bar.Low {
			s.bar.Low = tick.Price
		}
		s.bar.Close = tick.Price
		s.bar.Volume += tick.Quantity
		a.mu.Unlock()
		return
	}

	emitted := s.bar
	sinks := a.sinks
	a.open[tick.Token] = a.newSeries(tick, ts)
	a.mu.Unlock()

	for _, sink := range sinks {
		sink(emitted)
	}
}

// Flush emits all open bars, used at shutdown.
func (a *Aggregator) Flush() []model.Bar {
	a.mu.Lock()
	out := make([]model.Bar, 0, len(a.open))
	for token, s := range a.open {
		out = append(out, s.bar)
		delete(a.open, token)
	}
	sinks := a.sinks
	a.mu.Unlock()

	for _, bar := range out {
		for _, sink := range sinks {
			sink(bar)
		}
	}
	return out
}

func (a *Aggregator) newSeries(tick model.Tick, ts time.Time) *series {
	start := ts.Truncate(a.interval)
	return &series{
		bar: model.Bar{
			Token:  tick.Token,
			Start:  start,
			Open:   tick.Price,
			High:   tick.Price,
			Low:    tick.Price,
			Close:  tick.Price,
			Volume: tick.Quantity,
		},
		end: start.Add(a.interval),
	}
}
