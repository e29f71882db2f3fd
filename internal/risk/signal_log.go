package risk

import (
	"sync"
	"time"

	"main/internal/model/enum"
)

type signalKey struct {
	symbol string
	side   enum.OrderSide
}

// signalLog tracks recently completed (instrument, side) signals.
// Entries expire after the window or when the opposite side completes.
type signalLog struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[signalKey]int64
}

func newSignalLog(window time.Duration) *signalLog {
	return &signalLog{
		window:  window,
		entries: make(map[signalKey]int64),
	}
}

func (l *signalLog) record(key signalKey, now int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = now
	delete(l.entries, signalKey{symbol: key.symbol, side: key.side.Opposite()})
}

func (l *signalLog) suppressed(key signalKey, now int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	at, ok := l.entries[key]
	if !ok {
		return false
	}
	if l.window > 0 && now-at > int64(l.window) {
		delete(l.entries, key)
		return false
	}
	return true
}

func (l *signalLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.entries {
		delete(l.entries, key)
	}
}
