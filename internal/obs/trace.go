package obs

import (
	"sync/atomic"
	"time"
)

// TraceGenerator hands out ids that correlate one submission's log
// lines. Ids are seeded from the process start time so restarts do not
// reuse recent values.
type TraceGenerator struct {
	next atomic.Uint64
}

func NewTraceGenerator() *TraceGenerator {
	g := &TraceGenerator{}
	g.next.Store(uint64(time.Now().UTC().UnixNano()))
	return g
}

// Next returns a fresh trace id.
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return g.next.Add(1)
}
