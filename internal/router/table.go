package router

import (
	"sync"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/broker"
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

const (
	_parkedOrderLimit = 32
	_parkedEventLimit = 16
)

// ParkOutcome reports what happened to an event whose venue identifier
// had no binding at lookup time.
type ParkOutcome uint8

const (
	// ParkStored means the event waits for Bind to drain it.
	ParkStored ParkOutcome = iota
	// ParkBound means the identifier got bound concurrently; retry the
	// lookup instead.
	ParkBound
	// ParkDropped means the buffer is full for that identifier.
	ParkDropped
)

// Table owns the local-ref ↔ broker-id ↔ order mapping shared by the
// submission path and the reconciler. One mutex guards the whole table;
// it is held only for in-memory reads and updates, never across a
// gateway call.
//
// Events that arrive before the placement ack binds the venue id are
// parked under the same mutex and handed back by Bind, so a fill pushed
// while PlaceOrder is still in flight is never lost.
type Table struct {
	mu       sync.Mutex
	nextRef  uint64
	byRef    map[uint64]*model.Order
	byBroker map[string]uint64

	parked    map[string][]broker.OrderEvent
	parkQueue []string
}

func NewTable() *Table {
	return &Table{
		byRef:    make(map[uint64]*model.Order),
		byBroker: make(map[string]uint64),
		parked:   make(map[string][]broker.OrderEvent),
	}
}

// Insert stores a new order and returns its local ref.
func (t *Table) Insert(o model.Order) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextRef++
	o.LocalRef = t.nextRef
	t.byRef[o.LocalRef] = &o
	return o.LocalRef
}

// Bind attaches the venue identifier and moves a freshly created order
// to Submitted in one critical section. The status write is guarded: an
// event reconciled between the ack and the bind already advanced the
// order, and that state stands. The binding happens exactly once; a
// second bind is an error.
//
// Events parked for the identifier are returned in arrival order; the
// caller replays them through the reconciliation path.
func (t *Table) Bind(ref uint64, brokerID string) ([]broker.OrderEvent, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.byRef[ref]
	if !ok {
		return nil, exception.ErrOrderUnknownRef
	}
	if o.BrokerID != "" {
		return nil, exception.ErrOrderBrokerIDReassign
	}
	o.BrokerID = brokerID
	t.byBroker[brokerID] = ref
	if o.Status == enum.OrderStatusCreated {
		o.Status = enum.OrderStatusSubmitted
		o.UpdatedTime = time.Now().UTC().UnixNano()
	}

	parked := t.parked[brokerID]
	if parked != nil {
		delete(t.parked, brokerID)
		t.dequeuePark(brokerID)
	}
	return parked, nil
}

// Park buffers an event for a venue identifier with no binding yet. The
// bound-check and the buffering share the table mutex, so an event can
// never slip between a Bind and its replay.
func (t *Table) Park(event broker.OrderEvent) ParkOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byBroker[event.OrderID]; ok {
		return ParkBound
	}

	list, ok := t.parked[event.OrderID]
	if !ok {
		if len(t.parkQueue) >= _parkedOrderLimit {
			oldest := t.parkQueue[0]
			t.parkQueue = t.parkQueue[1:]
			delete(t.parked, oldest)
			logs.Infof("discarding parked events for never-bound broker order %s", oldest)
		}
		t.parkQueue = append(t.parkQueue, event.OrderID)
	}
	if len(list) >= _parkedEventLimit {
		return ParkDropped
	}
	t.parked[event.OrderID] = append(list, event)
	return ParkStored
}

func (t *Table) dequeuePark(brokerID string) {
	for i, id := range t.parkQueue {
		if id == brokerID {
			t.parkQueue = append(t.parkQueue[:i], t.parkQueue[i+1:]...)
			return
		}
	}
}

// Get returns a copy of the order for a local ref.
func (t *Table) Get(ref uint64) (model.Order, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.byRef[ref]
	if !ok {
		return model.Order{}, false
	}
	return *o, true
}

// GetByBroker returns a copy of the order for a venue identifier.
func (t *Table) GetByBroker(brokerID string) (model.Order, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref, ok := t.byBroker[brokerID]
	if !ok {
		return model.Order{}, false
	}
	return *t.byRef[ref], true
}

// Update applies fn to the order under the table lock. fn must be pure
// in-memory work; blocking inside it stalls both pipelines.
func (t *Table) Update(ref uint64, fn func(*model.Order)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	o, ok := t.byRef[ref]
	if !ok {
		return false
	}
	fn(o)
	return true
}

// UpdateByBroker applies fn to the order bound to a venue identifier.
func (t *Table) UpdateByBroker(brokerID string, fn func(*model.Order)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ref, ok := t.byBroker[brokerID]
	if !ok {
		return false
	}
	fn(t.byRef[ref])
	return true
}

// Count returns the number of tracked orders.
func (t *Table) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byRef)
}
