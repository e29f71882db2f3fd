package ledger

import (
	"sync"

	"github.com/yanun0323/logs"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Position is a per-instrument signed quantity with its volume-weighted
// average entry price. AvgPrice is undefined while Qty is zero.
type Position struct {
	Token    string
	Qty      model.Quantity // positive = long, negative = short
	AvgPrice model.Price
}

// Ledger is the authoritative in-memory record of cash and positions.
// ApplyFill is the only mutator besides snapshot replacement; each call
// represents exactly one real fill, callers must not replay.
type Ledger struct {
	mu        sync.Mutex
	cash      model.Notional
	positions map[string]Position
}

func New(cash model.Notional) *Ledger {
	return &Ledger{
		cash:      cash,
		positions: make(map[string]Position),
	}
}

// Cash returns the current available cash.
func (l *Ledger) Cash() model.Notional {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cash
}

// SetCash replaces the cash balance, used by broker-side resync.
func (l *Ledger) SetCash(cash model.Notional) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cash = cash
}

// Position returns a copy of the position for a token. The zero Position
// is returned for instruments never traded.
func (l *Ledger) Position(token string) Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	pos, ok := l.positions[token]
	if !ok {
		return Position{Token: token}
	}
	return pos
}

// Count returns the number of tracked instruments with open positions.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, pos := range l.positions {
		if pos.Qty != 0 {
			n++
		}
	}
	return n
}

// ApplyFill applies one confirmed fill to the position and cash.
//
// Same-direction fills extend the position at the volume-weighted average
// price. Opposite-direction fills reduce the position at the unchanged
// average until it flips sign, at which point the average resets to the
// fill price and the size becomes the residual opposite quantity.
func (l *Ledger) ApplyFill(token string, side enum.OrderSide, qty model.Quantity, price model.Price) error {
	if qty <= 0 {
		return exception.ErrLedgerInvalidFill
	}
	if !side.IsAvailable() {
		return exception.ErrInvalidArgument
	}

	signed := qty
	if side == enum.OrderSideSell {
		signed = -qty
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[token]
	if !ok {
		pos = Position{Token: token}
	}

	switch {
	case pos.Qty == 0 || sameSign(pos.Qty, signed):
		oldAbs := pos.Qty.Abs()
		total := oldAbs + qty
		pos.AvgPrice = model.Price((int64(pos.AvgPrice)*int64(oldAbs) + int64(price)*int64(qty) + int64(total)/2) / int64(total))
		pos.Qty += signed
	case signed.Abs() <= pos.Qty.Abs():
		pos.Qty += signed
		if pos.Qty == 0 {
			pos.AvgPrice = 0
		}
	default:
		// Flip: the residual opens a new position at the fill price.
		pos.Qty += signed
		pos.AvgPrice = price
	}
	l.positions[token] = pos

	notional, overflow := model.MulNotional(price, qty)
	if overflow {
		return exception.ErrInternal
	}
	if side == enum.OrderSideBuy {
		l.cash -= notional
	} else {
		l.cash += notional
	}
	if l.cash < 0 {
		logs.Errorf("ledger anomaly: cash went negative after fill, token %s, cash %s", token, l.cash.String())
		return exception.ErrLedgerNegativeCash
	}
	return nil
}

// Snapshot returns a copy of all positions.
func (l *Ledger) Snapshot() []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos)
	}
	return out
}

// ApplySnapshot replaces all positions with a broker-side snapshot.
// In-flight order state is untouched; this is the reconnect gap-recovery
// path, not a fill path.
func (l *Ledger) ApplySnapshot(positions []Position) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key := range l.positions {
		delete(l.positions, key)
	}
	for _, pos := range positions {
		l.positions[pos.Token] = pos
	}
}

func sameSign(a, b model.Quantity) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}
