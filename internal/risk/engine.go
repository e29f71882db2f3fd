package risk

import (
	"time"

	"github.com/yanun0323/logs"

	"main/internal/instrument"
	"main/internal/ledger"
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// Config defines the pre-trade limits and adjustments.
type Config struct {
	// SlippageTicks is K in the market→limit rewrite: the limit lands
	// K ticks through the last price in the fill-favoring direction.
	SlippageTicks int64 `json:"slippageTicks"`
	// SuppressionWindow bounds the duplicate-signal check. A completed
	// (instrument, side) signal blocks re-entry for this long unless an
	// opposite-side completion clears it first.
	SuppressionWindow time.Duration `json:"suppressionWindow"`
	// DefaultTickSize is used for slippage control when instrument
	// metadata is missing.
	DefaultTickSize model.Price `json:"defaultTickSize"`
}

// DefaultConfig matches the venue's common equity tick of 0.05.
func DefaultConfig() Config {
	return Config{
		SlippageTicks:     5,
		SuppressionWindow: time.Minute,
		DefaultTickSize:   5,
	}
}

// Action is the decision outcome.
type Action uint8

const (
	ActionAllow Action = iota
	ActionDeny
	ActionAdjust
)

// Decision is the ephemeral result of one evaluation. Never persisted.
type Decision struct {
	Action Action
	// Err names the failed check when Action is Deny.
	Err error
	// AdjustedKind/AdjustedPrice carry the slippage rewrite when Action
	// is Adjust: the market intent becomes a limit at the given price.
	AdjustedKind  enum.OrderKind
	AdjustedPrice model.Price
}

// View is the state snapshot an evaluation runs against.
type View struct {
	Position  ledger.Position
	Cash      model.Notional
	LastPrice model.Price
	Meta      instrument.Meta
	MetaKnown bool
	Now       int64
}

// Engine runs the pre-trade checks in fixed order, short-circuiting on
// the first failure. It never mutates positions and never submits.
type Engine struct {
	cfg     Config
	signals *signalLog
}

func NewEngine(cfg Config) *Engine {
	if cfg.SlippageTicks <= 0 {
		cfg.SlippageTicks = 5
	}
	if cfg.DefaultTickSize <= 0 {
		cfg.DefaultTickSize = 5
	}
	return &Engine{
		cfg:     cfg,
		signals: newSignalLog(cfg.SuppressionWindow),
	}
}

// Evaluate runs margin, position-limit and duplicate-signal checks, then
// applies slippage control to market intents.
func (e *Engine) Evaluate(intent model.OrderIntent, view View) Decision {
	now := view.Now
	if now == 0 {
		now = time.Now().UTC().UnixNano()
	}

	// 1. Margin: the intent's limit price when present, else the last
	// known market price.
	refPrice := intent.LimitPrice
	if refPrice == 0 {
		refPrice = view.LastPrice
	}
	required, overflow := model.MulNotional(refPrice, intent.Quantity)
	if overflow || required > view.Cash {
		return Decision{Action: ActionDeny, Err: exception.ErrRiskInsufficientMargin}
	}

	// 2. Position limit: per-instrument ceiling from the lot size.
	// Missing metadata downgrades this check to a warning.
	if !view.MetaKnown || view.Meta.LotSize <= 0 {
		logs.Warnf("no lot size for %s, skipping position limit check", intent.Symbol)
	} else {
		signed := intent.Quantity
		if intent.Side == enum.OrderSideSell {
			signed = -signed
		}
		if (view.Position.Qty + signed).Abs() > view.Meta.LotSize {
			return Decision{Action: ActionDeny, Err: exception.ErrRiskPositionLimit}
		}
	}

	// 3. Duplicate signal.
	if e.signals.suppressed(signalKey{symbol: intent.Symbol, side: intent.Side}, now) {
		return Decision{Action: ActionDeny, Err: exception.ErrRiskDuplicateSignal}
	}

	// 4. Slippage control: rewrite market intents to a limit K ticks
	// through the last price, rounded to the tick grid.
	if intent.Kind == enum.OrderKindMarket && view.LastPrice > 0 {
		tick := e.cfg.DefaultTickSize
		if view.MetaKnown && view.Meta.TickSize > 0 {
			tick = view.Meta.TickSize
		}
		offset := model.Price(e.cfg.SlippageTicks) * tick
		raw := view.LastPrice + offset
		if intent.Side == enum.OrderSideSell {
			raw = view.LastPrice - offset
		}
		return Decision{
			Action:        ActionAdjust,
			AdjustedKind:  enum.OrderKindLimit,
			AdjustedPrice: raw.RoundToTick(tick),
		}
	}

	return Decision{Action: ActionAllow}
}

// NoteCompleted records a completed (instrument, side) signal for the
// duplicate check. Completion on the opposite side clears the entry.
func (e *Engine) NoteCompleted(symbol string, side enum.OrderSide, now int64) {
	e.signals.record(signalKey{symbol: symbol, side: side}, now)
}

// Reset drops all recorded signals.
func (e *Engine) Reset() {
	e.signals.reset()
}
