package enum

// Exchange NSE, BSE, NFO
type Exchange uint8

const (
	_exchange_beg Exchange = iota
	ExchangeNSE
	ExchangeBSE
	ExchangeNFO
	_exchange_end
)

func (e Exchange) IsAvailable() bool {
	return e > _exchange_beg && e < _exchange_end
}

func (e Exchange) String() string {
	switch e {
	case ExchangeNSE:
		return "NSE"
	case ExchangeBSE:
		return "BSE"
	case ExchangeNFO:
		return "NFO"
	default:
		return "UNKNOWN"
	}
}

// ParseExchange maps a venue segment string to an Exchange.
func ParseExchange(s string) (Exchange, bool) {
	switch s {
	case "NSE":
		return ExchangeNSE, true
	case "BSE":
		return ExchangeBSE, true
	case "NFO":
		return ExchangeNFO, true
	default:
		return 0, false
	}
}
