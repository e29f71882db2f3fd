package model

import (
	"strconv"
	"strings"
)

// PriceScale is the fixed decimal scale for prices and notionals.
// The venue quotes equities in hundredths, so one price unit is 0.01.
const PriceScale = 2

// Price is a scaled integer with PriceScale decimal places.
type Price int64

func (p Price) AppendString(buf []byte) []byte {
	return appendScaledInt(buf, int64(p), PriceScale)
}

func (p Price) String() string {
	return string(p.AppendString(make([]byte, 0, 16)))
}

// RoundToTick rounds half-up to the nearest multiple of tick.
func (p Price) RoundToTick(tick Price) Price {
	if tick <= 0 {
		return p
	}
	if p >= 0 {
		return (p + tick/2) / tick * tick
	}
	return -((-p + tick/2) / tick * tick)
}

// Quantity is a whole number of shares. Sign carries direction where noted.
type Quantity int64

func (q Quantity) Abs() Quantity {
	if q < 0 {
		return -q
	}
	return q
}

// Notional is a scaled integer with PriceScale decimal places.
type Notional int64

func (n Notional) AppendString(buf []byte) []byte {
	return appendScaledInt(buf, int64(n), PriceScale)
}

func (n Notional) String() string {
	return string(n.AppendString(make([]byte, 0, 16)))
}

const maxInt64 = int64(^uint64(0) >> 1)

// MulNotional multiplies price by quantity with overflow detection.
func MulNotional(price Price, qty Quantity) (Notional, bool) {
	p := int64(price)
	q := int64(qty)
	if p == 0 || q == 0 {
		return 0, false
	}
	ap, aq := p, q
	if ap < 0 {
		ap = -ap
	}
	if aq < 0 {
		aq = -aq
	}
	if ap > maxInt64/aq {
		return 0, true
	}
	return Notional(p * q), false
}

// ParsePrice parses a decimal string into a scaled Price.
// Digits beyond PriceScale are truncated.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > PriceScale {
		fracPart = fracPart[:PriceScale]
	}
	for len(fracPart) < PriceScale {
		fracPart += "0"
	}

	value, err := strconv.ParseInt(intPart+fracPart, 10, 64)
	if err != nil {
		return 0, err
	}
	if neg {
		value = -value
	}
	return Price(value), nil
}

func appendScaledInt(buf []byte, value int64, scale int) []byte {
	if scale <= 0 {
		return strconv.AppendInt(buf, value, 10)
	}

	neg := value < 0
	u := uint64(value)
	if neg {
		u = uint64(^value) + 1
	}

	var tmp [32]byte
	digits := strconv.AppendUint(tmp[:0], u, 10)

	if neg {
		buf = append(buf, '-')
	}

	if len(digits) <= scale {
		buf = append(buf, '0', '.')
		for i := 0; i < scale-len(digits); i++ {
			buf = append(buf, '0')
		}
		buf = append(buf, digits...)
		return buf
	}

	idx := len(digits) - scale
	buf = append(buf, digits[:idx]...)
	buf = append(buf, '.')
	buf = append(buf, digits[idx:]...)
	return buf
}
