package model

import "time"

// Tick is one trade event from the venue tick stream.
type Tick struct {
	Token       string
	Price       Price
	Quantity    Quantity
	EventTsNano int64
	RecvTsNano  int64
}

// Bar is one fixed-width OHLCV window. Start marks the window open;
// the window spans [Start, Start+interval).
type Bar struct {
	Token  string
	Start  time.Time
	Open   Price
	High   Price
	Low    Price
	Close  Price
	Volume Quantity
}
