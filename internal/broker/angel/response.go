package angel

import (
	"encoding/json"

	"github.com/yanun0323/decimal"
)

// response is the common SmartAPI-style envelope.
type response struct {
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	ErrorCode string          `json:"errorcode"`
	Data      json.RawMessage `json:"data"`
}

type placeOrderRequest struct {
	Variety          string `json:"variety"`
	TradingSymbol    string `json:"tradingsymbol"`
	SymbolToken      string `json:"symboltoken"`
	TransactionType  string `json:"transactiontype"`
	Exchange         string `json:"exchange"`
	OrderType        string `json:"ordertype"`
	ProductType      string `json:"producttype"`
	Duration         string `json:"duration"`
	Quantity         int64  `json:"quantity"`
	Price            string `json:"price"`
	TriggerPrice     string `json:"triggerprice"`
	SquareOff        string `json:"squareoff,omitempty"`
	StopLoss         string `json:"stoploss,omitempty"`
	TrailingStopLoss string `json:"trailingStopLoss,omitempty"`
}

type placeOrderData struct {
	Script  string `json:"script"`
	OrderID string `json:"orderid"`
}

type cancelOrderRequest struct {
	Variety string `json:"variety"`
	OrderID string `json:"orderid"`
}

type cancelOrderData struct {
	OrderID string `json:"orderid"`
}

type positionRow struct {
	TradingSymbol string          `json:"tradingsymbol"`
	SymbolToken   string          `json:"symboltoken"`
	Exchange      string          `json:"exchange"`
	NetQty        string          `json:"netqty"`
	NetAvgPrice   decimal.Decimal `json:"netavgprice"`
}

type rmsData struct {
	Net           decimal.Decimal `json:"net"`
	AvailableCash decimal.Decimal `json:"availablecash"`
}

// orderUpdate is one push message on the order stream.
type orderUpdate struct {
	OrderID      string          `json:"orderid"`
	Status       string          `json:"status"`
	Text         string          `json:"text"`
	FilledShares string          `json:"filledshares"`
	AvgPrice     decimal.Decimal `json:"averageprice"`
	UpdateTimeMs int64           `json:"updatetime"`
}

// tickUpdate is one push message on the tick stream.
type tickUpdate struct {
	Token        string          `json:"token"`
	LastPrice    decimal.Decimal `json:"last_traded_price"`
	LastQty      int64           `json:"last_traded_quantity"`
	ExchangeTsMs int64           `json:"exchange_timestamp"`
}
