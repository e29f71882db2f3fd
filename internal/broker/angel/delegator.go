package angel

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/broker"
	"main/internal/model"
	"main/internal/ops"
	"main/pkg/exception"
)

const (
	_pathPlaceOrder  = "/rest/secure/angelbroking/order/v1/placeOrder"
	_pathCancelOrder = "/rest/secure/angelbroking/order/v1/cancelOrder"
	_pathGetPosition = "/rest/secure/angelbroking/order/v1/getPosition"
	_pathGetRMS      = "/rest/secure/angelbroking/user/v1/getRMS"
)

// Delegator translates gateway calls into SmartAPI-style REST requests.
// It implements broker.Gateway together with the stream half in
// stream.go.
type Delegator struct {
	client  *http.Client
	session ops.BrokerSession
	streams *streams
}

func NewDelegator(client *http.Client, session ops.BrokerSession) *Delegator {
	if client == nil {
		client = &http.Client{}
	}
	return &Delegator{
		client:  client,
		session: session,
		streams: newStreams(session),
	}
}

// PlaceOrder submits one order and returns the venue order id.
func (d *Delegator) PlaceOrder(ctx context.Context, payload broker.OrderPayload) (broker.PlaceAck, error) {
	req := placeOrderRequest{
		Variety:          payload.Variety,
		TradingSymbol:    payload.TradingSymbol,
		SymbolToken:      payload.SymbolToken,
		TransactionType:  payload.TransactionType,
		Exchange:         payload.Exchange,
		OrderType:        payload.OrderType,
		ProductType:      payload.ProductType,
		Duration:         payload.Duration,
		Quantity:         int64(payload.Quantity),
		Price:            payload.Price.String(),
		TriggerPrice:     payload.TriggerPrice.String(),
		SquareOff:        payload.SquareOff.String(),
		StopLoss:         payload.StopLoss.String(),
		TrailingStopLoss: payload.TrailingStopLoss.String(),
	}

	var data placeOrderData
	if err := d.post(ctx, _pathPlaceOrder, req, &data); err != nil {
		return broker.PlaceAck{}, err
	}
	if data.OrderID == "" {
		return broker.PlaceAck{}, exception.ErrBrokerEmptyOrderID
	}
	return broker.PlaceAck{OrderID: data.OrderID, Status: "submitted"}, nil
}

// CancelOrder requests cancellation. The caller treats it as
// fire-and-forget; confirmation arrives on the order stream.
func (d *Delegator) CancelOrder(ctx context.Context, orderID, variety string) error {
	req := cancelOrderRequest{Variety: variety, OrderID: orderID}
	var data cancelOrderData
	return d.post(ctx, _pathCancelOrder, req, &data)
}

// Positions fetches the broker-side position snapshot.
func (d *Delegator) Positions(ctx context.Context) ([]broker.PositionRecord, error) {
	var rows []positionRow
	if err := d.get(ctx, _pathGetPosition, &rows); err != nil {
		return nil, err
	}

	out := make([]broker.PositionRecord, 0, len(rows))
	for _, row := range rows {
		qty, err := strconv.ParseInt(row.NetQty, 10, 64)
		if err != nil {
			return nil, errors.Wrap(exception.ErrBrokerDecodeResponse, "parse netqty")
		}
		avg, err := model.ParsePrice(row.NetAvgPrice.String())
		if err != nil {
			return nil, errors.Wrap(exception.ErrBrokerDecodeResponse, "parse netavgprice")
		}
		out = append(out, broker.PositionRecord{
			Token:    row.SymbolToken,
			Qty:      model.Quantity(qty),
			AvgPrice: avg,
		})
	}
	return out, nil
}

// Cash fetches the available cash from the RMS endpoint.
func (d *Delegator) Cash(ctx context.Context) (model.Notional, error) {
	var data rmsData
	if err := d.get(ctx, _pathGetRMS, &data); err != nil {
		return 0, err
	}
	cash, err := model.ParsePrice(data.AvailableCash.String())
	if err != nil {
		return 0, errors.Wrap(exception.ErrBrokerDecodeResponse, "parse availablecash")
	}
	return model.Notional(cash), nil
}

// SubscribeOrders attaches a handler to the order-update push stream.
func (d *Delegator) SubscribeOrders(ctx context.Context, handler func(broker.OrderEvent)) (func(), error) {
	return d.streams.subscribeOrders(ctx, handler)
}

// SubscribeTicks attaches a handler to the tick push stream.
func (d *Delegator) SubscribeTicks(ctx context.Context, tokens []string, handler func(model.Tick)) (func(), error) {
	return d.streams.subscribeTicks(ctx, tokens, handler)
}

func (d *Delegator) post(ctx context.Context, path string, body any, out any) error {
	payload, err := sonic.ConfigFastest.Marshal(body)
	if err != nil {
		return err
	}
	return d.do(ctx, http.MethodPost, path, payload, out)
}

func (d *Delegator) get(ctx context.Context, path string, out any) error {
	return d.do(ctx, http.MethodGet, path, nil, out)
}

func (d *Delegator) do(ctx context.Context, method, path string, payload []byte, out any) error {
	// Zero session timeout leaves the deadline to the caller's ctx.
	if d.session.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.session.RequestTimeout)
		defer cancel()
	}

	var body *bytes.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}
	r, err := http.NewRequestWithContext(ctx, method, d.session.BaseURL+path, body)
	if err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	r.Header.Set("X-UserType", "USER")
	r.Header.Set("X-SourceID", "WEB")
	r.Header.Set("X-PrivateKey", d.session.APIKey)
	r.Header.Set("Authorization", "Bearer "+d.session.AuthToken)

	resp, err := d.client.Do(r)
	if err != nil {
		return errors.Wrap(exception.ErrBrokerRequestNotSent, err.Error())
	}
	defer resp.Body.Close()

	var envelope response
	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errors.Wrap(exception.ErrBrokerDecodeResponse, err.Error())
	}
	if !envelope.Status {
		return errors.Wrap(exception.ErrBrokerResponseStatus, envelope.Message)
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := sonic.ConfigFastest.Unmarshal(envelope.Data, out); err != nil {
			return errors.Wrap(exception.ErrBrokerDecodeResponse, err.Error())
		}
	}
	return nil
}
