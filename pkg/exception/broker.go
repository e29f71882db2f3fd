package exception

import "errors"

// Broker gateway errors.
var (
	ErrBrokerRequestNotSent   = errors.New("broker: request did not send")
	ErrBrokerResponseStatus   = errors.New("broker: response status is not ok")
	ErrBrokerEmptyOrderID     = errors.New("broker: empty response order id")
	ErrBrokerDecodeResponse   = errors.New("broker: decode response body")
	ErrBrokerUnsupportedKind  = errors.New("broker: unsupported kind/variety combination")
	ErrBrokerInstrumentLookup = errors.New("broker: instrument token not found")
)
