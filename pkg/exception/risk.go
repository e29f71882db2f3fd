package exception

import "errors"

// Risk rejections: the order is created directly in Rejected status and
// never reaches the venue.
var (
	ErrRiskInsufficientMargin = errors.New("risk: insufficient margin")
	ErrRiskPositionLimit      = errors.New("risk: position limit exceeded")
	ErrRiskDuplicateSignal    = errors.New("risk: duplicate signal suppressed")
)
