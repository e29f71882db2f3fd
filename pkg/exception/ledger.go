package exception

import "errors"

// Ledger invariant violations. Logged as anomalies in production, fatal in
// tests; never silently corrected.
var (
	ErrLedgerNegativeCash = errors.New("ledger: cash went negative")
	ErrLedgerInvalidFill  = errors.New("ledger: fill quantity must be > 0")
)
