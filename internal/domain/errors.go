package domain

import "errors"

var (
	ErrInvalidFormat   = errors.New("invalid format")
	ErrFutureDate      = errors.New("date is in the future")
	ErrInvalidCurrency = errors.New("invalid currency")
	ErrInvalidAmount   = errors.New("amount must be greater than zero")
	ErrRateNotFound    = errors.New("rate not found")
	ErrNoRatesFound    = errors.New("no rates found")

	ErrSyncFetch   = errors.New("sync fetch failed")
	ErrSyncPersist = errors.New("sync persist failed")
)

const (
	KindFormat          = "FORMAT_ERROR"
	KindFutureDate      = "FUTURE_DATE"
	KindInvalidCurrency = "INVALID_CURRENCY"
	KindInvalidAmount   = "INVALID_AMOUNT"
	KindRateNotFound    = "RATE_NOT_FOUND"
	KindNoRatesFound    = "NO_RATES_FOUND"
	KindSyncFetch       = "SYNC_FETCH_FAILURE"
	KindSyncPersist     = "SYNC_PERSIST_FAILURE"
	KindInternal        = "INTERNAL_ERROR"
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidFormat, KindFormat},
	{ErrFutureDate, KindFutureDate},
	{ErrInvalidCurrency, KindInvalidCurrency},
	{ErrInvalidAmount, KindInvalidAmount},
	{ErrRateNotFound, KindRateNotFound},
	{ErrNoRatesFound, KindNoRatesFound},
	{ErrSyncFetch, KindSyncFetch},
	{ErrSyncPersist, KindSyncPersist},
}

// KindOf maps err to its taxonomy kind, KindInternal when it matches none.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
