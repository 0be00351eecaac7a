package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// RatePoint is one stored daily rate: units of Currency for 1 unit of the base currency on Date.
type RatePoint struct {
	Currency string
	Date     time.Time
	Rate     decimal.Decimal
}

// SourceRate is a single (date, rate) entry parsed from the provider payload.
type SourceRate struct {
	Date time.Time
	Rate decimal.Decimal
}

type ConversionResult struct {
	Currency        string
	Amount          decimal.Decimal
	Rate            decimal.Decimal
	ConvertedAmount decimal.Decimal
	Date            time.Time
}

// Date normalizes t to its calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
