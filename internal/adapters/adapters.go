package adapters

import (
	"context"
	"time"

	"eurorates/internal/domain"
)

type RateSource interface {
	FetchRates(ctx context.Context, currency string) ([]domain.SourceRate, error)
}

type CurrencySource interface {
	FetchCurrencyCodes(ctx context.Context) ([]string, error)
}

type RateStore interface {
	FindByCurrency(ctx context.Context, currency string) ([]domain.RatePoint, error)
	FindByCurrencyAndDate(ctx context.Context, currency string, date time.Time) (domain.RatePoint, error)
	ExistingDates(ctx context.Context, currency string) (map[time.Time]struct{}, error)
	DistinctCurrencies(ctx context.Context) ([]string, error)
	HasRates(ctx context.Context) (bool, error)
	SaveAll(ctx context.Context, points []domain.RatePoint) (int, error)
}

type CurrencyStore interface {
	UpsertCurrencies(ctx context.Context, codes []string) error
	ListCurrencies(ctx context.Context) ([]string, error)
	CurrencyExists(ctx context.Context, code string) (bool, error)
}

// Cache is a process-local key/value cache whose entries live until Clear.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Clear()
}
