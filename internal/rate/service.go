package rate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"eurorates/internal/adapters"
	"eurorates/internal/domain"
	"eurorates/internal/metrics"

	"github.com/shopspring/decimal"
)

const (
	ratePlaces   = 4
	amountPlaces = 2
)

// Service answers rate lookups and conversions. Inputs are validated in this order:
// date presence, future date, currency format, currency existence, amount presence,
// amount > 0, rate existence.
type Service struct {
	registry     Registry
	store        adapters.RateStore
	cache        adapters.Cache
	metrics      *metrics.Metrics
	baseCurrency string
	now          func() time.Time

	// generation is bumped by InvalidateCache; reads started before a bump do not fill the cache.
	generation atomic.Uint64
}

func NewService(registry Registry, store adapters.RateStore, cache adapters.Cache, m *metrics.Metrics, baseCurrency string) *Service {
	return &Service{
		registry:     registry,
		store:        store,
		cache:        cache,
		metrics:      m,
		baseCurrency: baseCurrency,
		now:          time.Now,
	}
}

// GetSeries returns every stored rate for currency, newest first.
func (s *Service) GetSeries(ctx context.Context, currency string) (res []domain.RatePoint, err error) {
	defer func() { s.observe("series", err) }()

	if err = s.validateCurrency(ctx, currency); err != nil {
		return nil, err
	}

	key := seriesKey(currency)
	gen := s.generation.Load()
	if cached, ok := s.cache.Get(key); ok {
		if points, isPoints := cached.([]domain.RatePoint); isPoints {
			return slices.Clone(points), nil
		}
	}

	points, err := s.store.FindByCurrency(ctx, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get rates for %s: %w", currency, err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoRatesFound, currency)
	}

	for i := range points {
		points[i].Rate = points[i].Rate.Round(ratePlaces)
	}
	s.fill(gen, key, points)
	return slices.Clone(points), nil
}

// GetRate returns the rate of currency on date.
func (s *Service) GetRate(ctx context.Context, currency string, date time.Time) (res domain.RatePoint, err error) {
	defer func() { s.observe("rate", err) }()

	if err = validateDate(date, s.now()); err != nil {
		return domain.RatePoint{}, err
	}
	if err = s.validateCurrency(ctx, currency); err != nil {
		return domain.RatePoint{}, err
	}
	return s.lookupRate(ctx, currency, domain.Date(date))
}

// Convert turns amount of currency into the base currency using the rate of date.
func (s *Service) Convert(ctx context.Context, currency string, amount decimal.NullDecimal, date time.Time) (res domain.ConversionResult, err error) {
	defer func() { s.observe("convert", err) }()

	if err = validateDate(date, s.now()); err != nil {
		return domain.ConversionResult{}, err
	}
	if err = s.validateCurrency(ctx, currency); err != nil {
		return domain.ConversionResult{}, err
	}
	if err = validateAmount(amount); err != nil {
		return domain.ConversionResult{}, err
	}

	point, err := s.lookupRate(ctx, currency, domain.Date(date))
	if err != nil {
		return domain.ConversionResult{}, err
	}
	if point.Rate.IsZero() {
		return domain.ConversionResult{}, fmt.Errorf("stored rate for %s on %s is zero", currency, point.Date.Format(domain.DateLayout))
	}

	return domain.ConversionResult{
		Currency:        currency,
		Amount:          amount.Decimal,
		Rate:            point.Rate,
		ConvertedAmount: amount.Decimal.DivRound(point.Rate, amountPlaces),
		Date:            point.Date,
	}, nil
}

// InvalidateCache drops every cached series and rate.
func (s *Service) InvalidateCache() {
	s.generation.Add(1)
	s.cache.Clear()
}

func (s *Service) fill(gen uint64, key string, value any) {
	if s.generation.Load() != gen {
		return
	}
	s.cache.Set(key, value)
}

func (s *Service) lookupRate(ctx context.Context, currency string, date time.Time) (domain.RatePoint, error) {
	key := rateKey(currency, date)
	gen := s.generation.Load()
	if cached, ok := s.cache.Get(key); ok {
		if point, isPoint := cached.(domain.RatePoint); isPoint {
			return point, nil
		}
	}

	point, err := s.store.FindByCurrencyAndDate(ctx, currency, date)
	if err != nil {
		if errors.Is(err, domain.ErrRateNotFound) {
			return domain.RatePoint{}, fmt.Errorf("%w: %s on %s", domain.ErrRateNotFound, currency, date.Format(domain.DateLayout))
		}
		return domain.RatePoint{}, fmt.Errorf("failed to get rate for %s on %s: %w", currency, date.Format(domain.DateLayout), err)
	}

	point.Rate = point.Rate.Round(ratePlaces)
	s.fill(gen, key, point)
	return point, nil
}

func (s *Service) observe(operation string, err error) {
	kind := "OK"
	if err != nil {
		kind = domain.KindOf(err)
	}
	s.metrics.QueriesTotal.WithLabelValues(operation, kind).Inc()
}

func seriesKey(currency string) string {
	return "series:" + currency
}

func rateKey(currency string, date time.Time) string {
	return "rate:" + currency + ":" + date.Format(domain.DateLayout)
}
