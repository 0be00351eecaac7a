package currency

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"eurorates/internal/adapters"
	"eurorates/internal/domain"
	"eurorates/internal/metrics"

	"github.com/sirupsen/logrus"
)

const cacheKeyCurrencies = "currencies"

// Registry keeps the set of currency codes the provider publishes rates for.
type Registry struct {
	source       adapters.CurrencySource
	store        adapters.CurrencyStore
	cache        adapters.Cache
	metrics      *metrics.Metrics
	baseCurrency string
}

func NewRegistry(source adapters.CurrencySource, store adapters.CurrencyStore, cache adapters.Cache, m *metrics.Metrics, baseCurrency string) *Registry {
	return &Registry{
		source:       source,
		store:        store,
		cache:        cache,
		metrics:      m,
		baseCurrency: baseCurrency,
	}
}

// Refresh pulls the provider's currency listing and upserts it into the store.
// It is best-effort: on failure the stored codes stay as they are and 0 is returned.
func (r *Registry) Refresh(ctx context.Context) int {
	fetched, err := r.source.FetchCurrencyCodes(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Currency registry refresh failed, keeping existing codes")
		r.metrics.RegistryRefreshesTotal.WithLabelValues("failure").Inc()
		return 0
	}

	codes := r.filterCodes(fetched)
	if len(codes) == 0 {
		logrus.Warn("Provider returned no usable currency codes, keeping existing codes")
		r.metrics.RegistryRefreshesTotal.WithLabelValues("empty").Inc()
		return 0
	}

	if err = r.store.UpsertCurrencies(ctx, codes); err != nil {
		logrus.WithError(err).Warn("Failed to store refreshed currency codes")
		r.metrics.RegistryRefreshesTotal.WithLabelValues("failure").Inc()
		return 0
	}

	r.cache.Clear()
	r.metrics.RegistryRefreshesTotal.WithLabelValues("success").Inc()
	logrus.Infof("Currency registry refreshed with %d codes", len(codes))
	return len(codes)
}

func (r *Registry) filterCodes(fetched []string) []string {
	seen := make(map[string]struct{}, len(fetched))
	codes := make([]string, 0, len(fetched))
	for _, code := range fetched {
		code = strings.TrimSpace(code)
		if !domain.IsCurrencyCode(code) || code == r.baseCurrency {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// AllCurrencies returns the stored codes that pass the format check, sorted.
func (r *Registry) AllCurrencies(ctx context.Context) ([]string, error) {
	if cached, ok := r.cache.Get(cacheKeyCurrencies); ok {
		if codes, isCodes := cached.([]string); isCodes {
			return slices.Clone(codes), nil
		}
	}

	stored, err := r.store.ListCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}

	codes := make([]string, 0, len(stored))
	for _, code := range stored {
		if domain.IsCurrencyCode(code) {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)

	r.cache.Set(cacheKeyCurrencies, codes)
	return slices.Clone(codes), nil
}

// IsValid reports whether code is well-formed and present in the store.
// The base currency is not stored, callers treat it separately.
func (r *Registry) IsValid(ctx context.Context, code string) (bool, error) {
	if !domain.IsCurrencyCode(code) {
		return false, nil
	}
	exists, err := r.store.CurrencyExists(ctx, code)
	if err != nil {
		return false, fmt.Errorf("failed to check currency %s: %w", code, err)
	}
	return exists, nil
}
