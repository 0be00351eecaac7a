package rate

import (
	"context"
	"slices"
	"sync"
	"time"

	"eurorates/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- Testify mocks ---

type MockRegistry struct{ mock.Mock }

func (m *MockRegistry) Refresh(ctx context.Context) int {
	args := m.Called(ctx)
	return args.Int(0)
}

func (m *MockRegistry) AllCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	codes, _ := args.Get(0).([]string)
	return codes, args.Error(1)
}

func (m *MockRegistry) IsValid(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

type MockRateSource struct{ mock.Mock }

func (m *MockRateSource) FetchRates(ctx context.Context, currency string) ([]domain.SourceRate, error) {
	args := m.Called(ctx, currency)
	rates, _ := args.Get(0).([]domain.SourceRate)
	return rates, args.Error(1)
}

type MockRateStore struct{ mock.Mock }

func (m *MockRateStore) FindByCurrency(ctx context.Context, currency string) ([]domain.RatePoint, error) {
	args := m.Called(ctx, currency)
	points, _ := args.Get(0).([]domain.RatePoint)
	return points, args.Error(1)
}

func (m *MockRateStore) FindByCurrencyAndDate(ctx context.Context, currency string, date time.Time) (domain.RatePoint, error) {
	args := m.Called(ctx, currency, date)
	point, _ := args.Get(0).(domain.RatePoint)
	return point, args.Error(1)
}

func (m *MockRateStore) ExistingDates(ctx context.Context, currency string) (map[time.Time]struct{}, error) {
	args := m.Called(ctx, currency)
	dates, _ := args.Get(0).(map[time.Time]struct{})
	return dates, args.Error(1)
}

func (m *MockRateStore) DistinctCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	codes, _ := args.Get(0).([]string)
	return codes, args.Error(1)
}

func (m *MockRateStore) HasRates(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateStore) SaveAll(ctx context.Context, points []domain.RatePoint) (int, error) {
	args := m.Called(ctx, points)
	return args.Int(0), args.Error(1)
}

// --- In-memory fakes ---

// memStore keeps rates in a map and rejects duplicate (currency, date) keys the way the unique constraint does.
type memStore struct {
	mu     sync.Mutex
	points map[string]map[time.Time]domain.RatePoint
}

func newMemStore() *memStore {
	return &memStore{points: make(map[string]map[time.Time]domain.RatePoint)}
}

func (s *memStore) FindByCurrency(_ context.Context, currency string) ([]domain.RatePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]domain.RatePoint, 0, len(s.points[currency]))
	for _, p := range s.points[currency] {
		res = append(res, p)
	}
	slices.SortFunc(res, func(a, b domain.RatePoint) int { return b.Date.Compare(a.Date) })
	return res, nil
}

func (s *memStore) FindByCurrencyAndDate(_ context.Context, currency string, date time.Time) (domain.RatePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.points[currency][domain.Date(date)]
	if !ok {
		return domain.RatePoint{}, domain.ErrRateNotFound
	}
	return p, nil
}

func (s *memStore) ExistingDates(_ context.Context, currency string) (map[time.Time]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make(map[time.Time]struct{}, len(s.points[currency]))
	for d := range s.points[currency] {
		dates[d] = struct{}{}
	}
	return dates, nil
}

func (s *memStore) DistinctCurrencies(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]string, 0, len(s.points))
	for c := range s.points {
		res = append(res, c)
	}
	slices.Sort(res)
	return res, nil
}

func (s *memStore) HasRates(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points) > 0, nil
}

func (s *memStore) SaveAll(_ context.Context, points []domain.RatePoint) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if _, ok := s.points[p.Currency][p.Date]; ok {
			return 0, errDuplicate
		}
	}
	for _, p := range points {
		if s.points[p.Currency] == nil {
			s.points[p.Currency] = make(map[time.Time]domain.RatePoint)
		}
		s.points[p.Currency][p.Date] = p
	}
	return len(points), nil
}

type mapCache struct {
	mu      sync.Mutex
	items   map[string]any
	cleared int
}

func newMapCache() *mapCache {
	return &mapCache{items: make(map[string]any)}
}

func (c *mapCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

func (c *mapCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *mapCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]any)
	c.cleared++
}

func (c *mapCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
