package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eurorates/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockService struct{ mock.Mock }

func (m *MockService) GetSeries(ctx context.Context, currency string) ([]domain.RatePoint, error) {
	args := m.Called(ctx, currency)
	points, _ := args.Get(0).([]domain.RatePoint)
	return points, args.Error(1)
}

func (m *MockService) GetRate(ctx context.Context, currency string, date time.Time) (domain.RatePoint, error) {
	args := m.Called(ctx, currency, date)
	point, _ := args.Get(0).(domain.RatePoint)
	return point, args.Error(1)
}

func (m *MockService) Convert(ctx context.Context, currency string, amount decimal.NullDecimal, date time.Time) (domain.ConversionResult, error) {
	args := m.Called(ctx, currency, amount, date)
	res, _ := args.Get(0).(domain.ConversionResult)
	return res, args.Error(1)
}

type MockCurrencyLister struct{ mock.Mock }

func (m *MockCurrencyLister) AllCurrencies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	codes, _ := args.Get(0).([]string)
	return codes, args.Error(1)
}

type errorJSON struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errorJSON {
	t.Helper()
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var ej errorJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ej))
	return ej
}

// --- GetCurrencies ---

func TestHandler_GetCurrencies(t *testing.T) {
	lister := new(MockCurrencyLister)
	h := NewRateHandler(new(MockService), lister)

	lister.On("AllCurrencies", mock.Anything).Return([]string{"GBP", "USD"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/currencies", nil)
	rr := httptest.NewRecorder()

	h.GetCurrencies(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var res GetCurrenciesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, []string{"GBP", "USD"}, res.Currencies)
	lister.AssertExpectations(t)
}

func TestHandler_GetCurrencies_InternalError(t *testing.T) {
	lister := new(MockCurrencyLister)
	h := NewRateHandler(new(MockService), lister)

	lister.On("AllCurrencies", mock.Anything).Return(nil, errors.New("db down")).Once()

	rr := httptest.NewRecorder()
	h.GetCurrencies(rr, httptest.NewRequest(http.MethodGet, "/api/v1/currencies", nil))

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	ej := decodeError(t, rr)
	require.Equal(t, domain.KindInternal, ej.Code)
	require.Equal(t, "ups, couldn't get currencies this time", ej.Error)
}

// --- GetSeries ---

func TestHandler_GetSeries_Success(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	svc.On("GetSeries", mock.Anything, "USD").Return([]domain.RatePoint{
		{Currency: "USD", Date: day("2023-01-02"), Rate: decimal.RequireFromString("1.2346")},
		{Currency: "USD", Date: day("2023-01-01"), Rate: decimal.RequireFromString("1.2")},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates?currency=%20usd%20", nil)
	rr := httptest.NewRecorder()

	h.GetSeries(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res GetSeriesResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, "USD", res.Currency)
	require.Equal(t, []RateResponse{
		{Currency: "USD", Date: "2023-01-02", Rate: "1.2346"},
		{Currency: "USD", Date: "2023-01-01", Rate: "1.2000"},
	}, res.Rates)
	svc.AssertExpectations(t)
}

func TestHandler_GetSeries_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "format", err: fmt.Errorf("%w: bad", domain.ErrInvalidFormat), wantStatus: http.StatusBadRequest, wantCode: domain.KindFormat},
		{name: "invalid currency", err: fmt.Errorf("%w: XYZ", domain.ErrInvalidCurrency), wantStatus: http.StatusBadRequest, wantCode: domain.KindInvalidCurrency},
		{name: "no rates", err: fmt.Errorf("%w: USD", domain.ErrNoRatesFound), wantStatus: http.StatusNotFound, wantCode: domain.KindNoRatesFound},
		{name: "internal", err: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: domain.KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			h := NewRateHandler(svc, new(MockCurrencyLister))
			svc.On("GetSeries", mock.Anything, "XYZ").Return(nil, tc.err).Once()

			rr := httptest.NewRecorder()
			h.GetSeries(rr, httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates?currency=xyz", nil))

			require.Equal(t, tc.wantStatus, rr.Code)
			ej := decodeError(t, rr)
			require.Equal(t, tc.wantCode, ej.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_GetSeries_InternalErrorHidesDetails(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))
	svc.On("GetSeries", mock.Anything, "USD").Return(nil, errors.New("pq: password authentication failed")).Once()

	rr := httptest.NewRecorder()
	h.GetSeries(rr, httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates?currency=USD", nil))

	ej := decodeError(t, rr)
	require.Equal(t, "ups, couldn't get exchange rates this time", ej.Error)
}

// --- GetRate ---

func TestHandler_GetRate_Success(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	svc.On("GetRate", mock.Anything, "USD", day("2023-01-01")).
		Return(domain.RatePoint{Currency: "USD", Date: day("2023-01-01"), Rate: decimal.RequireFromString("1.2345")}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/2023-01-01?currency=usd", nil)
	req = withURLParam(req, "date", "2023-01-01")
	rr := httptest.NewRecorder()

	h.GetRate(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res RateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, RateResponse{Currency: "USD", Date: "2023-01-01", Rate: "1.2345"}, res)
	svc.AssertExpectations(t)
}

func TestHandler_GetRate_InvalidDate(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/2023-13-01?currency=USD", nil)
	req = withURLParam(req, "date", "2023-13-01")
	rr := httptest.NewRecorder()

	h.GetRate(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, domain.KindFormat, decodeError(t, rr).Code)
	svc.AssertNotCalled(t, "GetRate", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_GetRate_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "future date", err: fmt.Errorf("%w: 2999-01-01", domain.ErrFutureDate), wantStatus: http.StatusBadRequest, wantCode: domain.KindFutureDate},
		{name: "invalid currency", err: fmt.Errorf("%w: XYZ", domain.ErrInvalidCurrency), wantStatus: http.StatusBadRequest, wantCode: domain.KindInvalidCurrency},
		{name: "not found", err: fmt.Errorf("%w: USD", domain.ErrRateNotFound), wantStatus: http.StatusNotFound, wantCode: domain.KindRateNotFound},
		{name: "internal", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantCode: domain.KindInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := new(MockService)
			h := NewRateHandler(svc, new(MockCurrencyLister))
			svc.On("GetRate", mock.Anything, "USD", day("2023-01-01")).Return(domain.RatePoint{}, tc.err).Once()

			req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/2023-01-01?currency=USD", nil)
			req = withURLParam(req, "date", "2023-01-01")
			rr := httptest.NewRecorder()

			h.GetRate(rr, req)

			require.Equal(t, tc.wantStatus, rr.Code)
			require.Equal(t, tc.wantCode, decodeError(t, rr).Code)
		})
	}
}

// --- Convert ---

func TestHandler_Convert_Success(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	amount := decimal.NewNullDecimal(decimal.RequireFromString("100.00"))
	svc.On("Convert", mock.Anything, "USD", amount, day("2023-01-01")).Return(domain.ConversionResult{
		Currency:        "USD",
		Amount:          amount.Decimal,
		Rate:            decimal.RequireFromString("1.2345"),
		ConvertedAmount: decimal.RequireFromString("81.00"),
		Date:            day("2023-01-01"),
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/convert?currency=USD&amount=100.00&date=2023-01-01", nil)
	rr := httptest.NewRecorder()

	h.Convert(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var res ConvertResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	require.Equal(t, ConvertResponse{
		Currency:        "USD",
		Amount:          "100",
		Rate:            "1.2345",
		ConvertedAmount: "81.00",
		Date:            "2023-01-01",
	}, res)
	svc.AssertExpectations(t)
}

func TestHandler_Convert_UnparsableAmountPassedAsMissing(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	svc.On("Convert", mock.Anything, "USD", decimal.NullDecimal{}, day("2023-01-01")).
		Return(domain.ConversionResult{}, fmt.Errorf("%w: amount is required", domain.ErrInvalidFormat)).Once()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/convert?currency=USD&amount=abc&date=2023-01-01", nil)
	rr := httptest.NewRecorder()

	h.Convert(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, domain.KindFormat, decodeError(t, rr).Code)
	svc.AssertExpectations(t)
}

func TestHandler_Convert_MissingDatePassedAsZero(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	svc.On("Convert", mock.Anything, "USD", mock.Anything, time.Time{}).
		Return(domain.ConversionResult{}, fmt.Errorf("%w: date is required", domain.ErrInvalidFormat)).Once()

	rr := httptest.NewRecorder()
	h.Convert(rr, httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/convert?currency=USD&amount=1", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertExpectations(t)
}

func TestHandler_Convert_InvalidDate(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	rr := httptest.NewRecorder()
	h.Convert(rr, httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/convert?currency=USD&amount=1&date=01-01-2023", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, domain.KindFormat, decodeError(t, rr).Code)
	svc.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Convert_InvalidAmount(t *testing.T) {
	svc := new(MockService)
	h := NewRateHandler(svc, new(MockCurrencyLister))

	amount := decimal.NewNullDecimal(decimal.RequireFromString("-5"))
	svc.On("Convert", mock.Anything, "USD", amount, day("2023-01-01")).
		Return(domain.ConversionResult{}, fmt.Errorf("%w: got -5", domain.ErrInvalidAmount)).Once()

	rr := httptest.NewRecorder()
	h.Convert(rr, httptest.NewRequest(http.MethodGet, "/api/v1/exchange-rates/convert?currency=USD&amount=-5&date=2023-01-01", nil))

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, domain.KindInvalidAmount, decodeError(t, rr).Code)
}
