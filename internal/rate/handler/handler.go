package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"eurorates/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type RateService interface {
	GetSeries(ctx context.Context, currency string) ([]domain.RatePoint, error)
	GetRate(ctx context.Context, currency string, date time.Time) (domain.RatePoint, error)
	Convert(ctx context.Context, currency string, amount decimal.NullDecimal, date time.Time) (domain.ConversionResult, error)
}

type CurrencyLister interface {
	AllCurrencies(ctx context.Context) ([]string, error)
}

type Handler struct {
	service    RateService
	currencies CurrencyLister
}

func NewRateHandler(service RateService, currencies CurrencyLister) *Handler {
	return &Handler{service: service, currencies: currencies}
}

type errorResponse struct {
	Code  string `json:"code" example:"INVALID_CURRENCY"`
	Error string `json:"error" example:"invalid currency: XYZ"`
}

type RateResponse struct {
	Currency string `json:"currency" example:"USD"`
	Date     string `json:"date" example:"2023-10-26"`
	Rate     string `json:"rate" example:"1.0562"`
}

func toRateResponse(p domain.RatePoint) RateResponse {
	return RateResponse{
		Currency: p.Currency,
		Date:     p.Date.Format(domain.DateLayout),
		Rate:     p.Rate.StringFixed(4),
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, code, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{Code: code, Error: errorMsg})
}

// writeServiceError maps err to its status code; unexpected errors are logged and hidden behind internalMsg.
func writeServiceError(w http.ResponseWriter, err error, internalMsg string, fields logrus.Fields) {
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindFormat, domain.KindFutureDate, domain.KindInvalidCurrency, domain.KindInvalidAmount:
		writeError(w, http.StatusBadRequest, kind, err.Error())
	case domain.KindRateNotFound, domain.KindNoRatesFound:
		writeError(w, http.StatusNotFound, kind, err.Error())
	default:
		logrus.WithError(err).WithFields(fields).Error(internalMsg)
		writeError(w, http.StatusInternalServerError, domain.KindInternal, internalMsg)
	}
}

func currencyParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("currency")))
}

// parseDateParam returns the zero time for an empty value so presence is checked by the service.
func parseDateParam(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return domain.ParseDate(raw)
}
