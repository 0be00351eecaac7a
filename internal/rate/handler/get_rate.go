package handler

import (
	"fmt"
	"net/http"

	"eurorates/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// GetRate godoc
// @Summary Get rate on a date
// @Description Get the EUR rate of a currency on a given date
// @Tags Exchange rates
// @Produce json
// @Param date path string true "Date in YYYY-MM-DD format" example(2023-10-26)
// @Param currency query string true "3-letter currency code" example(USD)
// @Success 200 {object} RateResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /exchange-rates/{date} [get]
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	rawDate := chi.URLParam(r, "date")
	date, err := domain.ParseDate(rawDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.KindFormat, fmt.Sprintf("date must be in YYYY-MM-DD format, got %q", rawDate))
		return
	}
	currency := currencyParam(r)

	point, err := h.service.GetRate(r.Context(), currency, date)
	if err != nil {
		writeServiceError(w, err, "ups, couldn't get exchange rate this time",
			logrus.Fields{"handler": "GetRate", "currency": currency, "date": rawDate})
		return
	}
	writeJSON(w, http.StatusOK, toRateResponse(point))
}
