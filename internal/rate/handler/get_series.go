package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

type GetSeriesResponse struct {
	Currency string         `json:"currency" example:"USD"`
	Rates    []RateResponse `json:"rates"`
}

// GetSeries godoc
// @Summary Get all rates of a currency
// @Description Get every stored EUR rate of a currency, newest first
// @Tags Exchange rates
// @Produce json
// @Param currency query string true "3-letter currency code" example(USD)
// @Success 200 {object} GetSeriesResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /exchange-rates [get]
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	currency := currencyParam(r)

	points, err := h.service.GetSeries(r.Context(), currency)
	if err != nil {
		writeServiceError(w, err, "ups, couldn't get exchange rates this time",
			logrus.Fields{"handler": "GetSeries", "currency": currency})
		return
	}

	res := GetSeriesResponse{Currency: currency, Rates: make([]RateResponse, 0, len(points))}
	for _, p := range points {
		res.Rates = append(res.Rates, toRateResponse(p))
	}
	writeJSON(w, http.StatusOK, res)
}
