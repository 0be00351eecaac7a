package handler

import (
	"fmt"
	"net/http"
	"strings"

	"eurorates/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type ConvertResponse struct {
	Currency        string `json:"currency" example:"USD"`
	Amount          string `json:"amount" example:"100.50"`
	Rate            string `json:"rate" example:"1.0562"`
	ConvertedAmount string `json:"converted_amount" example:"95.15"`
	Date            string `json:"date" example:"2023-10-26"`
}

// Convert godoc
// @Summary Convert to EUR
// @Description Convert an amount of a foreign currency into EUR using the rate of a given date
// @Tags Exchange rates
// @Produce json
// @Param currency query string true "3-letter currency code" example(USD)
// @Param amount query string true "Amount to convert, strictly positive" example(100.50)
// @Param date query string true "Date in YYYY-MM-DD format" example(2023-10-26)
// @Success 200 {object} ConvertResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /exchange-rates/convert [get]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	rawDate := query.Get("date")
	date, err := parseDateParam(rawDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.KindFormat, fmt.Sprintf("date must be in YYYY-MM-DD format, got %q", rawDate))
		return
	}
	currency := currencyParam(r)

	// An unparsable amount is reported as missing so currency errors still take precedence.
	var amount decimal.NullDecimal
	if parsed, parseErr := decimal.NewFromString(strings.TrimSpace(query.Get("amount"))); parseErr == nil {
		amount = decimal.NewNullDecimal(parsed)
	}

	res, err := h.service.Convert(r.Context(), currency, amount, date)
	if err != nil {
		writeServiceError(w, err, "ups, couldn't convert amount this time",
			logrus.Fields{"handler": "Convert", "currency": currency, "date": rawDate})
		return
	}

	writeJSON(w, http.StatusOK, ConvertResponse{
		Currency:        res.Currency,
		Amount:          res.Amount.String(),
		Rate:            res.Rate.StringFixed(4),
		ConvertedAmount: res.ConvertedAmount.StringFixed(2),
		Date:            res.Date.Format(domain.DateLayout),
	})
}
