package handler

import (
	"net/http"

	"eurorates/internal/domain"

	"github.com/sirupsen/logrus"
)

type GetCurrenciesResponse struct {
	Currencies []string `json:"currencies" example:"GBP,JPY,USD"`
}

// GetCurrencies godoc
// @Summary List currencies
// @Description Retrieve all currency codes rates are published for, sorted
// @Tags Currencies
// @Produce json
// @Success 200 {object} GetCurrenciesResponse
// @Failure 500 {object} errorResponse
// @Router /currencies [get]
func (h *Handler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	codes, err := h.currencies.AllCurrencies(r.Context())
	if err != nil {
		msg := "ups, couldn't get currencies this time"
		logrus.WithError(err).WithField("handler", "GetCurrencies").Error(msg)
		writeError(w, http.StatusInternalServerError, domain.KindInternal, msg)
		return
	}
	writeJSON(w, http.StatusOK, GetCurrenciesResponse{Currencies: codes})
}
