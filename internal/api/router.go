package api

import (
	"net/http"

	_ "eurorates/docs"
	"eurorates/internal/rate/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swagger "github.com/swaggo/http-swagger"
	"github.com/ulule/limiter/v3"
	limiterhttp "github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

func NewRouter(rateHandler *handler.Handler, ipLimiter *limiter.Limiter, gatherer prometheus.Gatherer) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(limiterhttp.NewMiddleware(ipLimiter).Handler)

		r.Get("/currencies", rateHandler.GetCurrencies)
		r.Get("/exchange-rates", rateHandler.GetSeries)
		r.Get("/exchange-rates/convert", rateHandler.Convert)
		r.Get("/exchange-rates/{date}", rateHandler.GetRate)
	})
	return router
}

// NewIPLimiter builds an in-memory per-IP limiter from a formatted rate such as "100-M".
func NewIPLimiter(formattedRate string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, err
	}
	return limiter.New(memory.NewStore(), rate), nil
}
