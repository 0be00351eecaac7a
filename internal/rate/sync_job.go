package rate

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"eurorates/internal/adapters"
	"eurorates/internal/domain"
	"eurorates/internal/metrics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultNumWorkers        = 5
	defaultPerRequestTimeout = 60 * time.Second
)

type syncOutcome struct {
	Currency string
	Added    int
	Stage    string
	Err      error
}

// SyncEngine pulls rate series for every registered currency and stores the dates not yet known.
type SyncEngine struct {
	registry          Registry
	source            adapters.RateSource
	store             adapters.RateStore
	metrics           *metrics.Metrics
	numWorkers        int
	perRequestTimeout time.Duration
}

func NewSyncEngine(registry Registry, source adapters.RateSource, store adapters.RateStore, m *metrics.Metrics, numWorkers int, perRequestTimeout time.Duration) *SyncEngine {
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}
	if perRequestTimeout <= 0 {
		perRequestTimeout = defaultPerRequestTimeout
	}
	return &SyncEngine{
		registry:          registry,
		source:            source,
		store:             store,
		metrics:           m,
		numWorkers:        numWorkers,
		perRequestTimeout: perRequestTimeout,
	}
}

// SyncAll runs FETCH -> DIFF -> PERSIST for every currency in the registry.
// A failing currency is recorded in the report and never stops the others;
// an error is returned only when the currency list itself can't be read.
func (e *SyncEngine) SyncAll(ctx context.Context) (domain.SyncReport, error) {
	started := time.Now()
	report := domain.SyncReport{ExecID: uuid.NewString()}
	log := logrus.WithField("execID", report.ExecID)

	currencies, err := e.registry.AllCurrencies(ctx)
	if err != nil {
		e.metrics.SyncRunsTotal.WithLabelValues("failure").Inc()
		return report, fmt.Errorf("failed to get currencies: %w", err)
	}

	if len(currencies) == 0 {
		log.Info("No currencies registered, nothing to synchronize")
		e.metrics.SyncRunsTotal.WithLabelValues("success").Inc()
		return report, nil
	}

	log.Infof("Synchronizing rates for %d currencies", len(currencies))

	for outcome := range e.processInParallel(ctx, currencies) {
		report.Processed++
		if outcome.Err != nil {
			report.Failed++
			report.FailedCurrencies = append(report.FailedCurrencies, outcome.Currency)
			e.metrics.SyncCurrencyFailures.WithLabelValues(outcome.Stage).Inc()
			log.WithError(outcome.Err).WithFields(logrus.Fields{"currency": outcome.Currency, "stage": outcome.Stage}).
				Warn("Currency wasn't synchronized, it'll be retried on the next run")
			continue
		}
		report.RatesAdded += outcome.Added
	}
	slices.Sort(report.FailedCurrencies)

	report.Duration = time.Since(started)
	e.metrics.SyncRunsTotal.WithLabelValues("success").Inc()
	e.metrics.SyncRatesAddedTotal.Add(float64(report.RatesAdded))
	e.metrics.SyncDuration.Observe(report.Duration.Seconds())

	log.Infof("Synchronization finished: %d processed, %d rates added, %d failed in %s",
		report.Processed, report.RatesAdded, report.Failed, report.Duration.Round(time.Millisecond))
	return report, nil
}

// processInParallel feeds currencies to a fixed pool of workers and returns their outcomes.
func (e *SyncEngine) processInParallel(ctx context.Context, currencies []string) <-chan syncOutcome {
	workQueue := make(chan string, len(currencies))
	for _, currency := range currencies {
		workQueue <- currency
	}
	close(workQueue)

	outcomes := make(chan syncOutcome, len(currencies))

	var wg sync.WaitGroup
	for i := 0; i < e.numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.runWorker(ctx, workerID, workQueue, outcomes)
		}(i)
	}

	wg.Wait()
	close(outcomes)
	return outcomes
}

func (e *SyncEngine) runWorker(ctx context.Context, workerID int, workQueue <-chan string, outcomes chan<- syncOutcome) {
	for {
		select {
		case <-ctx.Done():
			return
		case currency, ok := <-workQueue:
			if !ok {
				return
			}
			logrus.Debugf("Worker %d synchronizing %s", workerID, currency)
			outcomes <- e.syncCurrency(ctx, currency)
		}
	}
}

func (e *SyncEngine) syncCurrency(ctx context.Context, currency string) syncOutcome {
	// FETCH
	reqCtx, cancel := context.WithTimeout(ctx, e.perRequestTimeout)
	fetched, err := e.source.FetchRates(reqCtx, currency)
	cancel()
	if err != nil {
		return syncOutcome{Currency: currency, Stage: metrics.StageFetch, Err: fmt.Errorf("%w: %s: %w", domain.ErrSyncFetch, currency, err)}
	}

	// DIFF
	existing, err := e.store.ExistingDates(ctx, currency)
	if err != nil {
		return syncOutcome{Currency: currency, Stage: metrics.StageDiff, Err: fmt.Errorf("%w: %s: %w", domain.ErrSyncPersist, currency, err)}
	}
	missing := missingPoints(currency, fetched, existing)
	if len(missing) == 0 {
		return syncOutcome{Currency: currency}
	}

	// PERSIST
	added, err := e.store.SaveAll(ctx, missing)
	if err != nil {
		return syncOutcome{Currency: currency, Stage: metrics.StagePersist, Err: fmt.Errorf("%w: %s: %w", domain.ErrSyncPersist, currency, err)}
	}
	return syncOutcome{Currency: currency, Added: added}
}

// missingPoints keeps the fetched entries whose date isn't stored yet, one per date.
func missingPoints(currency string, fetched []domain.SourceRate, existing map[time.Time]struct{}) []domain.RatePoint {
	points := make([]domain.RatePoint, 0, len(fetched))
	seen := make(map[time.Time]struct{}, len(fetched))
	for _, sr := range fetched {
		date := domain.Date(sr.Date)
		if _, ok := existing[date]; ok {
			continue
		}
		if _, ok := seen[date]; ok {
			continue
		}
		seen[date] = struct{}{}
		points = append(points, domain.RatePoint{Currency: currency, Date: date, Rate: sr.Rate})
	}
	return points
}
