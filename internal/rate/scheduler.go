package rate

import (
	"context"
	"sync"
	"time"

	"eurorates/internal/adapters"
	"eurorates/internal/domain"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

type syncer interface {
	SyncAll(ctx context.Context) (domain.SyncReport, error)
}

type cacheInvalidator interface {
	InvalidateCache()
}

type ScheduleConfig struct {
	RatesCron      string
	CurrenciesCron string
	Location       *time.Location
}

// Scheduler runs the rate sync and registry refresh on cron schedules plus a one-time startup pass.
type Scheduler struct {
	registry Registry
	engine   syncer
	store    adapters.RateStore
	queries  cacheInvalidator
	cfg      ScheduleConfig
	// -----
	mu    sync.Mutex
	sched gocron.Scheduler
}

func NewScheduler(registry Registry, engine syncer, store adapters.RateStore, queries cacheInvalidator, cfg ScheduleConfig) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{registry: registry, engine: engine, store: store, queries: queries, cfg: cfg}
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(s.cfg.Location))
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(s.cfg.RatesCron, false),
		gocron.NewTask(s.syncRates),
		gocron.WithName("sync-rates"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	_, err = scheduler.NewJob(
		gocron.CronJob(s.cfg.CurrenciesCron, false),
		gocron.NewTask(s.refreshCurrencies),
		gocron.WithName("refresh-currencies"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	_, err = scheduler.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartImmediately()),
		gocron.NewTask(s.startup),
		gocron.WithName("startup"),
	)
	if err != nil {
		_ = scheduler.Shutdown()
		return err
	}

	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()
	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	sched := s.sched
	s.sched = nil
	s.mu.Unlock()

	if sched == nil {
		return nil
	}
	return sched.Shutdown()
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sched != nil
}

func (s *Scheduler) syncRates(ctx context.Context) {
	report, err := s.engine.SyncAll(ctx)
	if err != nil {
		logrus.WithError(err).WithField("execID", report.ExecID).Error("Rate synchronization job failed")
		return
	}
	s.queries.InvalidateCache()
}

func (s *Scheduler) refreshCurrencies(ctx context.Context) {
	s.registry.Refresh(ctx)
}

// startup refreshes the registry and seeds the store when it holds no rates yet.
func (s *Scheduler) startup(ctx context.Context) {
	s.registry.Refresh(ctx)

	hasRates, err := s.store.HasRates(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to check stored rates on startup")
		return
	}

	if hasRates {
		if stored, listErr := s.store.DistinctCurrencies(ctx); listErr == nil {
			logrus.Infof("Store already holds rates for %d currencies, skipping initial sync", len(stored))
		}
		s.queries.InvalidateCache()
		return
	}

	logrus.Info("Store is empty, running initial rate synchronization")
	s.syncRates(ctx)
}
