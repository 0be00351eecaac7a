package domain

import "time"

// SyncReport aggregates per-currency outcomes of one synchronization run.
type SyncReport struct {
	ExecID           string
	Processed        int
	RatesAdded       int
	Failed           int
	FailedCurrencies []string
	Duration         time.Duration
}
