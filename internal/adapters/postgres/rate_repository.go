package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"eurorates/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const defaultBatchSize = 1000

type RateRepository struct {
	pool      *pgxpool.Pool
	batchSize int
}

func (r *RateRepository) FindByCurrency(ctx context.Context, currency string) ([]domain.RatePoint, error) {
	const q = `
		select currency, date, rate
		from exchange_rates
		where currency = $1
		order by date desc;
	`

	rows, err := r.pool.Query(ctx, q, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for currency %q: %w", currency, err)
	}
	defer rows.Close()

	points := make([]domain.RatePoint, 0, 256)
	for rows.Next() {
		var p domain.RatePoint
		if err = rows.Scan(&p.Currency, &p.Date, &p.Rate); err != nil {
			return nil, fmt.Errorf("failed to scan rate: %w", err)
		}
		p.Date = domain.Date(p.Date)
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rates: %w", err)
	}
	return points, nil
}

func (r *RateRepository) FindByCurrencyAndDate(ctx context.Context, currency string, date time.Time) (domain.RatePoint, error) {
	const q = `
		select currency, date, rate
		from exchange_rates
		where currency = $1 and date = $2;
	`

	var p domain.RatePoint
	if err := r.pool.QueryRow(ctx, q, currency, domain.Date(date)).Scan(&p.Currency, &p.Date, &p.Rate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RatePoint{}, domain.ErrRateNotFound
		}
		return domain.RatePoint{}, fmt.Errorf("failed to select rate for %q on %s: %w", currency, date.Format(domain.DateLayout), err)
	}
	p.Date = domain.Date(p.Date)
	return p, nil
}

func (r *RateRepository) ExistingDates(ctx context.Context, currency string) (map[time.Time]struct{}, error) {
	const q = `select date from exchange_rates where currency = $1;`

	rows, err := r.pool.Query(ctx, q, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing dates for currency %q: %w", currency, err)
	}
	defer rows.Close()

	dates := make(map[time.Time]struct{}, 256)
	for rows.Next() {
		var d time.Time
		if err = rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan date: %w", err)
		}
		dates[domain.Date(d)] = struct{}{}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dates: %w", err)
	}
	return dates, nil
}

func (r *RateRepository) DistinctCurrencies(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `select distinct currency from exchange_rates order by currency;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct currencies: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect distinct currencies: %w", err)
	}
	return codes, nil
}

func (r *RateRepository) HasRates(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `select exists(select 1 from exchange_rates);`).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check rates existence: %w", err)
	}
	return exists, nil
}

type batchRow struct {
	Currency string          `json:"currency"`
	Date     string          `json:"date"`
	Rate     decimal.Decimal `json:"rate"`
}

// SaveAll inserts points in chunks inside one transaction. It does not skip
// existing (currency, date) rows: a duplicate fails the unique constraint and nothing is saved.
func (r *RateRepository) SaveAll(ctx context.Context, points []domain.RatePoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	const q = `
		insert into exchange_rates (currency, date, rate)
		select ir.currency, ir.date, ir.rate
		from json_to_recordset($1::json) as ir(currency text, date date, rate numeric);
	`

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	inserted := 0
	for start := 0; start < len(points); start += r.batchSize {
		end := min(start+r.batchSize, len(points))

		payload := make([]batchRow, 0, end-start)
		for _, p := range points[start:end] {
			payload = append(payload, batchRow{
				Currency: p.Currency,
				Date:     p.Date.Format(domain.DateLayout),
				Rate:     p.Rate,
			})
		}
		payloadJSON, err := json.Marshal(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal rates batch: %w", err)
		}

		tag, err := tx.Exec(ctx, q, json.RawMessage(payloadJSON))
		if err != nil {
			return 0, fmt.Errorf("failed to insert rates batch [%d:%d]: %w", start, end, err)
		}
		inserted += int(tag.RowsAffected())
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return inserted, nil
}

func NewRateRepository(pool *pgxpool.Pool, batchSize int) *RateRepository {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &RateRepository{pool: pool, batchSize: batchSize}
}
