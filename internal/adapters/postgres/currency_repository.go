package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CurrencyRepository struct {
	pool *pgxpool.Pool
}

// UpsertCurrencies inserts unknown codes and leaves existing ones untouched.
func (r *CurrencyRepository) UpsertCurrencies(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	const q = `
		insert into currencies (code)
		select unnest($1::text[])
		on conflict (code) do nothing;
	`
	if _, err := r.pool.Exec(ctx, q, codes); err != nil {
		return fmt.Errorf("failed to upsert %d currencies: %w", len(codes), err)
	}
	return nil
}

func (r *CurrencyRepository) ListCurrencies(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `select code from currencies order by code;`)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect currencies: %w", err)
	}
	return codes, nil
}

func (r *CurrencyRepository) CurrencyExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `select exists(select 1 from currencies where code = $1);`, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check currency %q: %w", code, err)
	}
	return exists, nil
}

func NewCurrencyRepository(pool *pgxpool.Pool) *CurrencyRepository {
	return &CurrencyRepository{pool: pool}
}
