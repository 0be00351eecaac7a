package rate

import "context"

// Registry is the view of the currency registry the rate package depends on.
type Registry interface {
	Refresh(ctx context.Context) int
	AllCurrencies(ctx context.Context) ([]string, error)
	IsValid(ctx context.Context, code string) (bool, error)
}
