package rate

import (
	"context"
	"fmt"
	"time"

	"eurorates/internal/domain"

	"github.com/shopspring/decimal"
)

func validateDate(date, now time.Time) error {
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrInvalidFormat)
	}
	if domain.Date(date).After(domain.Date(now)) {
		return fmt.Errorf("%w: %s", domain.ErrFutureDate, date.Format(domain.DateLayout))
	}
	return nil
}

func (s *Service) validateCurrency(ctx context.Context, code string) error {
	if !domain.IsCurrencyCode(code) {
		return fmt.Errorf("%w: currency must be a 3-letter uppercase code, got %q", domain.ErrInvalidFormat, code)
	}
	if code == s.baseCurrency {
		return nil
	}
	ok, err := s.registry.IsValid(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrInvalidCurrency, code)
	}
	return nil
}

// Convert amounts outside these bounds are rejected as malformed.
const (
	maxAmountExponent = 18
	maxAmountDigits   = 36
)

func validateAmount(amount decimal.NullDecimal) error {
	if !amount.Valid {
		return fmt.Errorf("%w: amount is required", domain.ErrInvalidFormat)
	}
	exp := amount.Decimal.Exponent()
	if exp < -maxAmountExponent || exp > maxAmountExponent || amount.Decimal.NumDigits() > maxAmountDigits {
		return fmt.Errorf("%w: amount is out of range", domain.ErrInvalidFormat)
	}
	if !amount.Decimal.IsPositive() {
		return fmt.Errorf("%w: got %s", domain.ErrInvalidAmount, amount.Decimal.String())
	}
	return nil
}
