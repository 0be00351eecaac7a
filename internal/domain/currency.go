package domain

import "regexp"

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// IsCurrencyCode reports whether code is exactly three uppercase ASCII letters.
func IsCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}
