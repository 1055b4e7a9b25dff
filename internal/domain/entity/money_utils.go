package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/crowdfunding-payments/internal/domain/error"
)

// MaxDecimalPlaces defines the maximum number of decimal places allowed for money amounts
const MaxDecimalPlaces = 2

// ParseAmount validates a string amount and converts it to a decimal
// Accepts plain numbers with at most two decimal places, e.g. "50", "50.5", "50.00".
// Grouping separators and negative values are rejected.
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if len(amount) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	if strings.HasPrefix(amount, "-") {
		return decimal.Zero, fmt.Errorf("%w: negative value", errs.ErrInvalidAmount)
	}

	if strings.Contains(amount, ",") {
		return decimal.Zero, fmt.Errorf("%w: grouping separators are not allowed", errs.ErrInvalidAmount)
	}

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return decimal.Zero, fmt.Errorf("%w: invalid number format", errs.ErrInvalidAmount)
	}
	if len(parts) == 2 && len(parts[1]) > MaxDecimalPlaces {
		return decimal.Zero, fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MaxDecimalPlaces)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, err.Error())
	}

	return value, nil
}

// FormatAmount renders an amount with exactly two decimal places and no grouping
// Example: 1234.5 becomes "1234.50"
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MaxDecimalPlaces)
}

// EnsureTwoDecimalPlaces normalizes a string amount to two decimal places
// Returns an error when the string is not a valid amount.
func EnsureTwoDecimalPlaces(amount string) (string, error) {
	value, err := ParseAmount(amount)
	if err != nil {
		return "", err
	}
	return FormatAmount(value), nil
}
