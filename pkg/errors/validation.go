package errors

import (
	"math"
	"strings"
	"unicode"
)

// MaxItemNameLength bounds item names accepted from recipe files and requests.
const MaxItemNameLength = 128

// reservedChars separate tokens in recipe lines and request specs and can
// therefore never appear inside an item name.
const reservedChars = ";,+#"

// ValidateItemName validates an already-normalized item name.
//
// The rules are:
//   - No empty names
//   - No control characters
//   - None of the separator characters ; , + #
//   - Maximum length of MaxItemNameLength bytes
func ValidateItemName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "item name cannot be empty")
	}

	if len(name) > MaxItemNameLength {
		return New(ErrCodeInvalidInput, "item name too long (max %d characters)", MaxItemNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "item name %q contains control characters", name)
		}
	}

	if i := strings.IndexAny(name, reservedChars); i >= 0 {
		return New(ErrCodeInvalidInput, "item name %q contains reserved character %q", name, name[i])
	}

	return nil
}

// ValidateAmount rejects negative, NaN and infinite rates.
// The expansion engine assumes every amount it receives passed this check.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return New(ErrCodeInvalidInput, "amount must be a finite number")
	}
	if amount < 0 {
		return New(ErrCodeInvalidInput, "amount must not be negative (got %g)", amount)
	}
	return nil
}
