package revenue

import (
	"fmt"
	"strconv"
	"strings"
)

// unitlessDollarCutoff is the point above which a unit-less amount is read as
// an absolute dollar figure. This is a heuristic for poorly matched text, not
// a guarantee: "1500" could mean dollars or thousands.
const unitlessDollarCutoff = 1000

var amountCleaner = strings.NewReplacer(",", "", "$", "", " ", "")

// ParseAmount strips thousands separators and currency symbols and parses the
// remainder as a decimal number.
func ParseAmount(raw string) (float64, error) {
	cleaned := amountCleaner.Replace(strings.TrimSpace(raw))
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("parse amount %q: negative", raw)
	}
	return v, nil
}

// ToMillions rescales amount expressed in unit into millions.
func ToMillions(amount float64, unit string) float64 {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "billion", "bn", "b":
		return amount * 1000
	case "million", "mn", "m":
		return amount
	case "thousand", "k":
		return amount / 1000
	case "":
		if amount > unitlessDollarCutoff {
			return amount / 1_000_000
		}
		return amount
	default:
		return amount
	}
}

// Normalize parses a raw amount token and rescales it into millions.
func Normalize(rawAmount, unit string) (float64, error) {
	v, err := ParseAmount(rawAmount)
	if err != nil {
		return 0, err
	}
	return ToMillions(v, unit), nil
}
