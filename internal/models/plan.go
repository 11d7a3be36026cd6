package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxCents bounds any amount accepted from a submission ($1,000,000).
const MaxCents int64 = 100_000_000

var plainAmount = regexp.MustCompile(`^[0-9][0-9,]*(\.[0-9]{1,2})?$`)

// splitAmount separates a display amount such as "$1,200/month" into its
// number ("1,200") and billing suffix ("/month").
func splitAmount(amount string) (number, suffix string) {
	s := strings.TrimSpace(amount)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if i := strings.IndexAny(s, "/ "); i > 0 {
		return s[:i], strings.TrimSpace(s[i:])
	}
	return s, ""
}

// ParseCents converts a display amount such as "$240", "240.50" or
// "$1,200" into cents. A billing suffix ("$240/month") is ignored, so the
// result is the amount of one period.
func ParseCents(amount string) (int64, error) {
	number, _ := splitAmount(amount)
	if number == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if !plainAmount.MatchString(number) {
		return 0, fmt.Errorf("invalid amount %q", amount)
	}
	whole, frac, _ := strings.Cut(strings.ReplaceAll(number, ",", ""), ".")
	if len(whole) > 12 {
		return 0, fmt.Errorf("amount %q out of range", amount)
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	var cents int64
	if frac != "" {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, _ = strconv.ParseInt(frac, 10, 64)
	}
	total := dollars*100 + cents
	if total > MaxCents {
		return 0, fmt.Errorf("amount %q out of range", amount)
	}
	return total, nil
}

// IsPlainAmount reports whether amount is a bare number with an optional
// "$" and no billing suffix.
func IsPlainAmount(amount string) bool {
	number, suffix := splitAmount(amount)
	return suffix == "" && plainAmount.MatchString(number)
}

// FormatCents renders cents as a dollar amount, dropping ".00".
func FormatCents(cents int64) string {
	if cents%100 == 0 {
		return fmt.Sprintf("$%d", cents/100)
	}
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// Total is price plus initiation fee. It is "" when the price is not a
// plain amount: a recurring "$240/month" price has no single total.
func (p Plan) Total() string {
	if !IsPlainAmount(p.Price) {
		return ""
	}
	price, err := ParseCents(p.Price)
	if err != nil {
		return ""
	}
	var fee int64
	if strings.TrimSpace(p.InitiationFee) != "" {
		if !IsPlainAmount(p.InitiationFee) {
			return ""
		}
		if fee, err = ParseCents(p.InitiationFee); err != nil {
			return ""
		}
	}
	if price+fee > MaxCents {
		return ""
	}
	return FormatCents(price + fee)
}
