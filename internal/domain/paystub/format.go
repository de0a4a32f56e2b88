package paystub

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// Placeholder is shown for blank text fields
	Placeholder = "N/A"
	// InvalidDate is shown for a non-empty date that cannot be parsed
	InvalidDate = "Invalid Date"

	currencySymbol = "$"
	currencyPlaces = 2
	isoDateLayout  = "2006-01-02"

	// Amounts longer than maxAmountLength or scaled beyond 10^maxAmountExponent
	// are not money. Formatting them would expand the exponent into digits.
	maxAmountLength   = 64
	maxAmountExponent = 30
)

// dateTimeLayouts are accepted when a date field carries a time of day.
// The calendar date printed is the one written in the value itself.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseAmount interprets raw text as a decimal amount.
// Empty, non-numeric or absurdly large text is zero.
func ParseAmount(amount string) decimal.Decimal {
	s := strings.TrimSpace(amount)
	if s == "" || len(s) > maxAmountLength {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	switch exp := d.Exponent(); {
	case exp > maxAmountExponent:
		return decimal.Zero
	case exp < -(maxAmountLength + currencyPlaces + 1):
		// Below half a cent for any coefficient that fits maxAmountLength
		return decimal.Zero
	}
	return d
}

// FormatCurrency formats raw amount text as US dollars with exactly two
// fractional digits and thousands separators.
// Example: "1234.5" -> "$1,234.50", "" -> "$0.00", "abc" -> "$0.00"
func FormatCurrency(amount string) string {
	return FormatMoney(ParseAmount(amount))
}

// FormatMoney formats a decimal as US dollars, rounding half away from zero.
func FormatMoney(d decimal.Decimal) string {
	d = d.Round(currencyPlaces)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.Split(d.StringFixed(currencyPlaces), ".")
	intPart := parts[0]
	decPart := "00"
	if len(parts) > 1 {
		decPart = parts[1]
	}

	var grouped strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteRune(',')
		}
		grouped.WriteRune(c)
	}

	return sign + currencySymbol + grouped.String() + "." + decPart
}

// ParseDate interprets a date-only value as a calendar date.
// The returned time is midnight UTC of the literal year/month/day, so its
// components never depend on time.Local.
func ParseDate(value string) (time.Time, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(isoDateLayout, s); err == nil {
		return t, true
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a date-only value as "Jan 5, 2024".
// Empty input renders as "", unparseable input as "Invalid Date".
func FormatDate(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	t, ok := ParseDate(value)
	if !ok {
		return InvalidDate
	}
	return fmt.Sprintf("%s %d, %d", t.Format("Jan"), t.Day(), t.Year())
}

// FormatPeriod renders a pay period as "<start> - <end>"
func FormatPeriod(start, end string) string {
	return FormatDate(start) + " - " + FormatDate(end)
}

// DisplayText returns s, or the N/A placeholder when s is blank
func DisplayText(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	return s
}
