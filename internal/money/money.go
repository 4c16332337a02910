// Package money handles currency-text amounts. Stored amounts are display
// strings with a leading symbol ("$1,234.56"); all arithmetic happens on
// decimal values so comparisons never suffer float drift.
package money

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Value is a fixed-point currency amount.
type Value = decimal.Decimal

// Zero is the zero amount.
var Zero = decimal.Zero

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// Parse converts an amount string into a decimal value. It strips a leading
// currency symbol and thousands separators and accepts either a leading
// minus sign or accounting-style parentheses for negative amounts. Sign is
// preserved; callers decide whether negative values are acceptable.
func Parse(s string) (Value, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}

	negative := false
	if strings.HasPrefix(raw, "(") && strings.HasSuffix(raw, ")") {
		negative = true
		raw = raw[1 : len(raw)-1]
	}
	if strings.HasPrefix(raw, "-") {
		negative = !negative
		raw = raw[1:]
	}
	raw = strings.TrimPrefix(raw, "$")
	raw = strings.ReplaceAll(raw, ",", "")
	raw = strings.TrimSpace(raw)

	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparsable amount %q: %w", s, err)
	}
	if negative {
		v = v.Neg()
	}
	return v, nil
}

// Text renders a value in the stored-amount form: leading symbol, two
// decimal places, no thousands separators. The magnitude keeps its sign so
// Text(Parse(x)) round-trips for positive amounts.
func Text(v Value) string {
	if v.IsNegative() {
		return "-$" + v.Abs().StringFixed(2)
	}
	return "$" + v.StringFixed(2)
}

// Display renders a value for report output with locale-aware digit
// grouping ("$1,234.56"). The digits come from the decimal itself, never
// a float conversion, so large values keep full precision.
func Display(v Value) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}
	fixed := v.StringFixed(2)
	dot := strings.LastIndexByte(fixed, '.')
	whole, frac := fixed[:dot], fixed[dot:]
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		whole = displayPrinter.Sprintf("%v", number.Decimal(n))
	}
	return sign + "$" + whole + frac
}
