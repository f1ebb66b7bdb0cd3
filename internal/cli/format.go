// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Formatter renders money and counts for one locale and currency.
type Formatter struct {
	tag     language.Tag
	unit    currency.Unit
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a formatter from a BCP 47 locale (e.g. "en-AU") and an
// ISO 4217 currency code (e.g. "AUD").
func NewFormatter(locale, code string) (*Formatter, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parsing locale %q: %w", locale, err)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parsing currency %q: %w", code, err)
	}

	p := message.NewPrinter(tag)
	return &Formatter{
		tag:     tag,
		unit:    unit,
		printer: p,
		symbol:  strings.TrimSpace(p.Sprint(currency.NarrowSymbol(unit))),
	}, nil
}

// Currency returns the ISO code this formatter renders.
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// Money formats a currency amount. Amounts of 1,000 and up drop the cents.
func (f *Formatter) Money(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	scale := 2
	if v >= 1000 {
		scale = 0
		v = math.Round(v)
	}
	return sign + f.symbol + f.printer.Sprint(number.Decimal(v, number.Scale(scale)))
}

// MoneyCompact formats large amounts with K/M suffixes for charts and cards.
// e.g., 1234 -> "$1.2K", 800000 -> "$800.0K", 1500000 -> "$1.5M"
func (f *Formatter) MoneyCompact(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000:
		return sign + f.symbol + f.printer.Sprintf("%.1fM", abs/1_000_000)
	case abs >= 1_000:
		return sign + f.symbol + f.printer.Sprintf("%.1fK", abs/1_000)
	default:
		return sign + f.symbol + f.printer.Sprintf("%.0f", abs)
	}
}

// Count adds locale group separators to an integer.
// e.g., 1234567 -> "1,234,567"
func (f *Formatter) Count(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Label turns an identifier like "bank_transfer" into "Bank Transfer".
func (f *Formatter) Label(s string) string {
	return cases.Title(f.tag).String(strings.ReplaceAll(s, "_", " "))
}

var (
	defaultMu        sync.RWMutex
	defaultFormatter = mustFormatter("en-AU", "AUD")
)

func mustFormatter(locale, code string) *Formatter {
	f, err := NewFormatter(locale, code)
	if err != nil {
		panic(err)
	}
	return f
}

// SetDefault replaces the formatter used by the package-level helpers.
func SetDefault(f *Formatter) {
	if f == nil {
		return
	}
	defaultMu.Lock()
	defaultFormatter = f
	defaultMu.Unlock()
}

// Default returns the formatter used by the package-level helpers.
func Default() *Formatter {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultFormatter
}

// FormatMoney formats an amount with the default formatter.
func FormatMoney(v float64) string { return Default().Money(v) }

// FormatMoneyCompact formats an amount with K/M suffixes using the default formatter.
func FormatMoneyCompact(v float64) string { return Default().MoneyCompact(v) }

// FormatNumber adds group separators to an integer using the default formatter.
func FormatNumber(n int) string { return Default().Count(n) }

// FormatLabel title-cases an identifier using the default formatter.
func FormatLabel(s string) string { return Default().Label(s) }

// FormatPercent formats a whole-number funding percentage.
func FormatPercent(pct int) string {
	return fmt.Sprintf("%d%%", pct)
}

// FormatShare formats a 0-100 float share with one decimal.
func FormatShare(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatDaysLeft describes a campaign's remaining time.
func FormatDaysLeft(days int) string {
	switch {
	case days <= 0:
		return "Ended"
	case days == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}

// FormatDate renders a calendar date, or "-" when unset.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("02 Jan 2006")
}

// FormatDelta formats a money delta with sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta)
	}
	return "-" + FormatMoney(-delta)
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
