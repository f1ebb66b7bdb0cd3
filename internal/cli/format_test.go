package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanyini-os/kanyini/internal/model"
)

func TestNewFormatter_Rejects(t *testing.T) {
	_, err := NewFormatter("en-AU", "DOLLARS")
	require.Error(t, err)

	_, err = NewFormatter("not a locale!!", "AUD")
	require.Error(t, err)
}

func TestFormatterMoney(t *testing.T) {
	f, err := NewFormatter("en-AU", "AUD")
	require.NoError(t, err)
	assert.Equal(t, "AUD", f.Currency())

	big := f.Money(1_234_567.4)
	assert.Contains(t, big, "1,234,567")
	assert.NotContains(t, big, ".4", "cents dropped for large amounts")

	small := f.Money(42.5)
	assert.Contains(t, small, "42.50")

	neg := f.Money(-10)
	assert.True(t, strings.HasPrefix(neg, "-"), "got %q", neg)
}

func TestFormatterCountAndLabel(t *testing.T) {
	f, err := NewFormatter("en-AU", "AUD")
	require.NoError(t, err)

	assert.Equal(t, "1,234,567", f.Count(1234567))
	assert.Equal(t, "999", f.Count(999))
	assert.Equal(t, "Bank Transfer", f.Label(model.MethodBankTransfer))
	assert.Equal(t, "Paypal", f.Label(model.MethodPayPal))
}

func TestFormatterMoneyCompact(t *testing.T) {
	f, err := NewFormatter("en-AU", "AUD")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(f.MoneyCompact(1_500_000), "1.5M"))
	assert.True(t, strings.HasSuffix(f.MoneyCompact(800_000), "800.0K"))
	assert.True(t, strings.HasSuffix(f.MoneyCompact(12), "12"))
}

func TestFormatDaysLeft(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{5, "5 days left"},
		{1, "1 day left"},
		{0, "Ended"},
		{-3, "Ended"},
	}
	for _, tt := range tests {
		if got := FormatDaysLeft(tt.days); got != tt.want {
			t.Errorf("FormatDaysLeft(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestFormatPercentAndDate(t *testing.T) {
	assert.Equal(t, "80%", FormatPercent(80))
	assert.Equal(t, "12.5%", FormatShare(12.5))
	assert.Equal(t, "-", FormatDate(time.Time{}))
	assert.Equal(t, "01 Mar 2026", FormatDate(time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)))
}

func TestSetDefault(t *testing.T) {
	orig := Default()
	t.Cleanup(func() { SetDefault(orig) })

	nzd, err := NewFormatter("en-NZ", "NZD")
	require.NoError(t, err)
	SetDefault(nzd)
	assert.Equal(t, "NZD", Default().Currency())

	SetDefault(nil)
	assert.Equal(t, "NZD", Default().Currency(), "nil is ignored")
}
