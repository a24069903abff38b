package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWhatsAppNumber(t *testing.T) {
	cases := []struct {
		in       string
		expected string
	}{
		{"9876543210", "919876543210"},
		{"919876543210", "919876543210"},
		{"+919876543210", "919876543210"},
		{" 9876543210 ", "919876543210"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, WhatsAppNumber(tc.in), "WhatsAppNumber(%q)", tc.in)
	}
}

func TestNormalizeRegistrationNo(t *testing.T) {
	assert.Equal(t, "MH12AB1234", NormalizeRegistrationNo(" mh 12 ab 1234 "))
	assert.Equal(t, "UP32XY9999", NormalizeRegistrationNo("up32xy9999"))
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal("1,250.50")
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("1250.5")))

	d, err = ParseDecimal("₹ 500")
	assert.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("500")))

	_, err = ParseDecimal("")
	assert.Error(t, err)

	_, err = ParseDecimal("abc")
	assert.Error(t, err)
}

func TestCleanAmount_BadCellsBecomeZero(t *testing.T) {
	assert.True(t, CleanAmount("").IsZero())
	assert.True(t, CleanAmount("n/a").IsZero())
	assert.True(t, CleanAmount("2,000").Equal(decimal.RequireFromString("2000")))
}

func TestParseSheetDate(t *testing.T) {
	fallback := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		in       string
		expected time.Time
	}{
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15-03-2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15/03/2026", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		// Excel serial for 2024-01-01.
		{"45292", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"", fallback},
		{"not a date", fallback},
	}
	for _, tc := range cases {
		got := ParseSheetDate(tc.in, fallback)
		assert.True(t, got.Equal(tc.expected), "ParseSheetDate(%q) = %s, want %s", tc.in, got, tc.expected)
	}
}

func TestParseSheetTime(t *testing.T) {
	cases := []struct {
		in       string
		expected time.Duration
	}{
		{"11.55 AM", 11*time.Hour + 55*time.Minute},
		{"03:04 PM", 15*time.Hour + 4*time.Minute},
		{"15:04", 15*time.Hour + 4*time.Minute},
		{"15:04:30", 15*time.Hour + 4*time.Minute + 30*time.Second},
		// Excel fraction for 11:55 AM.
		{"0.496527777778", 11*time.Hour + 55*time.Minute},
		{"", 0},
		{"noon", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.expected, ParseSheetTime(tc.in), "ParseSheetTime(%q)", tc.in)
	}
}

func TestUniqueSlice(t *testing.T) {
	assert.Equal(t, []int{3, 1, 2}, UniqueSlice([]int{3, 1, 3, 2, 1}))
	assert.Empty(t, UniqueSlice([]string{}))
}

func TestContainsInt(t *testing.T) {
	assert.True(t, ContainsInt([]int{1, 5, 9}, 5))
	assert.False(t, ContainsInt([]int{1, 5, 9}, 4))
	assert.False(t, ContainsInt(nil, 1))
}
