package utils

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/princerto/rto_backend/config"
	"github.com/bsm/redislock"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/ttacon/libphonenumber"
)

var CountryCode = "IN"

// MobilePrefix is prepended to stored 10-digit mobiles for WhatsApp delivery.
const MobilePrefix = "91"

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}

// WhatsAppNumber renders a stored mobile for the messaging API.
// Numbers are stored as national 10-digit strings; already-prefixed values pass through.
func WhatsAppNumber(mobile string) string {
	m := strings.TrimSpace(mobile)
	m = strings.TrimPrefix(m, "+")
	if strings.HasPrefix(m, MobilePrefix) && len(m) > 10 {
		return m
	}
	if p, err := libphonenumber.Parse(m, CountryCode); err == nil && libphonenumber.IsValidNumber(p) {
		return fmt.Sprintf("%d%d", p.GetCountryCode(), p.GetNationalNumber())
	}
	return MobilePrefix + m
}

// ProcessValidationErrors flattens binding failures into field -> rule pairs
// for the API response. Non-binding errors return nil.
func ProcessValidationErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	errorResponse := make(map[string]string)
	for _, ve := range validationErrors {
		errorResponse[ve.Field()] = ve.Tag()
	}
	return errorResponse
}

func UpperTrim(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeRegistrationNo uppercases and strips all spaces.
func NormalizeRegistrationNo(s string) string {
	return strings.ReplaceAll(UpperTrim(s), " ", "")
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func UniqueSlice[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func ContainsInt(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ParseDecimal converts a raw cell/request value to decimal, stripping the
// thousand separators and stray spaces that show up in imported sheets.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	value = strings.NewReplacer(",", "", " ", "", "₹", "").Replace(value)
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// CleanAmount is the forgiving variant used by bulk import: blank or
// unparseable cells become zero instead of failing the row.
func CleanAmount(value string) decimal.Decimal {
	dec, err := ParseDecimal(value)
	if err != nil {
		return decimal.Zero
	}
	return dec
}

var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"02/01/2006",
	"2006/01/02",
	"02-Jan-2006",
	"2 Jan 2006",
	"2006-01-02 15:04:05",
}

var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// excelSerial converts a raw numeric cell (days since the 1900 epoch) when
// the sheet was not formatted as a date.
func excelSerial(value string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial < 1 {
		return time.Time{}, false
	}
	days := int(serial)
	frac := serial - float64(days)
	t := excelEpoch.AddDate(0, 0, days)
	return t.Add(time.Duration(frac * float64(24*time.Hour))), true
}

// ParseSheetDate normalizes a spreadsheet date cell to a calendar date.
// Handles Excel numeric serials and the string layouts that show up in
// customer sheets; everything else falls back to the given default.
func ParseSheetDate(value string, fallback time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, ok := excelSerial(value); ok {
		return DateOnly(t)
	}
	return fallback
}

var timeLayouts = []string{
	"15:04:05",
	"15:04",
	"3:04 PM",
	"3:04:05 PM",
	"03:04 PM",
}

// ParseSheetTime normalizes a time cell ("11.55 AM" dot form included) to a
// clock time on the zero date; blank or bad cells become midnight.
func ParseSheetTime(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	clock := strings.ToUpper(strings.ReplaceAll(value, ".", ":"))
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, clock); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second
		}
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= 0 {
		frac := serial - float64(int(serial))
		return time.Duration(frac * float64(24*time.Hour)).Round(time.Second)
	}
	return 0
}

// DateOnly truncates to midnight in the location of t.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SweepLock serializes the expiry-notification sweep across instances.
// Returns a release func. Redis being down fails the sweep rather than
// risking duplicate customer messages.
func SweepLock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lock, err := locker.Obtain(ctx, "sweep:"+name, ttl, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, "helper.go", "SweepLock", "Could not obtain sweep lock", name, err)
		return nil, errors.New("another sweep is already running")
	} else if err != nil {
		config.LogError(logger, "helper.go", "SweepLock", "Error obtaining sweep lock", name, err)
		return nil, err
	}
	return func() { _ = lock.Release(ctx) }, nil
}
