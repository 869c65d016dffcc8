// Package rules holds the pure field validators shared by the wizards. Every
// rule returns nil or an *Error; none of them read the clock or mutate input.
package rules

import (
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"tenderdesk/internal/lib/i18n"
	"tenderdesk/wizard/contactinfo"
)

const (
	MinPasswordLength = 8
	MinPhoneDigits    = 6
	MaxPhoneDigits    = 15
	AdultAge          = 18
	DeadlineYears     = 2
)

// Error is a translatable validation failure.
type Error struct {
	Key      string         `json:"key"`
	Params   map[string]any `json:"params,omitempty"`
	Fallback string         `json:"-"`
}

func (e *Error) Error() string {
	return i18n.Format(e.Fallback, e.Params)
}

func fail(key, fallback string, params map[string]any) *Error {
	return &Error{Key: "validation." + key, Params: params, Fallback: fallback}
}

var emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(?:\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}$`)

// Required rejects blank values.
func Required(value string) error {
	if strings.TrimSpace(value) == "" {
		return fail("required", "This field is required", nil)
	}
	return nil
}

// Text checks a trimmed value against length bounds. A max of 0 means
// unbounded.
func Text(value string, min, max int) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fail("required", "This field is required", nil)
	}
	n := utf8.RuneCountInString(v)
	if n < min {
		return fail("too_short", "Must be at least {min} characters", map[string]any{"min": min})
	}
	if max > 0 && n > max {
		return fail("too_long", "Must be at most {max} characters", map[string]any{"max": max})
	}
	return nil
}

// Email accepts ASCII local@domain.tld addresses.
func Email(value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fail("required", "This field is required", nil)
	}
	if !emailRe.MatchString(v) {
		return fail("email_invalid", "Enter a valid email address", nil)
	}
	return nil
}

// Digits strips everything but ASCII digits.
func Digits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone counts digits only, so separators and a leading + are ignored.
func Phone(value string) error {
	d := Digits(value)
	if d == "" {
		return fail("required", "This field is required", nil)
	}
	if len(d) < MinPhoneDigits || len(d) > MaxPhoneDigits {
		return fail("phone_invalid", "Phone number must have between {min} and {max} digits",
			map[string]any{"min": MinPhoneDigits, "max": MaxPhoneDigits})
	}
	return nil
}

var countryCodeRe = regexp.MustCompile(`^\+[1-9]\d{0,3}$`)

// CountryCode accepts an international dialling prefix such as +974.
func CountryCode(value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return fail("required", "This field is required", nil)
	}
	if !countryCodeRe.MatchString(v) {
		return fail("country_code_invalid", "Enter a country code such as +974", nil)
	}
	return nil
}

// Password reports only the first unmet requirement, checked in the order
// length, letter, number, symbol.
func Password(value string) error {
	if value == "" {
		return fail("required", "This field is required", nil)
	}
	if utf8.RuneCountInString(value) < MinPasswordLength {
		return fail("password_too_short", "Password must be at least {min} characters",
			map[string]any{"min": MinPasswordLength})
	}
	var letter, digit, symbol bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	if !letter {
		return fail("password_letter", "Password must include a letter", nil)
	}
	if !digit {
		return fail("password_number", "Password must include a number", nil)
	}
	if !symbol {
		return fail("password_symbol", "Password must include a symbol", nil)
	}
	return nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseDate accepts RFC 3339, datetime-local and plain dates. Values without
// a zone are read in loc.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	v := strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Age is the number of whole years between dob and now.
func Age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

// DateOfBirth requires an adult.
func DateOfBirth(value string, now time.Time) error {
	if strings.TrimSpace(value) == "" {
		return fail("required", "This field is required", nil)
	}
	dob, ok := ParseDate(value, now.Location())
	if !ok || dob.After(now) {
		return fail("date_invalid", "Enter a valid date", nil)
	}
	if Age(dob, now) < AdultAge {
		return fail("underage", "You must be at least {age} years old", map[string]any{"age": AdultAge})
	}
	return nil
}

// Deadline must lie strictly after now and no further than years ahead.
func Deadline(value string, now time.Time, years int) error {
	if strings.TrimSpace(value) == "" {
		return fail("required", "This field is required", nil)
	}
	d, ok := ParseDate(value, now.Location())
	if !ok {
		return fail("date_invalid", "Enter a valid date", nil)
	}
	if !d.After(now) {
		return fail("deadline_past", "Deadline must be in the future", nil)
	}
	if d.After(now.AddDate(years, 0, 0)) {
		return fail("deadline_too_far", "Deadline cannot be more than {years} years ahead",
			map[string]any{"years": years})
	}
	return nil
}

// Consent requires an explicit true.
func Consent(agreed bool) error {
	if !agreed {
		return fail("consent_required", "You must agree to the terms", nil)
	}
	return nil
}

// ParseAmount reads a non-empty decimal, ignoring thousands separators.
func ParseAmount(value string) (float64, bool) {
	v := strings.ReplaceAll(strings.TrimSpace(value), ",", "")
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Budget requires a non-negative amount not above max.
func Budget(value string, max float64) error {
	if strings.TrimSpace(value) == "" {
		return fail("required", "This field is required", nil)
	}
	f, ok := ParseAmount(value)
	if !ok {
		return fail("number_invalid", "Enter a valid number", nil)
	}
	if f < 0 {
		return fail("number_negative", "Must not be negative", nil)
	}
	if f > max {
		return fail("number_too_large", "Must not exceed {max}",
			map[string]any{"max": strconv.FormatFloat(max, 'f', -1, 64)})
	}
	return nil
}

// Choice requires one of options.
func Choice(value string, options []string) error {
	if strings.TrimSpace(value) == "" {
		return fail("required", "This field is required", nil)
	}
	if !slices.Contains(options, value) {
		return fail("choice_invalid", "Select one of the available options", nil)
	}
	return nil
}

// FreeText applies the contact policy before the length bounds, so a policy
// violation is what the user sees when both apply.
func FreeText(value string, min, max int, scanner *contactinfo.Scanner) error {
	if scanner == nil {
		scanner = contactinfo.New()
	}
	if d, ok := contactinfo.FirstBlocking(scanner.Scan(value)); ok {
		return fail("contact_info", "Sharing contact details ({type}) is not allowed",
			map[string]any{"type": string(d.Type)})
	}
	return Text(value, min, max)
}
