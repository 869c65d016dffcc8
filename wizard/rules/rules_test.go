package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

func key(t *testing.T, err error) string {
	t.Helper()
	if err == nil {
		return ""
	}
	var re *Error
	require.True(t, errors.As(err, &re), "unexpected error type %T", err)
	return re.Key
}

func TestText(t *testing.T) {
	assert.Equal(t, "validation.required", key(t, Text("   ", 2, 10)))
	assert.Equal(t, "validation.too_short", key(t, Text(" a ", 2, 10)))
	assert.Equal(t, "validation.too_long", key(t, Text("abcdefghijk", 2, 10)))
	assert.Equal(t, "", key(t, Text("ليلى", 2, 10)))
	assert.Equal(t, "", key(t, Text("unbounded text", 2, 0)))
	assert.EqualError(t, Text("a", 3, 10), "Must be at least 3 characters")
}

func TestEmail(t *testing.T) {
	for _, ok := range []string{"a@b.co", "layla.al-thani+bids@mail.example.qa"} {
		assert.NoError(t, Email(ok), ok)
	}
	assert.Equal(t, "validation.required", key(t, Email("")))
	for _, bad := range []string{"plain", "a@b", "a@b.c", "a@@b.com", "a b@c.com", "ü@b.com"} {
		assert.Equal(t, "validation.email_invalid", key(t, Email(bad)), bad)
	}
}

func TestPhone(t *testing.T) {
	assert.Equal(t, "validation.required", key(t, Phone("+()-")))
	assert.Equal(t, "validation.phone_invalid", key(t, Phone("12345")))
	assert.Equal(t, "validation.phone_invalid", key(t, Phone("1234567890123456")))
	assert.NoError(t, Phone("123456"))
	assert.NoError(t, Phone("+974 1234-5678"))
	assert.Equal(t, "97412345678", Digits("+974 1234-5678"))
}

func TestCountryCode(t *testing.T) {
	assert.NoError(t, CountryCode("+974"))
	assert.NoError(t, CountryCode(" +1 "))
	assert.Equal(t, "validation.required", key(t, CountryCode("")))
	for _, bad := range []string{"974", "+0", "+12345", "+9a"} {
		assert.Equal(t, "validation.country_code_invalid", key(t, CountryCode(bad)), bad)
	}
}

func TestPasswordReportsFirstFailure(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "validation.required"},
		{"abc", "validation.password_too_short"},
		{"12345678", "validation.password_letter"},
		{"abcdefgh", "validation.password_number"},
		{"abcdefg1", "validation.password_symbol"},
		{"Abcdef1!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, key(t, Password(tt.in)), tt.in)
	}
	assert.EqualError(t, Password("abc"), "Password must be at least 8 characters")
	assert.EqualError(t, Password("abcdefgh"), "Password must include a number")
}

func TestDateOfBirthAgeBoundary(t *testing.T) {
	exactly18 := now.AddDate(-18, 0, 0).Format("2006-01-02")
	dayShort := now.AddDate(-18, 0, 1).Format("2006-01-02")

	assert.NoError(t, DateOfBirth(exactly18, now))
	assert.Equal(t, "validation.underage", key(t, DateOfBirth(dayShort, now)))
	assert.Equal(t, "validation.required", key(t, DateOfBirth("", now)))
	assert.Equal(t, "validation.date_invalid", key(t, DateOfBirth("15/10/2000", now)))
	assert.Equal(t, "validation.date_invalid", key(t, DateOfBirth("2030-01-01", now)))
}

func TestAge(t *testing.T) {
	dob := time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 25, Age(dob, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 26, Age(dob, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDeadline(t *testing.T) {
	assert.Equal(t, "validation.deadline_past", key(t, Deadline("2026-10-01", now, DeadlineYears)))
	assert.Equal(t, "validation.deadline_past", key(t, Deadline(now.Format(time.RFC3339), now, DeadlineYears)))
	assert.NoError(t, Deadline("2026-10-16", now, DeadlineYears))
	assert.NoError(t, Deadline("2026-10-15T13:00", now, DeadlineYears))
	assert.NoError(t, Deadline("2028-10-15", now, DeadlineYears))
	assert.Equal(t, "validation.deadline_too_far", key(t, Deadline("2028-10-16", now, DeadlineYears)))
	assert.Equal(t, "validation.date_invalid", key(t, Deadline("soon", now, DeadlineYears)))
}

func TestConsent(t *testing.T) {
	assert.Equal(t, "validation.consent_required", key(t, Consent(false)))
	assert.NoError(t, Consent(true))
}

func TestBudget(t *testing.T) {
	assert.Equal(t, "validation.required", key(t, Budget(" ", 1000)))
	assert.Equal(t, "validation.number_invalid", key(t, Budget("ten", 1000)))
	assert.Equal(t, "validation.number_invalid", key(t, Budget("NaN", 1000)))
	assert.Equal(t, "validation.number_negative", key(t, Budget("-1", 1000)))
	assert.Equal(t, "validation.number_too_large", key(t, Budget("1,000.01", 1000)))
	assert.NoError(t, Budget("1,000", 1000))
	assert.NoError(t, Budget("0", 1000))
}

func TestChoice(t *testing.T) {
	assert.Equal(t, "validation.required", key(t, Choice("", []string{"a"})))
	assert.Equal(t, "validation.choice_invalid", key(t, Choice("b", []string{"a"})))
	assert.NoError(t, Choice("a", []string{"a"}))
}

func TestFreeTextPolicyTakesPrecedence(t *testing.T) {
	err := FreeText("call me at 555-123-4567", 50, 2000, nil)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "validation.contact_info", re.Key)
	assert.Equal(t, "phone", re.Params["type"])
	assert.EqualError(t, err, "Sharing contact details (phone) is not allowed")

	assert.Equal(t, "validation.too_short", key(t, FreeText("short", 10, 100, nil)))
	assert.NoError(t, FreeText("We need twenty office chairs delivered", 10, 100, nil))
}

func TestRulesArePure(t *testing.T) {
	for i := 0; i < 2; i++ {
		assert.Equal(t, key(t, Password("abcdefgh")), "validation.password_number")
		assert.Equal(t, key(t, DateOfBirth("2010-01-01", now)), "validation.underage")
	}
}
