package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	valid := []string{"2025-02-17", "2000-01-01", "2099-12-31", "2024-02-29"}
	for _, s := range valid {
		t.Run(s, func(t *testing.T) {
			d, err := ParseDate(s)
			require.NoError(t, err)
			assert.Equal(t, s, d.String())
		})
	}

	invalid := []string{
		"15", "0000-12-12", "25-07-07", "2025-7-7", "2024-13-13", "2024-04-32",
		"40-25", "1999-12-31", "2025/02/17", "2025-02-17 ", "2023-02-29", "2025-04-31",
	}
	for _, s := range invalid {
		t.Run("invalid "+s, func(t *testing.T) {
			_, err := ParseDate(s)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestParseDateEmpty(t *testing.T) {
	_, err := ParseDate("")
	var serr *Error
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "date must be set", serr.Reason)
	assert.Equal(t, "date", serr.Field)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{"00:00", Midnight},
		{"13:25", NewClock(13, 25)},
		{"23:59", EndOfDay},
		{"09:05", 9*60 + 5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.in, got.String())
		})
	}

	for _, s := range []string{"", "13:60", "24:05", "13-05", "13 20", "13", "9:05", "09:5"} {
		_, err := ParseClock(s)
		assert.ErrorIs(t, err, ErrValidation, "input %q", s)
	}
}

func TestClockTextRoundTrip(t *testing.T) {
	var c Clock
	require.NoError(t, c.UnmarshalText([]byte("17:30")))
	text, err := c.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "17:30", string(text))
	assert.Error(t, c.UnmarshalText([]byte("25:00")))
}

func TestValidateSourceURL(t *testing.T) {
	valid := []string{
		DefaultSourceURL,
		"http://example.com",
		"http://example.com/",
		"https://sub.example.co.uk/path?x=1",
		"http://localhost:8080/schedule",
		"http://127.0.0.1:65535",
		"HTTPS://EXAMPLE.COM",
	}
	for _, u := range valid {
		assert.NoError(t, ValidateSourceURL(u), "url %q", u)
	}

	invalid := []string{
		"example.com",
		"www.example.com",
		"ftp://example.com",
		"http://",
		"https://.com",
		"http://example..com",
		"http://-example.com",
		"http://example-.com",
		"http://256.256.256.256",
		"http://1.2.3",
		"http://1.2.3.4.5",
		"http://example.com:abc",
		"http://example.com:123456",
		"http://example.com:0",
		"http://example.com/ space",
		"http://example.com/?query=<>",
		"http://example.com/\n",
		"javascript:alert(1)",
		"data:text/html,<script>alert(1)</script>",
	}
	for _, u := range invalid {
		err := ValidateSourceURL(u)
		require.Error(t, err, "url %q", u)
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.EqualError(t, err, "source URL is invalid")
	}

	assert.EqualError(t, ValidateSourceURL(""), "source URL must be set")
}

func TestValidateDuration(t *testing.T) {
	assert.NoError(t, ValidateDuration(1))
	assert.NoError(t, ValidateDuration(600))
	for _, m := range []int{0, -1} {
		err := ValidateDuration(m)
		assert.ErrorIs(t, err, ErrValidation)
		assert.EqualError(t, err, "duration_minutes must be positive and more than 0")
	}
}

func TestErrorKinds(t *testing.T) {
	rangeErr := &Error{Kind: ErrInvalidRange, Reason: "start time must be before end time"}
	assert.ErrorIs(t, rangeErr, ErrInvalidRange)
	assert.ErrorIs(t, rangeErr, ErrValidation)
	assert.NotErrorIs(t, rangeErr, ErrNoData)

	cause := errors.New("dial tcp: refused")
	wrapped := &Error{Kind: ErrSourceUnavailable, Reason: "fetch schedule", Err: cause}
	assert.ErrorIs(t, wrapped, cause)
	assert.EqualError(t, wrapped, "fetch schedule: dial tcp: refused")
}

func TestParseInterval(t *testing.T) {
	day, from, to, err := ParseInterval("2025-02-15", "12:00", "17:30")
	require.NoError(t, err)
	assert.Equal(t, "2025-02-15", day.String())
	assert.Equal(t, NewClock(12, 0), from)
	assert.Equal(t, NewClock(17, 30), to)

	tests := []struct {
		date, start, end string
		want             string
	}{
		{"2025/02/15", "12:00", "13:00", "invalid date string, must be in format YYYY-MM-DD"},
		{"2025-02-15", "", "13:00", "time_start must be set"},
		{"2025-02-15", "12:00", "1300", "invalid time string, must be in format HH:MM"},
		{"2025-02-15", "13:00", "13:00", "start time must be before end time"},
	}
	for _, tt := range tests {
		_, _, _, err := ParseInterval(tt.date, tt.start, tt.end)
		require.Error(t, err)
		assert.EqualError(t, err, tt.want)
		assert.ErrorIs(t, err, ErrValidation)
	}
}
