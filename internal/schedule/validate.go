package schedule

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"

	"cloud.google.com/go/civil"
)

// DefaultSourceURL is the public test schedule endpoint.
const DefaultSourceURL = "https://ofc-test-01.tspb.su/test-task/"

var (
	datePattern  = regexp.MustCompile(`^20\d{2}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
	ipv4Pattern  = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)

	sourceURLPattern = regexp.MustCompile(`(?i)^https?://` +
		`((?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}\.?|localhost|\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::(\d+))?` +
		`(?:/?|[/?][^\s<>]+)$`)
)

// ParseDate validates a YYYY-MM-DD string in the 2000s and returns the
// calendar date it names.
func ParseDate(s string) (civil.Date, error) {
	return parseDateField("date", s)
}

func parseDateField(field, s string) (civil.Date, error) {
	if s == "" {
		return civil.Date{}, validationError(field, field+" must be set")
	}
	if !datePattern.MatchString(s) {
		return civil.Date{}, validationError(field, "invalid date string, must be in format YYYY-MM-DD")
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, validationError(field, fmt.Sprintf("invalid date %q: not a calendar day", s))
	}
	return d, nil
}

// ParseInterval validates the arguments of an availability check: a date and
// a time_start before time_end.
func ParseInterval(date, start, end string) (civil.Date, Clock, Clock, error) {
	day, err := ParseDate(date)
	if err != nil {
		return civil.Date{}, 0, 0, err
	}
	from, err := parseClockField("time_start", start)
	if err != nil {
		return civil.Date{}, 0, 0, err
	}
	to, err := parseClockField("time_end", end)
	if err != nil {
		return civil.Date{}, 0, 0, err
	}
	if from >= to {
		return civil.Date{}, 0, 0, errStartAfterEnd
	}
	return day, from, to, nil
}

// ParseClock validates a zero padded 24h HH:MM string.
func ParseClock(s string) (Clock, error) {
	return parseClockField("time", s)
}

func parseClockField(field, s string) (Clock, error) {
	if s == "" {
		return 0, validationError(field, field+" must be set")
	}
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, validationError(field, "invalid time string, must be in format HH:MM")
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	return NewClock(hour, minute), nil
}

// ValidateSourceURL checks that raw is an absolute http(s) URL pointing at a
// DNS name, localhost or an IPv4 address.
func ValidateSourceURL(raw string) error {
	if raw == "" {
		return configurationError("source URL must be set")
	}
	m := sourceURLPattern.FindStringSubmatch(raw)
	if m == nil {
		return configurationError("source URL is invalid")
	}
	if oct := ipv4Pattern.FindStringSubmatch(m[1]); oct != nil {
		for _, part := range oct[1:] {
			if n, _ := strconv.Atoi(part); n > 255 {
				return configurationError("source URL is invalid")
			}
		}
	}
	if m[2] != "" {
		port, err := strconv.Atoi(m[2])
		if err != nil || port < 1 || port > 65535 {
			return configurationError("source URL is invalid")
		}
	}
	if _, err := url.Parse(raw); err != nil {
		return &Error{Kind: ErrConfiguration, Field: "source_url", Reason: "source URL is invalid", Err: err}
	}
	return nil
}

// ValidateDuration checks a requested slot length in minutes.
func ValidateDuration(minutes int) error {
	if minutes <= 0 {
		return validationError("duration_minutes", "duration_minutes must be positive and more than 0")
	}
	return nil
}
