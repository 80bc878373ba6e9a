// Package validate normalizes and range-checks the raw strings a booking
// request arrives with before the booking engine sees them.
package validate

import (
	"strings"
	"time"

	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/model"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/walkerr"
)

const dottedTimeLayout = "02.01.2006 15:04"
const dottedDateLayout = "02.01.2006"

// NormalizeTime parses either the canonical "2006-01-02 15:04" form or the
// localized "02.01.2006 15:04" form. Times are interpreted as local wall
// clock, the same clock the schedule runs on.
func NormalizeTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(model.TimeLayout, raw, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dottedTimeLayout, raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, &walkerr.FormatError{Msg: "invalid time format, expected YYYY-MM-DD HH:MM or DD.MM.YYYY HH:MM"}
}

// CheckWalkTime validates a walk start instant against now. All violations
// are reported in one combined message instead of stopping at the first.
func CheckWalkTime(raw string, now time.Time) (time.Time, error) {
	t, err := NormalizeTime(raw)
	if err != nil {
		return time.Time{}, err
	}

	var violations []string
	if !t.After(now) {
		violations = append(violations, "walk must start in the future")
	}
	minuteOfDay := t.Hour()*60 + t.Minute()
	if minuteOfDay < model.OpeningHour*60 || minuteOfDay > model.ClosingHour*60 {
		violations = append(violations, "walks run between 07:00 and 23:00")
	}
	if t.Minute() != 0 && t.Minute() != 30 {
		violations = append(violations, "walk must start on the hour or on the half-hour")
	}
	if len(violations) > 0 {
		return time.Time{}, &walkerr.RangeError{Msg: strings.Join(violations, "; ")}
	}
	return t, nil
}

// CheckDate parses a bare date in canonical "2006-01-02" or localized
// "02.01.2006" form, for listing queries.
func CheckDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.ParseInLocation(model.DateLayout, raw, time.Local); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation(dottedDateLayout, raw, time.Local); err == nil {
		return t, nil
	}
	return time.Time{}, &walkerr.FormatError{Msg: "invalid date format, expected YYYY-MM-DD or DD.MM.YYYY"}
}

// NormalizePhone accepts an 11-digit 8xxxxxxxxxx or a 12-character +7 number
// and returns the 11-character canonical form starting with 8.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case len(raw) == 11 && raw[0] == '8':
		return raw, nil
	case len(raw) == 12 && strings.HasPrefix(raw, "+7"):
		return "8" + raw[2:], nil
	case len(raw) < 11 || len(raw) > 12:
		return "", &walkerr.FormatError{Msg: "phone number must be 11 or 12 characters long"}
	default:
		return "", &walkerr.FormatError{Msg: "phone number must start with +7 or 8"}
	}
}
