package worklog

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidMonth = errors.New("invalid year or month")

// ValidDate reports whether value is a real calendar date written exactly as
// YYYY-MM-DD, so lexical and chronological order agree.
func ValidDate(value string) bool {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return false
	}
	return parsed.Format(DateLayout) == value
}

// MonthPrefix returns the "YYYY-MM-" prefix shared by every date of the month.
func MonthPrefix(year, month int) (string, error) {
	if year < 1 || year > 9999 || month < 1 || month > 12 {
		return "", ErrInvalidMonth
	}
	return fmt.Sprintf("%04d-%02d-", year, month), nil
}

// MonthRange returns the first and last date of the month.
func MonthRange(year, month int) (string, string, error) {
	if _, err := MonthPrefix(year, month); err != nil {
		return "", "", err
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}
