package shared

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"farmoffice/internal/transport/http/api"
)

const (
	reasonRequired = "is required"
	reasonDay      = "must be a valid date in YYYY-MM-DD format"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects field issues for one request. Issues come back ordered
// by field so clients can diff responses.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	if v == nil || reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// OneOf accepts an empty value or an exact, case-sensitive member of allowed.
// Roles and categories are stored verbatim, so "admin" is not "Admin".
func (v *Validator) OneOf(field, value, reason string, allowed ...string) {
	if value == "" || slices.Contains(allowed, value) {
		return
	}
	v.Add(field, reason)
}

func (v *Validator) NonNegative(field string, value float64) {
	if value < 0 {
		v.Add(field, "must be zero or greater")
	}
}

// Day parses a YYYY-MM-DD calendar date, recording an issue when raw is
// missing or malformed.
func (v *Validator) Day(field, raw string) (time.Time, bool) {
	parsed, err := ParseDate(strings.TrimSpace(raw))
	if err != nil || parsed.IsZero() {
		v.Add(field, reasonDay)
		return time.Time{}, false
	}
	return parsed, true
}

// DayRange checks the startDate/endDate pair shared by the work-log and
// payroll queries: both present, both calendar dates, start not after end.
func (v *Validator) DayRange(startDate, endDate string) {
	ok := true
	for _, field := range []struct{ name, value string }{
		{name: "startDate", value: startDate},
		{name: "endDate", value: endDate},
	} {
		if field.value == "" {
			v.Add(field.name, reasonRequired)
			ok = false
			continue
		}
		if parsed, err := ParseDate(field.value); err != nil || parsed.Format(dateLayout) != field.value {
			v.Add(field.name, reasonDay)
			ok = false
		}
	}
	if ok && startDate > endDate {
		v.Add("startDate", "must be on or before endDate")
	}
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if !v.HasIssues() {
		return nil
	}
	out := slices.Clone(v.issues)
	slices.SortStableFunc(out, func(a, b ValidationIssue) int {
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return strings.Compare(a.Reason, b.Reason)
	})
	return out
}

// Reject writes a 400 listing every issue and reports whether it did.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}
