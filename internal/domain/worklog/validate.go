package worklog

import (
	"fmt"
	"math"
	"strings"
)

// Normalize trims free-text fields in place.
func Normalize(entries []Entry) {
	for i := range entries {
		entries[i].Date = strings.TrimSpace(entries[i].Date)
		entries[i].WorkerName = strings.TrimSpace(entries[i].WorkerName)
		entries[i].Status = strings.TrimSpace(entries[i].Status)
		entries[i].Farm = strings.TrimSpace(entries[i].Farm)
		entries[i].Details = strings.TrimSpace(entries[i].Details)
	}
}

// Validate checks the fields every stored entry must carry. Amounts are not
// range-checked; payroll treats them permissively.
func Validate(entries []Entry) []FieldIssue {
	var issues []FieldIssue
	if len(entries) == 0 {
		return []FieldIssue{{Field: "entries", Reason: "must contain at least one entry"}}
	}
	for i, entry := range entries {
		prefix := fmt.Sprintf("entries[%d].", i)
		if !ValidDate(entry.Date) {
			issues = append(issues, FieldIssue{Field: prefix + "date", Reason: "must be a valid date in YYYY-MM-DD format"})
		}
		if entry.WorkerName == "" {
			issues = append(issues, FieldIssue{Field: prefix + "workerName", Reason: "is required"})
		}
		if !finite(entry.ProductionQuantity) {
			issues = append(issues, FieldIssue{Field: prefix + "productionQuantity", Reason: "must be a finite number"})
		}
		if !finite(entry.UnitPrice) {
			issues = append(issues, FieldIssue{Field: prefix + "unitPrice", Reason: "must be a finite number"})
		}
	}
	return issues
}

func finite(value *float64) bool {
	return value == nil || (!math.IsNaN(*value) && !math.IsInf(*value, 0))
}
