package reports

import (
	"sort"

	"farmoffice/internal/domain/worklog"
)

type Totals struct {
	Entries         int     `json:"entries"`
	Absences        int     `json:"absences"`
	Workers         int     `json:"workers"`
	ProductionValue float64 `json:"productionValue"`
}

type DaySummary struct {
	Date string `json:"date"`
	Totals
}

// Totalize counts entries, absences and distinct workers and sums production
// value over non-absence entries.
func Totalize(entries []worklog.Entry) Totals {
	workers := map[string]struct{}{}
	totals := Totals{Entries: len(entries)}
	for _, entry := range entries {
		workers[entry.WorkerName] = struct{}{}
		if entry.IsAbsence() {
			totals.Absences++
			continue
		}
		totals.ProductionValue += entry.Value()
	}
	totals.Workers = len(workers)
	return totals
}

// GroupByDay returns one summary per date present in entries, date ascending.
func GroupByDay(entries []worklog.Entry) []DaySummary {
	byDate := map[string][]worklog.Entry{}
	for _, entry := range entries {
		byDate[entry.Date] = append(byDate[entry.Date], entry)
	}
	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	out := make([]DaySummary, 0, len(dates))
	for _, date := range dates {
		out = append(out, DaySummary{Date: date, Totals: Totalize(byDate[date])})
	}
	return out
}
