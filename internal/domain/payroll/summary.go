package payroll

import "sort"

type WorkerSummary struct {
	WorkerName         string  `json:"workerName"`
	IsRegistered       bool    `json:"isRegistered"`
	NumberOfDependents int     `json:"numberOfDependents"`
	DaysWorked         int     `json:"daysWorked"`
	Absences           int     `json:"absences"`
	Total              float64 `json:"total"`
}

type Summary struct {
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Category  string          `json:"category"`
	Workers   []WorkerSummary `json:"workers"`
	Total     float64         `json:"total"`
}

// Summarize totals a payroll result per worker, ordered by worker name.
func Summarize(query Query, result Result) Summary {
	summary := Summary{
		StartDate: query.StartDate,
		EndDate:   query.EndDate,
		Category:  query.Category.String(),
		Workers:   make([]WorkerSummary, 0, len(result)),
	}
	for _, name := range WorkerNames(result) {
		entry := result[name]
		row := WorkerSummary{
			WorkerName:         name,
			IsRegistered:       entry.IsRegistered,
			NumberOfDependents: entry.NumberOfDependents,
		}
		for _, day := range entry.Days {
			if day.Absent {
				row.Absences++
				continue
			}
			row.DaysWorked++
			row.Total += day.Amount
		}
		summary.Total += row.Total
		summary.Workers = append(summary.Workers, row)
	}
	return summary
}

func WorkerNames(result Result) []string {
	names := make([]string, 0, len(result))
	for name := range result {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e Entry) SortedDates() []string {
	dates := make([]string, 0, len(e.Days))
	for date := range e.Days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}
