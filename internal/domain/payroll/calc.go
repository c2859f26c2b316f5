package payroll

import "farmoffice/internal/domain/worklog"

// ComputePayroll folds work-log entries into per-worker daily values.
//
// logs must already be limited to [query.StartDate, query.EndDate]; they are
// not filtered again here. Entries are applied in the order given:
//   - entries for workers missing from profiles are dropped;
//   - entries for workers outside query.Category are dropped;
//   - an absence sets the day to the absence marker, replacing any amount;
//   - any other entry adds its value to the day, and a day currently marked
//     as absence counts as zero, so a later normal entry clears the absence.
//
// Neither logs nor profiles are modified.
func ComputePayroll(query Query, logs []worklog.Entry, profiles []WorkerProfile) Result {
	directory := make(map[string]WorkerProfile, len(profiles))
	for _, profile := range profiles {
		directory[profile.Name] = profile
	}

	result := Result{}
	for _, entry := range logs {
		profile, ok := directory[entry.WorkerName]
		if !ok {
			continue
		}
		if !query.Category.Admits(profile.IsRegistered) {
			continue
		}

		payrollEntry, ok := result[entry.WorkerName]
		if !ok {
			payrollEntry = Entry{
				IsRegistered:       profile.IsRegistered,
				NumberOfDependents: profile.NumberOfDependents,
				Days:               map[string]DayValue{},
			}
			result[entry.WorkerName] = payrollEntry
		}

		if entry.IsAbsence() {
			payrollEntry.Days[entry.Date] = Absence()
			continue
		}

		current := 0.0
		if day, ok := payrollEntry.Days[entry.Date]; ok && !day.Absent {
			current = day.Amount
		}
		payrollEntry.Days[entry.Date] = Amount(current + entry.Value())
	}
	return result
}
