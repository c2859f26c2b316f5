package payroll

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// AbsenceMarker is the wire value of a day marked as absence.
const AbsenceMarker = "FALTA"

// DayValue is either an accumulated amount or an absence.
type DayValue struct {
	Amount float64
	Absent bool
}

func Absence() DayValue {
	return DayValue{Absent: true}
}

func Amount(value float64) DayValue {
	return DayValue{Amount: value}
}

func (d DayValue) MarshalJSON() ([]byte, error) {
	if d.Absent {
		return json.Marshal(AbsenceMarker)
	}
	return json.Marshal(d.Amount)
}

func (d *DayValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var marker string
		if err := json.Unmarshal(data, &marker); err != nil {
			return err
		}
		if marker != AbsenceMarker {
			return fmt.Errorf("payroll: unknown day marker %q", marker)
		}
		*d = Absence()
		return nil
	}
	var amount float64
	if err := json.Unmarshal(data, &amount); err != nil {
		return err
	}
	*d = Amount(amount)
	return nil
}

func (d DayValue) String() string {
	if d.Absent {
		return AbsenceMarker
	}
	return fmt.Sprintf("%.2f", d.Amount)
}

// Entry is one worker's payroll view over the requested range.
type Entry struct {
	IsRegistered       bool                `json:"isRegistered"`
	NumberOfDependents int                 `json:"numberOfDependents"`
	Days               map[string]DayValue `json:"days"`
}

// Result maps worker name to its payroll entry.
type Result map[string]Entry

type WorkerProfile struct {
	Name               string
	IsRegistered       bool
	NumberOfDependents int
}

type Query struct {
	StartDate string
	EndDate   string
	Category  Category
}
