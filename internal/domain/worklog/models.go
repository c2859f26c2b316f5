package worklog

import (
	"math"
	"time"
)

// StatusAbsent marks a day the worker did not show up.
const StatusAbsent = "Falta"

// Entry is one daily record of a worker's activity. Entries are immutable once
// stored.
type Entry struct {
	ID                 string    `json:"id"`
	Date               string    `json:"date"`
	WorkerName         string    `json:"workerName"`
	Status             string    `json:"status"`
	Details            string    `json:"details"`
	Farm               string    `json:"farm"`
	ProductionQuantity *float64  `json:"productionQuantity,omitempty"`
	UnitPrice          *float64  `json:"unitPrice,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}

func (e Entry) IsAbsence() bool {
	return e.Status == StatusAbsent
}

// Value is quantity times price when both are present, non-zero and not NaN,
// else 0.
func (e Entry) Value() float64 {
	if !counts(e.ProductionQuantity) || !counts(e.UnitPrice) {
		return 0
	}
	return *e.ProductionQuantity * *e.UnitPrice
}

type FieldIssue struct {
	Field  string
	Reason string
}

func counts(value *float64) bool {
	return value != nil && *value != 0 && !math.IsNaN(*value)
}
