package payroll

import "errors"

var (
	ErrMissingRange = errors.New("payroll: startDate and endDate are required")
	ErrInvalidDate  = errors.New("payroll: dates must use YYYY-MM-DD")
	ErrInvalidRange = errors.New("payroll: startDate must not be after endDate")
)
