package payroll

import "errors"

var (
	ErrNotFound    = errors.New("payroll record not found")
	ErrDuplicate   = errors.New("payroll already generated for this month")
	ErrAlreadyPaid = errors.New("payroll already processed")
	ErrNoEmployee  = errors.New("employee not found")
)
