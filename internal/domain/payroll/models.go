package payroll

import "time"

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
)

type Payroll struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	EmployeeName    string     `json:"employeeName,omitempty"`
	Month           string     `json:"month"`
	BaseSalary      float64    `json:"baseSalary"`
	Overtime        float64    `json:"overtime"`
	Bonus           float64    `json:"bonus"`
	TaxDeduction    float64    `json:"taxDeduction"`
	InsuranceDeduct float64    `json:"insuranceDeduction"`
	OtherDeductions float64    `json:"otherDeductions"`
	NetSalary       float64    `json:"netSalary"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	PaidAt          *time.Time `json:"paidAt,omitempty"`
}
