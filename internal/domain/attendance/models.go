package attendance

import "time"

const StatusPresent = "Present"

// Record is one employee-day. CheckOut stays nil until the employee checks
// out; WorkedHours is derived from the two timestamps at checkout.
type Record struct {
	ID           string     `json:"id"`
	EmployeeID   string     `json:"employeeId"`
	EmployeeName string     `json:"employeeName,omitempty"`
	Date         time.Time  `json:"date"`
	Status       string     `json:"status"`
	CheckIn      time.Time  `json:"checkIn"`
	CheckOut     *time.Time `json:"checkOut,omitempty"`
	WorkedHours  float64    `json:"workedHours"`
}
