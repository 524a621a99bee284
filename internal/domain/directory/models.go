package directory

import "time"

const (
	EmploymentActive   = "Active"
	EmploymentOnLeave  = "On Leave"
	EmploymentResigned = "Resigned"
)

var EmploymentStatuses = []string{EmploymentActive, EmploymentOnLeave, EmploymentResigned}

type Department struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Employee struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	FirstName        string     `json:"firstName"`
	LastName         string     `json:"lastName"`
	Email            string     `json:"email"`
	DepartmentID     string     `json:"departmentId"`
	DepartmentName   string     `json:"departmentName,omitempty"`
	Position         string     `json:"position"`
	HireDate         *time.Time `json:"hireDate,omitempty"`
	EmploymentStatus string     `json:"employmentStatus"`
	Salary           *float64   `json:"salary,omitempty"`
	ManagerID        string     `json:"managerId"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
