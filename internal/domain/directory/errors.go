package directory

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateName     = errors.New("department name already exists")
	ErrManagerCycle      = errors.New("manager assignment would create a cycle")
	ErrEmployeeForUser   = errors.New("user already has an employee record")
	ErrUnknownDepartment = errors.New("unknown department")
)
