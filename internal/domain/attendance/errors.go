package attendance

import "errors"

var (
	ErrNotFound         = errors.New("attendance record not found")
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrNoCheckIn        = errors.New("no open check-in for today")
	ErrNoEmployee       = errors.New("no employee record for user")
)
