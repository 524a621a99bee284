package identity

import "errors"

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicate      = errors.New("username or email already registered")
	ErrInvalidRole    = errors.New("unknown role")
	ErrSelfDeactivate = errors.New("cannot deactivate own account")
)
