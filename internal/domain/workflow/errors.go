package workflow

import "errors"

var (
	ErrNotFound     = errors.New("workflow not found")
	ErrNotAssignee  = errors.New("only the assignee may decide this request")
	ErrNotRequester = errors.New("only the requester may cancel this request")
	ErrInvalidState = errors.New("workflow is not pending")
	ErrNoApprover   = errors.New("no eligible approver for this request")
)
