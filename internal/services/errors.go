package services

import "fmt"

// ValidationError marks a malformed transition request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PermissionError marks a target status the acting role is not authorized
// to request.
type PermissionError struct {
	Role   string
	Target string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("role %s is not allowed to set order status to %s", e.Role, e.Target)
}

// TransitionError marks a target status unreachable from the order's
// current status.
type TransitionError struct {
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order cannot move from %s to %s", e.From, e.To)
}

// NotFoundError marks a missing resource.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}
