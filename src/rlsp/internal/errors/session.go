package errors

import "fmt"

// SessionStateError indicates that a method was received while the session was in a state that does not accept it.
type SessionStateError struct {
	Method string
	State  string
}

// Error is an implementation of the error interface.
func (n *SessionStateError) Error() string {
	return fmt.Sprintf("method %q is not valid while session is %s", n.Method, n.State)
}
