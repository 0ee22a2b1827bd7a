package push

import "fmt"

// ValidationError rejects a malformed NotificationRequest before any store
// read happens.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// ConfigurationError is fatal for a whole dispatch call: nothing is attempted.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

// StoreError wraps a failed subscription fetch or delete.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }
