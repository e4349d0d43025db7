package repository

import "fmt"

// NotFoundError is returned when a requested entity does not exist.
type NotFoundError struct {
	Kind string
	ID   any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Kind, e.ID)
}

// DuplicateError is returned when a uniqueness constraint is violated.
type DuplicateError struct {
	Kind  string
	Field string
	Value any
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s %v already exists", e.Kind, e.Field, e.Value)
}

// ConnectionError is returned when the database cannot be reached, the
// pool is exhausted, or the store has been closed.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: connection failed", e.Op)
	}
	return fmt.Sprintf("%s: connection failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransactionError is returned when a transaction cannot be started,
// committed, or rolled back, or when a unit of work is aborted.
type TransactionError struct {
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction failed: %v", e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// DatabaseError wraps any other failure reported by the database.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }
