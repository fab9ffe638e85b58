package form

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound reports a missing target record. Callers map it to their own
// 404 equivalent.
var ErrNotFound = errors.New("record not found")

// PersistenceError wraps a failed write inside the store/update transaction.
// The transaction has already been rolled back when it surfaces.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ValidationErrors aggregates per-field validation failures into one
// structured set keyed by dotted column path. It is a normal return value,
// never a thrown fault: the response policy consumes it.
type ValidationErrors struct {
	order    []string
	messages map[string][]string
}

// NewValidationErrors creates an empty aggregate.
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{messages: make(map[string][]string)}
}

// Add records a failure message for a column.
func (ve *ValidationErrors) Add(column, message string) {
	if _, ok := ve.messages[column]; !ok {
		ve.order = append(ve.order, column)
	}
	ve.messages[column] = append(ve.messages[column], message)
}

// Any reports whether at least one field failed.
func (ve *ValidationErrors) Any() bool {
	return len(ve.messages) > 0
}

// Messages returns the flattened dotted-path message map.
func (ve *ValidationErrors) Messages() map[string][]string {
	return ve.messages
}

func (ve *ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString("validation failed")
	for _, column := range ve.order {
		for _, msg := range ve.messages[column] {
			fmt.Fprintf(&b, "; %s: %s", column, msg)
		}
	}
	return b.String()
}
