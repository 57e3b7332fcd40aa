package dap

import (
	"errors"
	"fmt"
)

// OpenError is returned when a dataset config cannot be read, parsed, or
// validated.
type OpenError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("open dataset %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *OpenError) Unwrap() error {
	return e.Err
}

// SchemaError is returned when the declared table or columns cannot be
// probed on the backing database.
type SchemaError struct {
	Table string
	Err   error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("probe table %s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}

// ConstraintExpressionError is returned when a client-supplied projection
// or selection is invalid: unknown variables, malformed expressions,
// disallowed literals, or inconsistent slices.
type ConstraintExpressionError struct {
	Expression string
	Reason     string
}

// Error implements the error interface.
func (e *ConstraintExpressionError) Error() string {
	if e.Expression == "" {
		return fmt.Sprintf("invalid constraint expression: %s", e.Reason)
	}
	return fmt.Sprintf("invalid constraint expression %q: %s", e.Expression, e.Reason)
}

// QueryExecutionError is returned when the generated SELECT fails to
// execute or row iteration is cut short. Query holds the SQL text for
// diagnostics; it is not part of the message.
type QueryExecutionError struct {
	Query string
	Err   error
}

// Error implements the error interface.
func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryExecutionError) Unwrap() error {
	return e.Err
}

// IsOpenError checks if an error is a dataset open error.
func IsOpenError(err error) bool {
	var e *OpenError
	return errors.As(err, &e)
}

// IsSchemaError checks if an error is a schema probe error.
func IsSchemaError(err error) bool {
	var e *SchemaError
	return errors.As(err, &e)
}

// IsConstraintExpressionError checks if an error is a client constraint
// error.
func IsConstraintExpressionError(err error) bool {
	var e *ConstraintExpressionError
	return errors.As(err, &e)
}

// IsQueryExecutionError checks if an error is a query execution error.
func IsQueryExecutionError(err error) bool {
	var e *QueryExecutionError
	return errors.As(err, &e)
}
