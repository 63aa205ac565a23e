package errors

import (
	stderrors "errors"
	"fmt"
)

// Context keys shared by the constructors in this package.
const (
	ContextOperation = "op"
	ContextHint      = "hint"
	ContextPath      = "path"
)

// ClassifiedError represents a structured error with category, severity, and context.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the standard error interface.
func (e *ClassifiedError) Error() string {
	msg := e.message
	if op, ok := e.context.GetString(ContextOperation); ok && op != "" {
		msg = op + ": " + msg
	}
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.category, msg, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.category, msg)
}

// Unwrap implements Go 1.13+ error unwrapping.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory {
	return e.category
}

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity {
	return e.severity
}

// RetryStrategy returns the recommended retry strategy.
func (e *ClassifiedError) RetryStrategy() RetryStrategy {
	return e.retry
}

// Message returns the error message.
func (e *ClassifiedError) Message() string {
	return e.message
}

// Cause returns the underlying error.
func (e *ClassifiedError) Cause() error {
	return e.cause
}

// Context returns the error context.
func (e *ClassifiedError) Context() ErrorContext {
	return e.context
}

// Operation returns the name of the failing operation, if recorded.
func (e *ClassifiedError) Operation() string {
	op, _ := e.context.GetString(ContextOperation)
	return op
}

// Hint returns the operator guidance attached to the error, if any.
func (e *ClassifiedError) Hint() string {
	hint, _ := e.context.GetString(ContextHint)
	return hint
}

// WithContext adds context to the error and returns a new error.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	next := make(ErrorContext, len(e.context)+1)
	for k, v := range e.context {
		next[k] = v
	}
	next[key] = value
	return &ClassifiedError{
		category: e.category,
		severity: e.severity,
		retry:    e.retry,
		message:  e.message,
		cause:    e.cause,
		context:  next,
	}
}

// Is matches another ClassifiedError with the same category and message.
func (e *ClassifiedError) Is(target error) bool {
	if other, ok := target.(*ClassifiedError); ok {
		return e.category == other.category && e.message == other.message
	}
	return false
}

// IsCategory checks if the error belongs to a specific category.
func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// CanRetry checks if the error allows retry operations.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry != RetryNever && e.retry != RetryUserAction
}

// IsFatal checks if the error is fatal (should stop execution).
func (e *ClassifiedError) IsFatal() bool {
	return e.severity == SeverityFatal
}

// IsTransient checks if the error represents a transient condition.
func (e *ClassifiedError) IsTransient() bool {
	return e.retry == RetryImmediate || e.retry == RetryBackoff || e.retry == RetryRateLimit
}

// AsClassified finds the first ClassifiedError in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified, true
	}
	return nil, false
}

// IsClassified checks if an error chain contains a ClassifiedError.
func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory checks if the first classified error in the chain belongs to a category.
func HasCategory(err error, category ErrorCategory) bool {
	if classified, ok := AsClassified(err); ok {
		return classified.IsCategory(category)
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.Category()
	}
	return CategoryInternal
}

// GetSeverity extracts the severity from an error, or returns SeverityError.
func GetSeverity(err error) ErrorSeverity {
	if classified, ok := AsClassified(err); ok {
		return classified.Severity()
	}
	return SeverityError
}
