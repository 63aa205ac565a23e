package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.cause = err
	return b
}

// WithCause sets the underlying error.
func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.cause = err
	return b
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// WithOperation names the operation that failed.
func (b *ErrorBuilder) WithOperation(op string) *ErrorBuilder {
	return b.WithContext(ContextOperation, op)
}

// WithHint attaches operator guidance, typically the control operation to run next.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	return b.WithContext(ContextHint, hint)
}

// WithPath records the file the error relates to.
func (b *ErrorBuilder) WithPath(path string) *ErrorBuilder {
	return b.WithContext(ContextPath, path)
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Retryable sets the retry strategy to backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	return b.WithRetry(RetryBackoff)
}

// RateLimit sets the retry strategy to rate limit.
func (b *ErrorBuilder) RateLimit() *ErrorBuilder {
	return b.WithRetry(RetryRateLimit)
}

// UserAction sets the retry strategy to require user action.
func (b *ErrorBuilder) UserAction() *ErrorBuilder {
	return b.WithRetry(RetryUserAction)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// Convenience constructors for common error patterns

// ConfigError creates a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError creates a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

// ParseError creates a manifest or version parse error.
func ParseError(message string) *ErrorBuilder {
	return NewError(CategoryParse, message).Fatal()
}

// StateError creates a workflow state error. The operator has to pick another command.
func StateError(message string) *ErrorBuilder {
	return NewError(CategoryState, message).Fatal().UserAction()
}

// ConflictError creates an unresolved-conflict error for a single candidate.
func ConflictError(message string) *ErrorBuilder {
	return NewError(CategoryConflict, message).Warning()
}

// GitError creates a git operation error.
func GitError(message string) *ErrorBuilder {
	return NewError(CategoryGit, message)
}

// BuildError creates a build or validation step error.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message)
}

// ForgeError creates a hosting-service error (typically retryable).
func ForgeError(message string) *ErrorBuilder {
	return NewError(CategoryForge, message).Retryable()
}

// FileSystemError creates a filesystem error.
func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// JournalError creates a run journal error.
func JournalError(message string) *ErrorBuilder {
	return NewError(CategoryJournal, message)
}

// InternalError creates an internal error.
func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
