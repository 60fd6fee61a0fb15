package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category at SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
		context:  make(ErrorContext),
	}}
}

// WrapError starts an error that wraps cause.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(cause)
}

func (b *ErrorBuilder) WithCause(cause error) *ErrorBuilder {
	b.err.cause = cause
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder   { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

// WithCode marks the error as a recognized failure with a diagnostic code.
func (b *ErrorBuilder) WithCode(code string) *ErrorBuilder {
	b.err.code = code
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// Build returns the error. The builder may be reused afterwards without
// affecting errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	e := b.err
	e.context = make(ErrorContext).Merge(b.err.context)
	return &e
}

// Constructors per category. Configuration, usage, build and internal errors
// are fatal by default.

func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).Fatal()
}

func DocsetError(message string) *ErrorBuilder { return NewError(CategoryDocset, message) }

func GitError(message string) *ErrorBuilder { return NewError(CategoryGit, message) }

func NetworkError(message string) *ErrorBuilder { return NewError(CategoryNetwork, message) }

func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message).Fatal()
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

func PersistenceError(message string) *ErrorBuilder {
	return NewError(CategoryPersistence, message)
}

func ProtocolError(message string) *ErrorBuilder { return NewError(CategoryProtocol, message) }

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
