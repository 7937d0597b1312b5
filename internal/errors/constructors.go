package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *BuildError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// UnknownFormat reports a build request for a format with no profile.
// It is detected before any external process is spawned.
func UnknownFormat(name string) *BuildError {
	return New(CategoryConfig, SeverityFatal, "unknown output format").
		WithContext("format", name)
}

// Build pipeline errors

// InvocationError reports that the external conversion tool could not be
// started at all (missing binary, bad working directory).
func InvocationError(tool string, cause error) *BuildError {
	return Wrap(cause, CategoryInvocation, SeverityFatal, "conversion tool could not be started").
		WithContext("tool", tool)
}

// ConversionFailed reports a non-zero exit from the conversion tool.
// Diagnostic detail is whatever the tool wrote to stderr, already forwarded
// to the log while it ran.
func ConversionFailed(format string, exitCode int) *BuildError {
	return New(CategoryConversion, SeverityFatal, "conversion tool exited with failure").
		WithExitCode(exitCode).
		WithContext("format", format)
}

func AssetTaskFailed(task string, cause error) *BuildError {
	return Wrap(cause, CategoryAssets, SeverityFatal, "asset task failed").
		WithContext("task", task)
}

func FileSystemError(operation string, cause error) *BuildError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

// Runtime errors

func ServerError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryServer, SeverityError, message)
}

func InternalError(message string, cause error) *BuildError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
