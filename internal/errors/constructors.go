package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *DaemonError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *DaemonError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ConfigInvalid(cause error, path string) *DaemonError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration rejected").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *DaemonError {
	return New(CategoryValidation, SeverityWarning, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Lookup errors

func UnknownNetwork(name string) *DaemonError {
	return New(CategoryNotFound, SeverityWarning, "unknown network").
		WithContext("network", name)
}

func UnknownLink(network, alias string) *DaemonError {
	return New(CategoryNotFound, SeverityWarning, "unknown link").
		WithContext("network", network).
		WithContext("alias", alias)
}

// Registry errors

func CapacityExceeded(what string, limit int, cause error) *DaemonError {
	return Wrap(cause, CategoryCapacity, SeverityError, "registry capacity exceeded").
		WithContext("registry", what).
		WithContext("limit", limit)
}

// Probe and network errors

func ProbeFailed(network, alias string, cause error) *DaemonError {
	return WrapRetryable(cause, CategoryProbe, SeverityWarning, "link probe failed").
		WithContext("network", network).
		WithContext("alias", alias)
}

func NetworkTimeout(url string, cause error) *DaemonError {
	return WrapRetryable(cause, CategoryNetwork, SeverityWarning, "network timeout").
		WithContext("url", url)
}

// Notification errors

func NotifyFailed(subject string, cause error) *DaemonError {
	return WrapRetryable(cause, CategoryNotify, SeverityWarning, "notification publish failed").
		WithContext("subject", subject)
}

// Internal errors

func InternalError(message string, cause error) *DaemonError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
