package logger

import (
	"errors"

	"droidfolio/apperrors"
)

// LogAppError logs err with its AppError fields, if any, plus context. Extra
// keys that collide with AppError fields are prefixed with "extra_".
func LogAppError(err error, level Level, context map[string]any) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		fields := appErr.LogFields()
		for k, v := range context {
			if _, taken := fields[k]; taken {
				k = "extra_" + k
			}
			fields[k] = v
		}
		WithFields(fields).log(level, "%s", appErr.Message)
		return
	}

	fields := map[string]any{"error": err}
	for k, v := range context {
		fields[k] = v
	}
	WithFields(fields).log(level, "Unstructured error occurred")
}
