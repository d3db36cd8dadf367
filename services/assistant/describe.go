package assistant

import (
	"context"
	"strings"

	"droidfolio/apperrors"
	"droidfolio/pkg/breaker"
	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"

	"github.com/sony/gobreaker"
)

// DescribeProject asks the model for a short portfolio blurb for a project.
// cb may be nil.
func DescribeProject(ctx context.Context, model Model, cb *gobreaker.CircuitBreaker, title string, techStack []string) (string, error) {
	if strings.TrimSpace(title) == "" || len(techStack) == 0 {
		return "", apperrors.NewValidationError("Please enter a Title and at least one Tech Stack item to generate a description.")
	}

	generate := func(ctx context.Context) (string, error) {
		return model.Generate(ctx, descriptionPrompt(title, techStack))
	}

	var (
		text string
		err  error
	)
	if cb != nil {
		text, err = breaker.ExecuteCtx(ctx, cb, generate)
	} else {
		text, err = generate(ctx)
	}
	if err != nil {
		metrics.RecordDescription(false)
		logger.WithFields(map[string]any{"title": title, "error": err}).Error("Project description generation failed")
		appErr := apperrors.NewExternalServiceFailure("gemini", err)
		appErr.Message = descriptionFailed
		return "", appErr
	}

	metrics.RecordDescription(true)
	if strings.TrimSpace(text) == "" {
		return descriptionEmpty, nil
	}
	return text, nil
}
