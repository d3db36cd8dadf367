package handlers

import (
	"context"

	"droidfolio/apperrors"
	"droidfolio/config"

	"github.com/gofiber/fiber/v2"
)

// requestContext bounds store work for one request. Login delays must fit
// inside it, which config.Validate enforces.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), config.RequestTimeout)
}

// parseBody decodes a JSON body into v, mapping failures to BAD_REQUEST
func parseBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return apperrors.NewBadRequest("Invalid request body").WithInternal(err)
	}
	return nil
}
