package handlers

import (
	"droidfolio/server/middleware/session"
	"droidfolio/services/preferences"

	"github.com/gofiber/fiber/v2"
)

func HandleGetPreferences() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		prefs, err := session.Preferences(c).Get(ctx)
		if err != nil {
			return err
		}
		return c.JSON(prefs)
	}
}

// HandleUpdatePreferences applies a partial update; omitted fields keep
// their current value
func HandleUpdatePreferences() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req preferences.Preferences
		if err := parseBody(c, &req); err != nil {
			return err
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		updated, err := session.Preferences(c).Update(ctx, req)
		if err != nil {
			return err
		}
		return c.JSON(updated)
	}
}
