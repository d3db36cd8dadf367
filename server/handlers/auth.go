package handlers

import (
	"droidfolio/server/middleware/session"

	"github.com/gofiber/fiber/v2"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin checks credentials and makes the user current for the session
func HandleLogin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := session.Identity(c).Login(ctx, req.Username, req.Password)
		if err != nil {
			return err
		}
		session.SetUser(c, &user)

		return c.JSON(fiber.Map{"user": user})
	}
}

func HandleLogout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := session.Identity(c).Logout(ctx); err != nil {
			return err
		}
		session.SetUser(c, nil)

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// HandleMe returns the session's current user, null when anonymous
func HandleMe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user": session.User(c)})
	}
}
