// Package auth gates routes on the current user's role
package auth

import (
	"droidfolio/apperrors"
	"droidfolio/server/middleware/session"
	"droidfolio/services/identity"

	"github.com/gofiber/fiber/v2"
)

// RequireUser rejects anonymous requests. The marker is checked against the
// stored user list so a deleted or re-roled account is seen immediately; the
// resolved record replaces the marker in Locals.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, err := resolve(c)
		if err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireRole rejects requests unless the current user holds one of roles
func RequireRole(roles ...identity.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := resolve(c)
		if err != nil {
			return err
		}
		if !u.HasRole(roles...) {
			return apperrors.NewAuthorizationError(u.Username, c.Path(), c.Method())
		}
		return c.Next()
	}
}

func resolve(c *fiber.Ctx) (*identity.User, error) {
	marker := session.User(c)
	if marker == nil {
		return nil, apperrors.NewUnauthorized("Login required")
	}

	ident := session.Identity(c)
	u, err := ident.Lookup(c.UserContext(), marker.Username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		// account removed since login
		return nil, apperrors.NewUnauthorized("Login required")
	}

	session.SetUser(c, u)
	return u, nil
}
