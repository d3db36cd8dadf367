package handlers

import (
	"droidfolio/apperrors"
	"droidfolio/server/middleware/session"
	"droidfolio/services/identity"

	"github.com/gofiber/fiber/v2"
)

type createUserRequest struct {
	Username string        `json:"username"`
	Password string        `json:"password"`
	Name     string        `json:"name"`
	Role     identity.Role `json:"role"`
}

type roleRequest struct {
	Role identity.Role `json:"role"`
}

func HandleListUsers() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		users, err := session.Identity(c).Users(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"users": users})
	}
}

func HandleCreateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createUserRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		if req.Role == "" {
			req.Role = identity.RoleGuest
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := session.Identity(c).CreateUser(ctx, req.Username, req.Password, req.Name, req.Role)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
	}
}

func HandleUpdateUserRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req roleRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := session.Identity(c).UpdateUserRole(ctx, c.Params("username"), req.Role)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NewUserNotFound()
		}
		session.SetUser(c, refreshed(c, user))

		return c.JSON(fiber.Map{"user": user})
	}
}

// HandleUpdateUser edits a profile. Admins may edit anyone, other users only
// themselves.
func HandleUpdateUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		target := c.Params("username")
		current := session.User(c)
		if current.Role != identity.RoleAdmin && current.Username != target {
			return apperrors.NewAuthorizationError(current.Username, c.Path(), c.Method())
		}

		var upd identity.UserUpdate
		if err := parseBody(c, &upd); err != nil {
			return err
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := session.Identity(c).UpdateUser(ctx, target, upd)
		if err != nil {
			return err
		}
		if user == nil {
			return apperrors.NewUserNotFound()
		}
		session.SetUser(c, refreshed(c, user))

		return c.JSON(fiber.Map{"user": user})
	}
}

func HandleDeleteUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := session.Identity(c).DeleteUser(ctx, c.Params("username")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// refreshed keeps the request's user in step when it edited itself
func refreshed(c *fiber.Ctx, updated *identity.User) *identity.User {
	current := session.User(c)
	if current != nil && current.Username == updated.Username {
		return updated
	}
	return current
}
