package handlers

import (
	"droidfolio/services/content"

	"github.com/gofiber/fiber/v2"
)

type technologyRequest struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

func HandleListTechnologies(csrv *content.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		techs, err := csrv.Technologies(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"technologies": techs})
	}
}

func HandleAddTechnology(csrv *content.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req technologyRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		tech, err := csrv.AddTechnology(ctx, req.Name, req.Icon)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"technology": tech})
	}
}

func HandleDeleteTechnology(csrv *content.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := csrv.DeleteTechnology(ctx, c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
