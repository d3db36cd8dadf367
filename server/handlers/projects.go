package handlers

import (
	"droidfolio/services/assistant"
	"droidfolio/services/content"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
)

type describeRequest struct {
	Title     string   `json:"title"`
	TechStack []string `json:"techStack"`
}

func HandleListProjects(csrv *content.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		projects, err := csrv.Projects(ctx)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"projects": projects})
	}
}

// HandleSaveProject creates a project (POST) or replaces the one named by
// :id (PUT)
func HandleSaveProject(csrv *content.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p content.Project
		if err := parseBody(c, &p); err != nil {
			return err
		}

		status := fiber.StatusCreated
		if id := c.Params("id"); id != "" {
			p.ID = id
			status = fiber.StatusOK
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		saved, err := csrv.SaveProject(ctx, p)
		if err != nil {
			return err
		}
		return c.Status(status).JSON(fiber.Map{"project": saved})
	}
}

func HandleDeleteProject(csrv *content.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := requestContext(c)
		defer cancel()

		if err := csrv.DeleteProject(ctx, c.Params("id")); err != nil {
			return err
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// HandleDescribeProject drafts a project description with the model
func HandleDescribeProject(model assistant.Model, cb *gobreaker.CircuitBreaker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req describeRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}

		text, err := assistant.DescribeProject(c.UserContext(), model, cb, req.Title, req.TechStack)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"description": text})
	}
}
