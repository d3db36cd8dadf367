package routes

import (
	"droidfolio/server/handlers"
	"droidfolio/server/middleware/auth"
	"droidfolio/services/assistant"
	"droidfolio/services/content"
	"droidfolio/services/identity"
	"droidfolio/services/sessions"
	"droidfolio/store"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
)

// Dependencies are the shared services handlers are built from. Per-session
// services come from the session middleware instead.
type Dependencies struct {
	Store     store.Store
	Sessions  *sessions.Manager
	Content   *content.Service
	Model     assistant.Model
	Breaker   *gobreaker.CircuitBreaker
	Chat      assistant.Options
	AIEnabled bool
}

// RegisterOps mounts probes and metrics. They run ahead of the session
// middleware so probes never mint sessions.
func RegisterOps(app *fiber.App, d Dependencies) {
	health := handlers.NewHealthCheckHandler(d.Store, d.Sessions, d.Breaker, d.AIEnabled)

	app.Get("/healthz", health.HandleHealthCheck())
	app.Get("/readyz", health.HandleReadinessCheck())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

// RegisterRoutes mounts the session-aware API and the chat websocket
func RegisterRoutes(app *fiber.App, d Dependencies) {
	health := handlers.NewHealthCheckHandler(d.Store, d.Sessions, d.Breaker, d.AIEnabled)

	v1 := app.Group("/api/v1")
	v1.Get("/status", health.HandleStatus())

	registerAuth(v1)
	registerContent(v1, d)
	registerUsers(v1)

	v1.Get("/preferences", handlers.HandleGetPreferences())
	v1.Put("/preferences", handlers.HandleUpdatePreferences())

	app.Get("/ws/chat", handlers.HandleChatUpgrade(), handlers.HandleChat(d.Content, d.Model, d.Chat))
}

func registerAuth(v1 fiber.Router) {
	a := v1.Group("/auth")
	a.Post("/login", handlers.HandleLogin())
	a.Post("/logout", handlers.HandleLogout())
	a.Get("/me", handlers.HandleMe())
}

func registerContent(v1 fiber.Router, d Dependencies) {
	editors := auth.RequireRole(identity.RoleAdmin, identity.RoleModerator)
	admins := auth.RequireRole(identity.RoleAdmin)

	v1.Get("/projects", handlers.HandleListProjects(d.Content))
	v1.Post("/projects/describe", editors, handlers.HandleDescribeProject(d.Model, d.Breaker))
	v1.Post("/projects", editors, handlers.HandleSaveProject(d.Content))
	v1.Put("/projects/:id", editors, handlers.HandleSaveProject(d.Content))
	v1.Delete("/projects/:id", editors, handlers.HandleDeleteProject(d.Content))

	v1.Get("/technologies", handlers.HandleListTechnologies(d.Content))
	v1.Post("/technologies", admins, handlers.HandleAddTechnology(d.Content))
	v1.Delete("/technologies/:id", admins, handlers.HandleDeleteTechnology(d.Content))
}

func registerUsers(v1 fiber.Router) {
	admins := auth.RequireRole(identity.RoleAdmin)

	v1.Get("/users", admins, handlers.HandleListUsers())
	v1.Post("/users", admins, handlers.HandleCreateUser())
	v1.Put("/users/:username/role", admins, handlers.HandleUpdateUserRole())
	v1.Patch("/users/:username", auth.RequireUser(), handlers.HandleUpdateUser())
	v1.Delete("/users/:username", admins, handlers.HandleDeleteUser())
}
