// Package session attaches a browser session to every request. The session
// id scopes the login marker and preferences; projects, technologies and the
// user list stay shared.
package session

import (
	"context"
	"errors"
	"time"

	"droidfolio/services/identity"
	"droidfolio/services/preferences"
	"droidfolio/store"

	"github.com/gofiber/fiber/v2"
)

// Locals keys
const (
	LocalsSessionID   = "session_id"
	LocalsIdentity    = "identity"
	LocalsPreferences = "preferences"
	LocalsUser        = "user"
	LocalsUsername    = "username"
	LocalsStore       = "session_store"
)

// ScopedKeys are stored per session
var ScopedKeys = []string{identity.CurrentUserKey, preferences.ThemeKey, preferences.ColorThemeKey}

// View returns the record store as seen by session id
func View(base store.Store, id string) store.Store {
	return store.Scoped(base, "session:"+id+":", ScopedKeys...)
}

// Clear removes everything stored for session id
func Clear(ctx context.Context, base store.Store, id string) error {
	view := View(base, id)
	var errs []error
	for _, key := range ScopedKeys {
		errs = append(errs, view.Delete(ctx, key))
	}
	return errors.Join(errs...)
}

func New(config Config) fiber.Handler {
	cfg := configDefault(config)

	return func(c *fiber.Ctx) error {
		if cfg.Next != nil && cfg.Next(c) {
			return c.Next()
		}

		ctx := c.UserContext()

		sess, err := cfg.Manager.Resolve(ctx, c.Cookies(cfg.CookieName))
		if err != nil {
			return err
		}

		if sess.New || c.Cookies(cfg.CookieName) != sess.ID {
			c.Cookie(&fiber.Cookie{
				Name:     cfg.CookieName,
				Value:    sess.ID,
				Path:     "/",
				Expires:  time.Now().Add(cfg.MaxAge),
				HTTPOnly: true,
				Secure:   cfg.Secure,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		view := View(cfg.Store, sess.ID)
		ident := cfg.Identity.ForSession(view)

		user, err := ident.CurrentUser(ctx)
		if err != nil {
			return err
		}

		c.Locals(LocalsSessionID, sess.ID)
		c.Locals(LocalsStore, view)
		c.Locals(LocalsIdentity, ident)
		c.Locals(LocalsPreferences, preferences.NewService(view))
		if user != nil {
			c.Locals(LocalsUser, user)
			c.Locals(LocalsUsername, user.Username)
		}

		return c.Next()
	}
}

func ID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsSessionID).(string)
	return id
}

func Identity(c *fiber.Ctx) *identity.Service {
	svc, _ := c.Locals(LocalsIdentity).(*identity.Service)
	return svc
}

func Preferences(c *fiber.Ctx) *preferences.Service {
	svc, _ := c.Locals(LocalsPreferences).(*preferences.Service)
	return svc
}

// User is the session marker, or nil when anonymous
func User(c *fiber.Ctx) *identity.User {
	u, _ := c.Locals(LocalsUser).(*identity.User)
	return u
}

// SetUser replaces the request's view of the current user after login/logout
func SetUser(c *fiber.Ctx, u *identity.User) {
	if u == nil {
		c.Locals(LocalsUser, nil)
		c.Locals(LocalsUsername, nil)
		return
	}
	c.Locals(LocalsUser, u)
	c.Locals(LocalsUsername, u.Username)
}
