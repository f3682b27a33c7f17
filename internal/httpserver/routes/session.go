package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/portal/internal/httpserver/mw"
)

func init() { RegisterAPI(registerSession) }

func registerSession(r chi.Router, d deps.Deps) {
	r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.LoginBurst,
		RefillPerIPPerMin: d.LoginPerMin,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
		OnLimited:         handlers.TooManyLogins(d),
	})).Post("/login", handlers.Login(d))

	r.Post("/logout", handlers.Logout(d))
	r.Get("/session", handlers.Show(d))
	r.Get("/session/search", handlers.ViewSearch(d))
}
