package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerTeams) }

func registerTeams(r chi.Router, d deps.Deps) {
	r.Get("/teams", handlers.Teams(d))
	r.Get("/teams/{key}", handlers.Team(d))
	r.Post("/home", handlers.Home(d))
	r.Get("/search", handlers.Search(d))
}
