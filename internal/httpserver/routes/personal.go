package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/httpserver/handlers"
)

func init() { RegisterAPI(registerPersonal) }

func registerPersonal(r chi.Router, d deps.Deps) {
	r.Post("/open", handlers.Open(d))

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", handlers.Favorites(d))
		r.Post("/toggle", handlers.ToggleFavorite(d))
		r.Post("/remove", handlers.RemoveFavorite(d))
		r.Delete("/", handlers.ClearFavorites(d))
	})

	r.Get("/history", handlers.History(d))
	r.Delete("/history", handlers.ClearHistory(d))

	r.Route("/me", func(r chi.Router) {
		r.Get("/stats", handlers.Stats(d))
		r.Get("/export", handlers.Export(d))
		r.Delete("/data", handlers.ClearAll(d))
	})
}
