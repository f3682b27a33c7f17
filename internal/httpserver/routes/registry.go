package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/httpserver/mw"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	reg Registrar
	mws []Middleware
}

var (
	root []entry // mounted at "/"
	api  []entry // mounted under "/api", host-restricted
)

// Register adds a registrar mounted at the root, with optional middlewares.
func Register(reg Registrar, mws ...Middleware) {
	root = append(root, entry{reg: reg, mws: mws})
}

// RegisterAPI adds a registrar mounted under /api. Paths are relative to
// the group and every route goes through EnforceHost.
func RegisterAPI(reg Registrar, mws ...Middleware) {
	api = append(api, entry{reg: reg, mws: mws})
}

// Called once from server.New()
func RegisterAll(r chi.Router, d deps.Deps) {
	mount(r, root, d)

	if len(api) == 0 {
		return
	}
	r.Route("/api", func(g chi.Router) {
		g.Use(mw.EnforceHost(d.AllowedHosts, d.Logger))
		mount(g, api, d)
	})
}

func mount(r chi.Router, entries []entry, d deps.Deps) {
	for _, e := range entries {
		if len(e.mws) == 0 {
			e.reg(r, d)
			continue
		}
		e.reg(r.With(e.mws...), d)
	}
}
