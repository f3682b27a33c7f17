package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
)

type componentStatus struct {
	OK           bool   `json:"ok"`
	Backend      string `json:"backend,omitempty"`
	TeamsLoaded  *int   `json:"teams_loaded,omitempty"`
	LinksLoaded  *int   `json:"links_loaded,omitempty"`
	PasswordGate *bool  `json:"password_gate,omitempty"`
	Impact       string `json:"impact,omitempty"`
	Error        string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports per-component status for operators.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		dir := d.Controller.Directory()
		teams, links := dir.Count(), dir.LinkCount()
		gate := d.Gate.PasswordRequired()

		components := map[string]componentStatus{
			"directory": {
				OK:          teams > 0,
				TeamsLoaded: &teams,
				LinksLoaded: &links,
			},
			"store": checkStore(r.Context(), d),
			"session": {
				OK:           true,
				PasswordGate: &gate,
			},
		}

		response := infraResponse{
			Status:     determineStatus(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

func determineStatus(components map[string]componentStatus) string {
	// Nothing to show without a directory
	if dir, exists := components["directory"]; exists && !dir.OK {
		return "critical"
	}

	// Store down = logins and personalization fail, links still render
	if st, exists := components["store"]; exists && !st.OK {
		return "degraded"
	}

	return "operational"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{
			OK:     false,
			Impact: "sessions-and-personalization-disabled",
			Error:  "store not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.Store.Name(),
			Impact:  "sessions-and-personalization-disabled",
			Error:   err.Error(),
		}
	}

	return componentStatus{
		OK:      true,
		Backend: d.Store.Name(),
		Impact:  "none",
	}
}
