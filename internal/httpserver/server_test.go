package httpserver_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/portal/internal/config"
	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/httpserver"
	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/personal"
	"github.com/MrSnakeDoc/portal/internal/portal"
	"github.com/MrSnakeDoc/portal/internal/session"
	"github.com/MrSnakeDoc/portal/internal/store/memory"
	"github.com/MrSnakeDoc/portal/internal/version"
)

const wmsURL = "https://wms.example.com"

type response struct {
	State   string          `json:"state"`
	Team    string          `json:"team"`
	Query   string          `json:"query"`
	Effects []portal.Effect `json:"effects"`
}

func (r response) last(typ string) (portal.Effect, bool) {
	for i := len(r.Effects) - 1; i >= 0; i-- {
		if r.Effects[i].Type == typ {
			return r.Effects[i], true
		}
	}
	return portal.Effect{}, false
}

func newDeps(t *testing.T) deps.Deps {
	t.Helper()

	dir, err := domain.NewDirectory([]domain.Team{
		{
			Key: "logistica", Name: "Logística", Description: "Delivery and stock",
			Links: []domain.LinkEntry{{Name: "WMS", Description: "Warehouse management", URL: wmsURL}},
		},
		{Key: "qualidade", Name: "Qualidade", Description: "Quality"},
	})
	require.NoError(t, err)

	log := logger.NewNop()
	kv := memory.New()
	gate := session.NewGate(domain.NewAccessPolicy(nil, domain.DefaultEmailDomain), kv, session.Options{}, log)

	return deps.Deps{
		Logger:      log,
		StartTime:   time.Now(),
		Build:       version.Info{Version: "test"},
		Controller:  portal.New(dir, gate, personal.NewStore(kv, personal.Options{}), log),
		Gate:        gate,
		Store:       kv,
		SessionTTL:  time.Hour,
		LoginBurst:  3,
		LoginPerMin: 1,
	}
}

func newClient(t *testing.T, d deps.Deps) *resty.Client {
	t.Helper()
	srv := httptest.NewServer(httpserver.New(&config.Config{ListenPort: ":0"}, d.Logger, d).Handler())
	t.Cleanup(srv.Close)
	return resty.New().SetBaseURL(srv.URL)
}

func TestPortalFlow(t *testing.T) {
	client := newClient(t, newDeps(t))

	var out response

	// Logged out
	resp, err := client.R().SetResult(&out).SetError(&out).Get("/api/teams")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.Equal(t, "logged_out", out.State)

	// Rejected login
	out = response{}
	resp, err = client.R().
		SetBody(map[string]string{"email": "random@gmail.com"}).
		SetResult(&out).SetError(&out).
		Post("/api/login")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	e, ok := out.last(portal.EffectError)
	require.True(t, ok)
	assert.Equal(t, "Access restricted to company employees.", e.Message)

	// Accepted login sets the cookie
	out = response{}
	resp, err = client.R().
		SetBody(map[string]string{"email": "User@LeroyMerlin.com.br"}).
		SetResult(&out).
		Post("/api/login")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "team_selection", out.State)
	list, ok := out.last(portal.EffectTeamList)
	require.True(t, ok)
	assert.Len(t, list.Teams, 2)

	// Team drill-down with filter
	out = response{}
	resp, err = client.R().SetQueryParam("q", "warehouse").SetResult(&out).Get("/api/teams/logistica")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "team_links", out.State)
	assert.Equal(t, "logistica", out.Team)

	// Unknown team keeps team selection
	out = response{}
	resp, err = client.R().SetResult(&out).Get("/api/teams/nonexistent")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "team_selection", out.State)

	// Favorite, open, history
	out = response{}
	resp, err = client.R().SetBody(map[string]string{"url": wmsURL}).SetResult(&out).Post("/api/favorites/toggle")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())

	out = response{}
	resp, err = client.R().SetBody(map[string]string{"url": wmsURL}).SetResult(&out).Post("/api/open")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	nav, ok := out.last(portal.EffectNavigate)
	require.True(t, ok)
	assert.Equal(t, wmsURL, nav.URL)

	out = response{}
	resp, err = client.R().SetBody(map[string]string{"url": "https://evil.example.com"}).SetError(&out).Post("/api/open")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())

	out = response{}
	_, err = client.R().SetResult(&out).Get("/api/me/stats")
	require.NoError(t, err)
	st, ok := out.last(portal.EffectStats)
	require.True(t, ok)
	assert.Equal(t, 1, st.Stats.Favorites)
	assert.Equal(t, 1, st.Stats.History)

	// Global search matches team names
	out = response{}
	_, err = client.R().SetQueryParam("q", "logística").SetResult(&out).Get("/api/search")
	require.NoError(t, err)
	res, ok := out.last(portal.EffectSearchResults)
	require.True(t, ok)
	assert.Len(t, res.Results, 1)

	// Unpin from the favorites view
	out = response{}
	resp, err = client.R().SetBody(map[string]string{"url": wmsURL}).SetResult(&out).Post("/api/favorites/remove")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	favs, ok := out.last(portal.EffectFavorites)
	require.True(t, ok)
	assert.Empty(t, favs.Favorites)

	// Bad body
	resp, err = client.R().SetBody(map[string]string{}).Post("/api/open")
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode())

	// Logout drops the session
	out = response{}
	_, err = client.R().SetResult(&out).Post("/api/logout")
	require.NoError(t, err)
	assert.Equal(t, "logged_out", out.State)

	resp, err = client.R().Get("/api/favorites")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
}

func TestViewSearch(t *testing.T) {
	client := newClient(t, newDeps(t))

	var out response
	_, err := client.R().
		SetBody(map[string]string{"email": "user@leroymerlin.com.br"}).
		Post("/api/login")
	require.NoError(t, err)

	// Team selection: filters teams
	resp, err := client.R().SetQueryParam("q", "stock").SetResult(&out).Get("/api/session/search")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "team_selection", out.State)
	assert.Equal(t, "stock", out.Query)
	teams, ok := out.last(portal.EffectTeamList)
	require.True(t, ok)
	require.Len(t, teams.Teams, 1)
	assert.Equal(t, "logistica", teams.Teams[0].Key)

	// Link list: filters the current team's links
	_, err = client.R().Get("/api/teams/logistica")
	require.NoError(t, err)

	out = response{}
	_, err = client.R().SetQueryParam("q", "no such link").SetResult(&out).Get("/api/session/search")
	require.NoError(t, err)
	assert.Equal(t, "team_links", out.State)
	links, ok := out.last(portal.EffectLinkList)
	require.True(t, ok)
	assert.Empty(t, links.Team.Links)

	// The filter is remembered by the session
	out = response{}
	_, err = client.R().SetResult(&out).Get("/api/session")
	require.NoError(t, err)
	assert.Equal(t, "no such link", out.Query)
}

func TestLoginRateLimit(t *testing.T) {
	client := newClient(t, newDeps(t))

	var (
		last *resty.Response
		out  response
	)
	for i := 0; i < 4; i++ {
		out = response{}
		resp, err := client.R().
			SetBody(map[string]string{"email": "random@gmail.com"}).
			SetError(&out).
			Post("/api/login")
		require.NoError(t, err)
		last = resp
	}
	assert.Equal(t, http.StatusTooManyRequests, last.StatusCode())
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, "logged_out", out.State)
	e, ok := out.last(portal.EffectError)
	require.True(t, ok)
	assert.Contains(t, e.Message, "Too many login attempts")
}

func TestProbes(t *testing.T) {
	client := newClient(t, newDeps(t))

	resp, err := client.R().Get("/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), `"version":"test"`)

	resp, err = client.R().Get("/readyz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, resp.String(), `"store":"memory"`)

	var infra struct {
		Status string `json:"status"`
	}
	resp, err = client.R().SetResult(&infra).Get("/infra")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "operational", infra.Status)
}

func TestAccessRestrictions(t *testing.T) {
	d := newDeps(t)
	d.AllowedHosts = []string{"portal.example.com"}
	d.AllowedCIDRS = []string{"10.0.0.0/8"}
	d.TrustProxy = false
	h := httpserver.New(&config.Config{ListenPort: ":0"}, d.Logger, d).Handler()

	tests := []struct {
		name   string
		path   string
		host   string
		remote string
		want   int
	}{
		{name: "api wrong host", path: "/api/teams", host: "evil.example.com", remote: "10.1.1.1:1234", want: http.StatusForbidden},
		{name: "api right host", path: "/api/teams", host: "portal.example.com", remote: "192.168.1.1:1234", want: http.StatusUnauthorized},
		{name: "api host case and port", path: "/api/teams", host: "Portal.Example.com:8443", remote: "192.168.1.1:1234", want: http.StatusUnauthorized},
		{name: "infra outside cidr", path: "/infra", host: "portal.example.com", remote: "192.168.1.1:1234", want: http.StatusForbidden},
		{name: "infra inside cidr", path: "/infra", host: "portal.example.com", remote: "10.1.1.1:1234", want: http.StatusOK},
		{name: "healthz open", path: "/healthz", host: "anything", remote: "192.168.1.1:1234", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Host = tt.host
			req.RemoteAddr = tt.remote
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
