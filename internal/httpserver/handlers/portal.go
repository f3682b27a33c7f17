package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/portal"
	"github.com/MrSnakeDoc/portal/internal/session"
)

// SessionCookie carries the session ID.
const SessionCookie = "portal_session"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 16 << 10

var validate = validator.New()

// EventFunc runs one controller event for the restored session.
type EventFunc func(ctx context.Context, s *session.Session, v portal.View, r *http.Request) error

type portalResponse struct {
	State   session.State   `json:"state"`
	Team    string          `json:"team,omitempty"`
	Query   string          `json:"query,omitempty"`
	Effects []portal.Effect `json:"effects"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,max=254"`
	Password string `json:"password" validate:"max=128"`
}

type urlRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// Event adapts a controller event to HTTP: restore the session from the
// cookie, run the event, refresh the cookie and write the recorded effects.
func Event(d deps.Deps, fn EventFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s := restore(ctx, d, r)
		rec := portal.NewRecorder()

		err := fn(ctx, s, rec, r)
		writeResponse(w, d, s, rec, statusFor(err))
	}
}

// Login authenticates into a fresh session so an ID seen before login is
// never reused after it.
func Login(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		current := restore(ctx, d, r)
		rec := portal.NewRecorder()

		var req loginRequest
		if err := decode(r, &req); err != nil {
			rec.ShowError("Please enter your email.")
			writeResponse(w, d, current, rec, http.StatusBadRequest)
			return
		}

		fresh := session.New(session.NewID())
		if err := d.Controller.SubmitLogin(ctx, fresh, rec, req.Email, req.Password); err != nil {
			writeResponse(w, d, current, rec, statusFor(err))
			return
		}

		if current.Authenticated() {
			if err := d.Gate.Logout(ctx, current); err != nil {
				d.Logger.Warn("failed to drop previous session", logger.Error(err))
			}
		}
		writeResponse(w, d, fresh, rec, http.StatusOK)
	}
}

// TooManyLogins answers a rate-limited login attempt. The session is left
// as it was.
func TooManyLogins(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := portal.NewRecorder()
		rec.ShowError("Too many login attempts. Try again in a minute.")
		writeResponse(w, d, restore(r.Context(), d, r), rec, http.StatusTooManyRequests)
	}
}

// Show renders the current view of the session.
func Show(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.Show(ctx, s, v)
	})
}

func Logout(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.Logout(ctx, s, v)
	})
}

// ─────────────────────────────────────────────────────────────────
// Navigation
// ─────────────────────────────────────────────────────────────────

func Teams(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, r *http.Request) error {
		return d.Controller.Home(ctx, s, v, r.URL.Query().Get("q"))
	})
}

func Team(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, r *http.Request) error {
		return d.Controller.SelectTeam(ctx, s, v, chi.URLParam(r, "key"), r.URL.Query().Get("q"))
	})
}

func Home(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.Home(ctx, s, v, "")
	})
}

// ViewSearch filters whatever the session is looking at: teams on team
// selection, the current team's links on a link list.
func ViewSearch(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, r *http.Request) error {
		return d.Controller.Search(ctx, s, v, r.URL.Query().Get("q"))
	})
}

func Search(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, r *http.Request) error {
		return d.Controller.GlobalSearch(ctx, s, v, r.URL.Query().Get("q"))
	})
}

// ─────────────────────────────────────────────────────────────────
// Links & personalization
// ─────────────────────────────────────────────────────────────────

func Open(d deps.Deps) http.HandlerFunc {
	return Event(d, withURL(d.Controller.OpenLink))
}

func ToggleFavorite(d deps.Deps) http.HandlerFunc {
	return Event(d, withURL(d.Controller.ToggleFavorite))
}

func RemoveFavorite(d deps.Deps) http.HandlerFunc {
	return Event(d, withURL(d.Controller.RemoveFavorite))
}

func Favorites(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.ShowFavorites(ctx, s, v)
	})
}

func ClearFavorites(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.ClearFavorites(ctx, s, v)
	})
}

func History(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.ShowHistory(ctx, s, v)
	})
}

func ClearHistory(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.ClearHistory(ctx, s, v)
	})
}

func Stats(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.Stats(ctx, s, v)
	})
}

func Export(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.Export(ctx, s, v)
	})
}

func ClearAll(d deps.Deps) http.HandlerFunc {
	return Event(d, func(ctx context.Context, s *session.Session, v portal.View, _ *http.Request) error {
		return d.Controller.ClearAll(ctx, s, v)
	})
}

// ─────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────

var errBadRequest = errors.New("bad request")

func withURL(fn func(ctx context.Context, s *session.Session, v portal.View, url string) error) EventFunc {
	return func(ctx context.Context, s *session.Session, v portal.View, r *http.Request) error {
		var req urlRequest
		if err := decode(r, &req); err != nil {
			v.ShowError("A link URL is required.")
			return errBadRequest
		}
		return fn(ctx, s, v, req.URL)
	}
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

func restore(ctx context.Context, d deps.Deps, r *http.Request) *session.Session {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return session.New("")
	}
	return d.Gate.Restore(ctx, c.Value)
}

func statusFor(err error) int {
	switch {
	case err == nil, errors.Is(err, domain.ErrUnknownTeam):
		return http.StatusOK
	case errors.Is(err, domain.ErrNotAuthorized), errors.Is(err, portal.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrUnknownLink):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeResponse(w http.ResponseWriter, d deps.Deps, s *session.Session, rec *portal.Recorder, status int) {
	setSessionCookie(w, d, s)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(portalResponse{
		State:   s.State,
		Team:    s.TeamKey,
		Query:   s.Query,
		Effects: rec.Effects,
	}); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

func setSessionCookie(w http.ResponseWriter, d deps.Deps, s *session.Session) {
	c := &http.Cookie{
		Name:     SessionCookie,
		Path:     "/",
		HttpOnly: true,
		Secure:   d.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.Authenticated() {
		c.Value = s.ID
		c.MaxAge = int(d.SessionTTL.Seconds())
	} else {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}
