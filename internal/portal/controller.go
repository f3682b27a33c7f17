// Package portal is the application controller. It turns user events into
// session, directory and personalization calls and asks a View to display
// the outcome.
package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/personal"
	"github.com/MrSnakeDoc/portal/internal/session"
)

// ErrNotAuthenticated is returned by events that need a logged-in session.
var ErrNotAuthenticated = errors.New("not authenticated")

// Controller is shared by all clients. Per-client state lives in the
// *session.Session passed to every event.
type Controller struct {
	dir      *domain.Directory
	gate     *session.Gate
	personal *personal.Store
	logger   logger.Logger
}

// New creates a controller.
func New(dir *domain.Directory, gate *session.Gate, ps *personal.Store, log logger.Logger) *Controller {
	return &Controller{
		dir:      dir,
		gate:     gate,
		personal: ps,
		logger:   log,
	}
}

// Directory returns the directory the controller serves.
func (c *Controller) Directory() *domain.Directory { return c.dir }

// Show renders whatever view the session is currently in.
func (c *Controller) Show(ctx context.Context, s *session.Session, v View) error {
	switch s.State {
	case session.TeamLinks:
		return c.SelectTeam(ctx, s, v, s.TeamKey, s.Query)
	case session.TeamSelection:
		return c.Home(ctx, s, v, s.Query)
	default:
		v.RenderLogin(c.gate.PasswordRequired())
		return nil
	}
}

// ─────────────────────────────────────────────────────────────────
// Session
// ─────────────────────────────────────────────────────────────────

// SubmitLogin authenticates the session. A rejection shows an inline error
// and leaves the session untouched.
func (c *Controller) SubmitLogin(ctx context.Context, s *session.Session, v View, email, password string) error {
	if err := c.gate.Authenticate(ctx, s, email, password); err != nil {
		var authErr *session.AuthError
		if errors.As(err, &authErr) {
			v.ShowError(authErr.Msg)
			return err
		}
		c.logger.Error("failed to start session", logger.Error(err))
		v.ShowError("Could not start your session, please try again.")
		return err
	}

	c.logger.Info("user logged in", logger.Identity(s.Identity))
	v.ShowToast(fmt.Sprintf("Welcome, %s!", s.Identity), SeveritySuccess)
	v.RenderTeamList(c.dir.Teams())
	return nil
}

// Logout ends the session.
func (c *Controller) Logout(ctx context.Context, s *session.Session, v View) error {
	if s.Authenticated() {
		c.logger.Info("user logged out", logger.Identity(s.Identity))
	}
	if err := c.gate.Logout(ctx, s); err != nil {
		c.logger.Warn("failed to delete session", logger.Error(err))
	}
	v.RenderLogin(c.gate.PasswordRequired())
	v.ShowToast("You have been signed out.", SeverityInfo)
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Navigation
// ─────────────────────────────────────────────────────────────────

// Home goes back to team selection, filtered by query.
func (c *Controller) Home(ctx context.Context, s *session.Session, v View, query string) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	s.Home()
	s.Query = query
	c.save(ctx, s)

	v.RenderTeamList(domain.Filter(c.dir.Teams(), query))
	return nil
}

// SelectTeam enters the link list of key, filtered by query. An unknown key
// keeps the session on team selection and renders an empty placeholder.
func (c *Controller) SelectTeam(ctx context.Context, s *session.Session, v View, key, query string) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	team, ok := c.dir.GetTeam(key)
	if !ok {
		s.Home()
		c.save(ctx, s)

		v.RenderLinkList(domain.Team{Key: key, Name: "Team not configured", Links: []domain.LinkEntry{}}, map[string]bool{})
		v.ShowToast("This team is not configured yet.", SeverityInfo)
		return fmt.Errorf("%w: %s", domain.ErrUnknownTeam, key)
	}

	s.Enter(team.Key)
	s.Query = query
	c.save(ctx, s)

	favs := c.favorites(ctx, s, v)
	team.Links = domain.Filter(team.Links, query)
	v.RenderLinkList(team, favs.State(team.Links))
	return nil
}

// Search filters the current view: teams on team selection, links of the
// current team on a link list.
func (c *Controller) Search(ctx context.Context, s *session.Session, v View, query string) error {
	if s.State == session.TeamLinks {
		return c.SelectTeam(ctx, s, v, s.TeamKey, query)
	}
	return c.Home(ctx, s, v, query)
}

// GlobalSearch matches query against every link of every team, including
// the team name. A blank query clears the results.
func (c *Controller) GlobalSearch(_ context.Context, s *session.Session, v View, query string) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	if strings.TrimSpace(query) == "" {
		v.RenderSearchResults(query, []domain.DirectoryLink{})
		return nil
	}
	v.RenderSearchResults(query, domain.Filter(c.dir.AllLinks(), query))
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Links
// ─────────────────────────────────────────────────────────────────

// OpenLink records url in the history and navigates to it. Only directory
// URLs are opened; links still in development only warn.
func (c *Controller) OpenLink(ctx context.Context, s *session.Session, v View, url string) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	link, err := c.lookup(s, v, url)
	if err != nil {
		return err
	}

	if link.InDevelopment() {
		v.ShowToast(fmt.Sprintf("%s is under development and will be available soon.", link.Name), SeverityWarning)
		return nil
	}

	if _, err := c.personal.RecordHistory(ctx, s.Identity, link.LinkEntry, link.TeamName); err != nil {
		c.degrade(v, "History", err)
	}

	c.logger.Debug("opening link", logger.Identity(s.Identity), logger.String("url", link.URL))
	v.NavigateTo(link.URL)
	return nil
}

// ToggleFavorite pins or unpins url and re-renders the view it came from.
func (c *Controller) ToggleFavorite(ctx context.Context, s *session.Session, v View, url string) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	link, err := c.lookup(s, v, url)
	if err != nil {
		return err
	}

	added, favs, err := c.personal.ToggleFavorite(ctx, s.Identity, link.LinkEntry, link.TeamName)
	switch {
	case err != nil:
		c.degrade(v, "Favorites", err)
	case added:
		v.ShowToast(fmt.Sprintf("%s added to favorites.", link.Name), SeveritySuccess)
	default:
		v.ShowToast(fmt.Sprintf("%s removed from favorites.", link.Name), SeverityInfo)
	}

	if team, ok := c.dir.GetTeam(s.TeamKey); ok && s.State == session.TeamLinks {
		team.Links = domain.Filter(team.Links, s.Query)
		v.RenderLinkList(team, favs.State(team.Links))
		return nil
	}
	v.RenderFavorites(favs.Sorted())
	return nil
}

// ─────────────────────────────────────────────────────────────────
// Personalization
// ─────────────────────────────────────────────────────────────────

// RemoveFavorite unpins url from the favorites view. Unlike ToggleFavorite
// the URL does not have to be in the directory, so favorites left over from
// an older directory file can still be cleaned up.
func (c *Controller) RemoveFavorite(ctx context.Context, s *session.Session, v View, url string) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	favs, err := c.personal.RemoveFavorite(ctx, s.Identity, url)
	if err != nil {
		c.degrade(v, "Favorites", err)
	} else {
		v.ShowToast("Removed from favorites.", SeverityInfo)
	}
	v.RenderFavorites(favs.Sorted())
	return nil
}

// ShowFavorites renders the identity's favorites, oldest pinned first.
func (c *Controller) ShowFavorites(ctx context.Context, s *session.Session, v View) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}
	v.RenderFavorites(c.favorites(ctx, s, v).Sorted())
	return nil
}

// ShowHistory renders the identity's history, most recent first.
func (c *Controller) ShowHistory(ctx context.Context, s *session.Session, v View) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	h, err := c.personal.LoadHistory(ctx, s.Identity)
	if err != nil {
		c.degrade(v, "History", err)
	}
	v.RenderHistory(h)
	return nil
}

// ClearHistory empties the identity's history.
func (c *Controller) ClearHistory(ctx context.Context, s *session.Session, v View) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	if err := c.personal.ClearHistory(ctx, s.Identity); err != nil {
		c.degrade(v, "History", err)
	} else {
		v.ShowToast("History cleared.", SeveritySuccess)
	}
	v.RenderHistory(domain.History{})
	return nil
}

// ClearFavorites unpins everything.
func (c *Controller) ClearFavorites(ctx context.Context, s *session.Session, v View) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	if err := c.personal.ClearFavorites(ctx, s.Identity); err != nil {
		c.degrade(v, "Favorites", err)
	} else {
		v.ShowToast("Favorites cleared.", SeveritySuccess)
	}
	v.RenderFavorites([]domain.FavoriteRecord{})
	return nil
}

// ClearAll wipes favorites and history of the identity.
func (c *Controller) ClearAll(ctx context.Context, s *session.Session, v View) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	if err := c.personal.ClearAll(ctx, s.Identity); err != nil {
		c.degrade(v, "Personal data", err)
	} else {
		c.logger.Info("personal data cleared", logger.Identity(s.Identity))
		v.ShowToast("All personal data cleared.", SeveritySuccess)
	}
	v.RenderFavorites([]domain.FavoriteRecord{})
	v.RenderHistory(domain.History{})
	return nil
}

// Export renders a dump of the identity's favorites and history.
func (c *Controller) Export(ctx context.Context, s *session.Session, v View) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	exp, err := c.personal.Export(ctx, s.Identity)
	if err != nil {
		c.degrade(v, "Export", err)
	}
	v.RenderExport(exp)
	return nil
}

// Stats renders favorite and history counts.
func (c *Controller) Stats(ctx context.Context, s *session.Session, v View) error {
	if err := c.requireAuth(s, v); err != nil {
		return err
	}

	st, err := c.personal.Stats(ctx, s.Identity)
	if err != nil {
		c.degrade(v, "Stats", err)
	}
	v.RenderStats(st)
	return nil
}

// ─────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────

func (c *Controller) requireAuth(s *session.Session, v View) error {
	if s.Authenticated() {
		return nil
	}
	v.RenderLogin(c.gate.PasswordRequired())
	v.ShowError("Please sign in first.")
	return ErrNotAuthenticated
}

// lookup resolves url, preferring the team the session is in.
func (c *Controller) lookup(s *session.Session, v View, url string) (domain.DirectoryLink, error) {
	link, ok := c.dir.FindLink(url, s.TeamKey)
	if !ok {
		v.ShowToast("This link is not part of the portal.", SeverityError)
		return link, fmt.Errorf("%w: %s", domain.ErrUnknownLink, url)
	}
	return link, nil
}

func (c *Controller) favorites(ctx context.Context, s *session.Session, v View) domain.Favorites {
	favs, err := c.personal.LoadFavorites(ctx, s.Identity)
	if err != nil {
		c.degrade(v, "Favorites", err)
	}
	return favs
}

// degrade reports a personalization failure without failing the event.
func (c *Controller) degrade(v View, what string, err error) {
	c.logger.Warn("personalization degraded", logger.String("feature", what), logger.Error(err))
	v.ShowToast(fmt.Sprintf("%s unavailable right now, your change may not be saved.", what), SeverityWarning)
}

func (c *Controller) save(ctx context.Context, s *session.Session) {
	if err := c.gate.Save(ctx, s); err != nil {
		c.logger.Warn("failed to save session", logger.Error(err))
	}
}
