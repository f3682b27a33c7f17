package portal

import (
	"github.com/MrSnakeDoc/portal/internal/domain"
)

// Severity of a toast.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// View is the presentation layer the controller drives. Implementations
// only display; they never call back into the controller.
type View interface {
	RenderLogin(passwordRequired bool)
	RenderTeamList(teams []domain.Team)
	RenderLinkList(team domain.Team, favorites map[string]bool)
	RenderSearchResults(query string, results []domain.DirectoryLink)
	RenderFavorites(favorites []domain.FavoriteRecord)
	RenderHistory(history domain.History)
	RenderStats(stats domain.Stats)
	RenderExport(export domain.Export)
	ShowError(message string)
	ShowToast(message string, severity Severity)
	NavigateTo(url string)
}

// Effect is one recorded View call.
type Effect struct {
	Type string `json:"type"`

	Message  string   `json:"message,omitempty"`
	Severity Severity `json:"severity,omitempty"`
	URL      string   `json:"url,omitempty"`
	Query    string   `json:"query,omitempty"`

	PasswordRequired bool                    `json:"passwordRequired,omitempty"`
	Teams            []domain.Team           `json:"teams,omitzero"`
	Team             *domain.Team            `json:"team,omitempty"`
	FavoriteState    map[string]bool         `json:"favoriteState,omitzero"`
	Results          []domain.DirectoryLink  `json:"results,omitzero"`
	Favorites        []domain.FavoriteRecord `json:"favorites,omitzero"`
	History          domain.History          `json:"history,omitzero"`
	Stats            *domain.Stats           `json:"stats,omitempty"`
	Export           *domain.Export          `json:"export,omitempty"`
}

const (
	EffectLogin         = "render_login"
	EffectTeamList      = "render_team_list"
	EffectLinkList      = "render_link_list"
	EffectSearchResults = "render_search_results"
	EffectFavorites     = "render_favorites"
	EffectHistory       = "render_history"
	EffectStats         = "render_stats"
	EffectExport        = "render_export"
	EffectError         = "show_error"
	EffectToast         = "show_toast"
	EffectNavigate      = "navigate_to"
)

// Recorder is a View that keeps every effect in call order. The HTTP layer
// serializes it; tests inspect it.
type Recorder struct {
	Effects []Effect
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{Effects: []Effect{}}
}

func (r *Recorder) add(e Effect) { r.Effects = append(r.Effects, e) }

func (r *Recorder) RenderLogin(passwordRequired bool) {
	r.add(Effect{Type: EffectLogin, PasswordRequired: passwordRequired})
}

func (r *Recorder) RenderTeamList(teams []domain.Team) {
	r.add(Effect{Type: EffectTeamList, Teams: nonNil(teams)})
}

func (r *Recorder) RenderLinkList(team domain.Team, favorites map[string]bool) {
	r.add(Effect{Type: EffectLinkList, Team: &team, FavoriteState: favorites})
}

func (r *Recorder) RenderSearchResults(query string, results []domain.DirectoryLink) {
	r.add(Effect{Type: EffectSearchResults, Query: query, Results: nonNil(results)})
}

func (r *Recorder) RenderFavorites(favorites []domain.FavoriteRecord) {
	r.add(Effect{Type: EffectFavorites, Favorites: nonNil(favorites)})
}

func (r *Recorder) RenderHistory(history domain.History) {
	r.add(Effect{Type: EffectHistory, History: nonNil(history)})
}

func (r *Recorder) RenderStats(stats domain.Stats) {
	r.add(Effect{Type: EffectStats, Stats: &stats})
}

func (r *Recorder) RenderExport(export domain.Export) {
	r.add(Effect{Type: EffectExport, Export: &export})
}

func (r *Recorder) ShowError(message string) {
	r.add(Effect{Type: EffectError, Message: message})
}

func (r *Recorder) ShowToast(message string, severity Severity) {
	r.add(Effect{Type: EffectToast, Message: message, Severity: severity})
}

func (r *Recorder) NavigateTo(url string) {
	r.add(Effect{Type: EffectNavigate, URL: url})
}

// Last returns the most recent effect of type typ.
func (r *Recorder) Last(typ string) (Effect, bool) {
	for i := len(r.Effects) - 1; i >= 0; i-- {
		if r.Effects[i].Type == typ {
			return r.Effects[i], true
		}
	}
	return Effect{}, false
}

func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
