package domain

import (
	"fmt"
	"strings"
)

// Directory is the read-only team -> links configuration.
// It is built once at startup and is safe for concurrent reads.
type Directory struct {
	teams []Team          // file order
	byKey map[string]int  // key -> index in teams
	links []DirectoryLink // flattened, team order then link order
}

// NewDirectory validates teams and builds the lookup tables.
// Keys must be non-empty and unique.
func NewDirectory(teams []Team) (*Directory, error) {
	d := &Directory{
		teams: make([]Team, 0, len(teams)),
		byKey: make(map[string]int, len(teams)),
	}

	for _, team := range teams {
		key := strings.TrimSpace(team.Key)
		if key == "" {
			return nil, fmt.Errorf("team %q has no key", team.Name)
		}
		if _, dup := d.byKey[key]; dup {
			return nil, fmt.Errorf("duplicate team key: %s", key)
		}
		team.Key = key

		// Copy links so callers cannot mutate the directory through their slice.
		links := make([]LinkEntry, len(team.Links))
		copy(links, team.Links)
		team.Links = links

		d.byKey[key] = len(d.teams)
		d.teams = append(d.teams, team)

		for _, link := range links {
			d.links = append(d.links, DirectoryLink{
				LinkEntry: link,
				TeamName:  team.Name,
				TeamKey:   key,
			})
		}
	}

	return d, nil
}

// GetTeam returns the team for key. The boolean is false for unknown keys.
func (d *Directory) GetTeam(key string) (Team, bool) {
	i, ok := d.byKey[key]
	if !ok {
		return Team{}, false
	}
	return d.teams[i], true
}

// Teams returns all teams in directory order.
func (d *Directory) Teams() []Team {
	out := make([]Team, len(d.teams))
	copy(out, d.teams)
	return out
}

// AllLinks returns every link with its owning team.
func (d *Directory) AllLinks() []DirectoryLink {
	out := make([]DirectoryLink, len(d.links))
	copy(out, d.links)
	return out
}

// FindLink resolves url to its directory entry. When the same URL is listed
// by several teams the entry of preferTeam wins, otherwise the first one.
func (d *Directory) FindLink(url, preferTeam string) (DirectoryLink, bool) {
	var (
		found DirectoryLink
		ok    bool
	)
	for _, link := range d.links {
		if link.URL != url {
			continue
		}
		if link.TeamKey == preferTeam {
			return link, true
		}
		if !ok {
			found, ok = link, true
		}
	}
	return found, ok
}

// Count returns the number of teams.
func (d *Directory) Count() int {
	return len(d.teams)
}

// LinkCount returns the number of links across all teams.
func (d *Directory) LinkCount() int {
	return len(d.links)
}
