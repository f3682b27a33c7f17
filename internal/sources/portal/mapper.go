package portal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/MrSnakeDoc/portal/internal/domain"
)

// MapDirectory converts the parsed file into a domain.Directory.
// Every problem in the file is reported, not just the first one.
func MapDirectory(file DirectoryFile) (*domain.Directory, error) {
	if len(file.Teams) == 0 {
		return nil, fmt.Errorf("no teams found in directory file")
	}

	var (
		teams []domain.Team
		errs  []error
	)

	for i, props := range file.Teams {
		team := domain.Team{
			Key:         strings.TrimSpace(props.Key),
			Name:        strings.TrimSpace(props.Name),
			Description: props.Description,
			Color:       props.Color,
		}
		if team.Key == "" {
			errs = append(errs, fmt.Errorf("team #%d: key is required", i+1))
		}
		if team.Name == "" {
			errs = append(errs, fmt.Errorf("team %q: name is required", team.Key))
		}

		for j, lp := range props.Links {
			link, err := mapLink(lp)
			if err != nil {
				errs = append(errs, fmt.Errorf("team %q link #%d: %w", team.Key, j+1, err))
				continue
			}
			team.Links = append(team.Links, link)
		}

		teams = append(teams, team)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return domain.NewDirectory(teams)
}

func mapLink(p LinkProps) (domain.LinkEntry, error) {
	link := domain.LinkEntry{
		Name:        strings.TrimSpace(p.Name),
		Description: p.Description,
		URL:         strings.TrimSpace(p.URL),
		Icon:        p.Icon,
		Color:       p.Color,
	}

	if link.Name == "" {
		return link, fmt.Errorf("name is required")
	}
	if link.URL == "" {
		return link, fmt.Errorf("%s: url is required", link.Name)
	}
	if link.InDevelopment() {
		return link, nil
	}

	u, err := url.Parse(link.URL)
	if err != nil {
		return link, fmt.Errorf("%s: invalid url: %w", link.Name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return link, fmt.Errorf("%s: url must be absolute http(s) or %q", link.Name, domain.DevelopmentURL)
	}

	return link, nil
}

// LoadDirectory reads, parses and maps the directory file in one go.
func LoadDirectory(filePath string) (*domain.Directory, error) {
	file, err := NewLoader(filePath).Load()
	if err != nil {
		return nil, err
	}
	return MapDirectory(file)
}
