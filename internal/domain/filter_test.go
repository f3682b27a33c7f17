package domain

import (
	"strings"
	"testing"
)

func sampleLinks() []LinkEntry {
	return []LinkEntry{
		{Name: "Genesys", Description: "Analytics e conversas", URL: "https://genesys.example"},
		{Name: "Proa", Description: "Portal de conversação", URL: "https://proa.example"},
		{Name: "UNIGIS", Description: "Sistema logístico", URL: "https://unigis.example"},
		{Name: "Torre de Controle", Description: "Monitoramento operacional", URL: "https://torre.example"},
	}
}

func TestFilterEmptyQueryIsIdentity(t *testing.T) {
	links := sampleLinks()

	for _, q := range []string{"", "   ", "\t"} {
		got := Filter(links, q)
		if len(got) != len(links) {
			t.Fatalf("Filter(%q) returned %d items, want %d", q, len(got), len(links))
		}
		for i := range links {
			if got[i].URL != links[i].URL {
				t.Errorf("Filter(%q)[%d] = %s, want %s (order must be preserved)", q, i, got[i].URL, links[i].URL)
			}
		}
	}
}

func TestFilterMatches(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "name match is case-insensitive",
			query:    "GENESYS",
			expected: []string{"https://genesys.example"},
		},
		{
			name:     "description match",
			query:    "convers",
			expected: []string{"https://genesys.example", "https://proa.example"},
		},
		{
			name:     "substring inside word",
			query:    "nigi",
			expected: []string{"https://unigis.example"},
		},
		{
			name:     "no match",
			query:    "jira",
			expected: []string{},
		},
		{
			name:     "surrounding whitespace is ignored",
			query:    "  torre ",
			expected: []string{"https://torre.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(sampleLinks(), tt.query)
			if len(got) != len(tt.expected) {
				t.Fatalf("Filter(%q) returned %d items, want %d", tt.query, len(got), len(tt.expected))
			}
			for i, url := range tt.expected {
				if got[i].URL != url {
					t.Errorf("Filter(%q)[%d] = %s, want %s", tt.query, i, got[i].URL, url)
				}
			}
		})
	}
}

// Every returned item matches and no excluded item does.
func TestFilterPartitionsItems(t *testing.T) {
	links := sampleLinks()
	for _, q := range []string{"a", "o", "sistema", "x", "de"} {
		kept := make(map[string]bool)
		for _, l := range Filter(links, q) {
			kept[l.URL] = true
		}
		for _, l := range links {
			contains := strings.Contains(strings.ToLower(l.Name), q) ||
				strings.Contains(strings.ToLower(l.Description), q)
			if contains != kept[l.URL] {
				t.Errorf("query %q: item %s contains=%v kept=%v", q, l.Name, contains, kept[l.URL])
			}
		}
	}
}

func TestFilterGlobalSearchMatchesTeamName(t *testing.T) {
	links := []DirectoryLink{
		{LinkEntry: LinkEntry{Name: "VA", Description: "Virtual Assistant", URL: "https://va"}, TeamName: "Qualidade", TeamKey: "qualidade"},
		{LinkEntry: LinkEntry{Name: "Mirakl", Description: "Marketplace", URL: "https://mirakl"}, TeamName: "Marketplace", TeamKey: "marketplace"},
	}

	got := Filter(links, "qualid")
	if len(got) != 1 || got[0].URL != "https://va" {
		t.Errorf("global search by team name = %v, want only https://va", got)
	}

	// Team filtering does not look at links.
	teams := []Team{
		{Key: "qualidade", Name: "Qualidade", Description: "Controle de Qualidade"},
		{Key: "logistica", Name: "Logística", Description: "Transportes"},
	}
	if got := Filter(teams, "transp"); len(got) != 1 || got[0].Key != "logistica" {
		t.Errorf("team filter = %v, want logistica", got)
	}
}

func TestFilterDoesNotAliasInput(t *testing.T) {
	links := sampleLinks()
	got := Filter(links, "")
	got[0].Name = "changed"
	if links[0].Name == "changed" {
		t.Error("Filter() result shares backing array with input")
	}
}
