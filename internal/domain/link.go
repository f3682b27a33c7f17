package domain

// DevelopmentURL marks a link whose target is not deployed yet.
// Opening it only warns the user.
const DevelopmentURL = "#"

// LinkEntry represents one corporate system reachable from the portal.
// Entries come from the directory file and never change at runtime.
type LinkEntry struct {
	// Name is the display name of the system.
	// Example: Genesys
	Name string `json:"name"`

	// Description is a short human description shown under the name.
	Description string `json:"description"`

	// URL is the external target opened in a new tab.
	// Example: https://apps.mypurecloud.com/directory/#/analytics
	URL string `json:"url"`

	// Icon and Color are presentation hints passed through to the UI.
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
}

// InDevelopment reports whether the link has no real target yet.
func (l LinkEntry) InDevelopment() bool {
	return l.URL == DevelopmentURL
}

// SearchFields implements Searchable.
func (l LinkEntry) SearchFields() []string {
	return []string{l.Name, l.Description}
}

// Team groups the links used by one team.
type Team struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// Key is the unique directory key used for navigation.
	// Example: qualidade
	Key string `json:"key"`

	// ─────────────────────────────
	// Descriptive metadata
	// ─────────────────────────────

	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color,omitempty"`

	// ─────────────────────────────
	// Content
	// ─────────────────────────────

	// Links keeps the order of the directory file.
	Links []LinkEntry `json:"links"`
}

// SearchFields implements Searchable.
func (t Team) SearchFields() []string {
	return []string{t.Name, t.Description}
}

// DirectoryLink is a link flattened together with the team that owns it.
// It is what global search operates on.
type DirectoryLink struct {
	LinkEntry
	TeamName string `json:"teamName"`
	TeamKey  string `json:"teamKey"`
}

// SearchFields implements Searchable. Global search also matches the team name.
func (l DirectoryLink) SearchFields() []string {
	return []string{l.Name, l.Description, l.TeamName}
}
