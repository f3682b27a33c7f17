package portal

// DirectoryFile is the root of the directory YAML.
//
//	teams:
//	  - key: qualidade
//	    name: Qualidade
//	    description: Quality management systems
//	    color: "#4caf50"
//	    links:
//	      - name: Genesys
//	        description: Call center analytics
//	        url: https://apps.mypurecloud.com/directory/#/analytics
//	        icon: fa-headset
type DirectoryFile struct {
	Teams []TeamProps `yaml:"teams"`
}

// TeamProps is one team block
type TeamProps struct {
	Key         string      `yaml:"key"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Color       string      `yaml:"color,omitempty"`
	Links       []LinkProps `yaml:"links"`
}

// LinkProps is one link entry of a team
type LinkProps struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	URL         string `yaml:"url"`
	Icon        string `yaml:"icon,omitempty"`
	Color       string `yaml:"color,omitempty"`
}

// CredentialsFile holds the bcrypt hashes used by the optional password gate.
//
//	domain_default: $2a$10$...
//	users:
//	  ryangame2005@gmail.com: $2a$10$...
type CredentialsFile struct {
	DomainDefault string            `yaml:"domain_default"`
	Users         map[string]string `yaml:"users"`
}
