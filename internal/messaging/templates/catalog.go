// Package templates embeds the email template catalog. Templates are
// authored in YAML and personalized at send time with liquid placeholders
// ({{name}}, {{email}}, {{teamName}}).
package templates

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var catalogYAML []byte

// Template is one catalog entry.
type Template struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Subject     string `yaml:"subject" json:"subject"`
	Body        string `yaml:"body" json:"body"`
}

type catalogFile struct {
	Templates []Template `yaml:"templates"`
}

// Catalog is the loaded template catalog.
type Catalog struct {
	templates []Template
	byID      map[string]Template
}

// Load parses the embedded catalog. Called once at startup.
func Load() (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("parse template catalog: %w", err)
	}

	byID := make(map[string]Template, len(file.Templates))
	for _, t := range file.Templates {
		if t.ID == "" {
			return nil, fmt.Errorf("template catalog entry missing id")
		}
		if _, dup := byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		byID[t.ID] = t
	}
	return &Catalog{templates: file.Templates, byID: byID}, nil
}

// All returns every template in catalog order.
func (c *Catalog) All() []Template {
	return c.templates
}

// Get returns a template by id.
func (c *Catalog) Get(id string) (Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}
