// Package locale holds the table widget strings for each supported language.
package locale

import (
	"embed"
	"fmt"
	"gopkg.in/yaml.v3"
)

//go:embed *.yaml
var files embed.FS

type Locale struct {
	Name      string            `yaml:"name"`
	Columns   map[string]string `yaml:"columns"`
	PageSizes []string          `yaml:"page_sizes"`
	Language  map[string]any    `yaml:"language"`
}

// Column returns the title of a table column, or fallback when the locale has none.
func (l *Locale) Column(key, fallback string) string {
	if l == nil || l.Columns[key] == "" {
		return fallback
	}
	return l.Columns[key]
}

func Load(name string) (*Locale, error) {
	data, err := files.ReadFile(name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("locale %q: %w", name, err)
	}

	loc := &Locale{}
	if err := yaml.Unmarshal(data, loc); err != nil {
		return nil, fmt.Errorf("parse locale %q: %w", name, err)
	}
	if loc.Name == "" {
		loc.Name = name
	}
	return loc, nil
}
