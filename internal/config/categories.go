package config

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed categories.yml
var categoriesYAML []byte

type categoryFile struct {
	Categories []string `yaml:"categories"`
}

// Categories returns the directory's category list in display order.
func Categories() ([]string, error) {
	var f categoryFile
	if err := yaml.Unmarshal(categoriesYAML, &f); err != nil {
		return nil, fmt.Errorf("parse embedded categories.yml: %w", err)
	}
	return f.Categories, nil
}

// ValidCategory reports whether name is one of the configured categories.
func ValidCategory(name string) bool {
	cats, err := Categories()
	if err != nil {
		return false
	}
	for _, c := range cats {
		if c == name {
			return true
		}
	}
	return false
}
