package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"labqc/pkg/core/llm"
)

// Catalog lists the models offered per provider. The first model of a
// provider is its fallback.
type Catalog struct {
	DefaultProvider string              `yaml:"default_provider" json:"default_provider"`
	Providers       map[string][]string `yaml:"providers" json:"providers"`
}

// DefaultCatalog is used when no models file is configured.
func DefaultCatalog() Catalog {
	return Catalog{
		DefaultProvider: llm.ProviderGoogle,
		Providers: map[string][]string{
			llm.ProviderGoogle: {
				"gemini-3-flash-preview",
				"gemini-2.0-flash-exp",
				"gemini-1.5-flash",
				"gemini-1.5-pro",
			},
			llm.ProviderCerebras: {
				"gpt-oss-120b",
				"llama3.1-70b",
				"llama3.1-8b",
			},
		},
	}
}

// LoadCatalog reads a YAML catalog. A missing file yields DefaultCatalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return Catalog{}, fmt.Errorf("read model catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse model catalog %s: %w", path, err)
	}
	if len(c.Providers) == 0 {
		return Catalog{}, fmt.Errorf("model catalog %s lists no providers", path)
	}
	for name, models := range c.Providers {
		if len(models) == 0 {
			return Catalog{}, fmt.Errorf("model catalog %s: provider %s has no models", path, name)
		}
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = llm.ProviderGoogle
	}
	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return Catalog{}, fmt.Errorf("model catalog %s: default provider %s is not listed", path, c.DefaultProvider)
	}
	return c, nil
}

// Models returns the models for a provider.
func (c Catalog) Models(provider string) []string {
	return c.Providers[provider]
}

// Validate coerces settings into the catalog: an empty provider becomes the
// default provider and a model the provider does not offer becomes its first
// model. Keys are left untouched.
func (c Catalog) Validate(s Settings) Settings {
	if s.Provider == "" {
		s.Provider = c.DefaultProvider
	}
	models, ok := c.Providers[s.Provider]
	if !ok {
		// Unknown providers are kept so inference reports them explicitly.
		return s
	}
	for _, m := range models {
		if m == s.Model {
			return s
		}
	}
	if len(models) > 0 {
		s.Model = models[0]
	}
	return s
}
