// Package prompts holds the system prompt catalog used for text generation.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ImproverKey names the template used by the prompt improvement endpoint.
const ImproverKey = "prompt-improver"

//go:embed prompts.yaml
var builtin []byte

// Catalog maps prompt type keys to system prompts, plus per-model style hints.
type Catalog struct {
	Default      string            `yaml:"default"`
	Templates    map[string]string `yaml:"templates"`
	Enhancements map[string]string `yaml:"enhancements"`
}

// Load returns the built-in catalog, overlaid with the YAML file at path when
// path is non-empty. Entries in the file replace built-in entries by key.
func Load(path string) (*Catalog, error) {
	cat, err := Parse(builtin)
	if err != nil {
		return nil, fmt.Errorf("parse built-in prompts: %w", err)
	}
	if path == "" {
		return cat, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file: %w", err)
	}
	override, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse prompts file %s: %w", path, err)
	}
	cat.merge(override)
	if _, ok := cat.Templates[cat.Default]; !ok {
		return nil, fmt.Errorf("default prompt %q has no template", cat.Default)
	}
	return cat, nil
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, err
	}
	if cat.Templates == nil {
		cat.Templates = map[string]string{}
	}
	if cat.Enhancements == nil {
		cat.Enhancements = map[string]string{}
	}
	return &cat, nil
}

func (c *Catalog) merge(o *Catalog) {
	if o.Default != "" {
		c.Default = o.Default
	}
	for k, v := range o.Templates {
		c.Templates[k] = v
	}
	for k, v := range o.Enhancements {
		c.Enhancements[k] = v
	}
}

// SystemPrompt returns the template for key, falling back to the default
// template for unknown or empty keys. When model has a style enhancement it
// is appended as a trailing "Style:" paragraph.
func (c *Catalog) SystemPrompt(key, model string) string {
	base, ok := c.Templates[key]
	if !ok {
		base = c.Templates[c.Default]
	}
	if hint, ok := c.Enhancements[model]; ok && model != "" {
		return base + "\n\nStyle: " + hint
	}
	return base
}

// Has reports whether key names a template.
func (c *Catalog) Has(key string) bool {
	_, ok := c.Templates[key]
	return ok
}

// Keys lists template keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.Templates))
	for k := range c.Templates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
