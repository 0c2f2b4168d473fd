// Package themes ships the built-in go-theme manifests that recolor section
// highlights.
package themes

import (
	"fmt"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-docfill/pkg/sections"
)

// DefaultName is the built-in theme name.
const DefaultName = "docfill"

// Catalog validates manifests through a go-theme registry and resolves
// selections from them. It implements theme.ThemeSelector.
type Catalog struct {
	registry registrar

	mu        sync.RWMutex
	manifests map[string]*theme.Manifest
}

var _ theme.ThemeSelector = (*Catalog)(nil)

type registrar interface {
	Register(m *theme.Manifest) error
}

// NewCatalog returns a catalog holding the built-in manifests.
func NewCatalog() (*Catalog, error) {
	c := &Catalog{
		registry:  theme.NewRegistry(),
		manifests: map[string]*theme.Manifest{},
	}
	for _, m := range builtin() {
		if err := c.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds or replaces a manifest.
func (c *Catalog) Register(m *theme.Manifest) error {
	if m == nil || strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("themes: manifest name is required")
	}
	if err := c.registry.Register(m); err != nil {
		return fmt.Errorf("themes: register %q: %w", m.Name, err)
	}
	c.mu.Lock()
	c.manifests[m.Name] = m
	c.mu.Unlock()
	return nil
}

// Select resolves name, falling back to DefaultName when name is empty.
// Unknown variants select the base manifest tokens only.
func (c *Catalog) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	c.mu.RLock()
	m, ok := c.manifests[name]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("themes: unknown theme %q", name)
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
}

// Palette resolves the section palette for name and variant.
func (c *Catalog) Palette(name, variant string) (sections.Palette, error) {
	return sections.PaletteFor(c, name, variant)
}

func builtin() []*theme.Manifest {
	light := map[string]string{}
	for i, color := range sections.DefaultPalette {
		light[fmt.Sprintf("section.%d.bg", i)] = color.BG
		light[fmt.Sprintf("section.%d.text", i)] = color.Text
	}
	return []*theme.Manifest{
		{
			Name:    DefaultName,
			Version: "1.0.0",
			Tokens:  light,
			Variants: map[string]theme.Variant{
				"dark": {Tokens: map[string]string{
					"section.0.bg": "#1e3a8a", "section.0.text": "#dbeafe",
					"section.1.bg": "#14532d", "section.1.text": "#dcfce7",
					"section.2.bg": "#78350f", "section.2.text": "#fef3c7",
					"section.3.bg": "#831843", "section.3.text": "#fce7f3",
					"section.4.bg": "#4c1d95", "section.4.text": "#ede9fe",
					"section.5.bg": "#7c2d12", "section.5.text": "#ffedd5",
					"section.6.bg": "#164e63", "section.6.text": "#cffafe",
					"section.7.bg": "#7f1d1d", "section.7.text": "#fee2e2",
				}},
			},
		},
		{
			Name:    "print",
			Version: "1.0.0",
			Tokens: map[string]string{
				"section.0.bg": "#ffffff", "section.0.text": "#000000",
				"section.1.bg": "#f5f5f5", "section.1.text": "#000000",
				"section.2.bg": "#ebebeb", "section.2.text": "#000000",
				"section.3.bg": "#e0e0e0", "section.3.text": "#000000",
				"section.4.bg": "#ffffff", "section.4.text": "#000000",
				"section.5.bg": "#f5f5f5", "section.5.text": "#000000",
				"section.6.bg": "#ebebeb", "section.6.text": "#000000",
				"section.7.bg": "#e0e0e0", "section.7.text": "#000000",
			},
		},
	}
}
