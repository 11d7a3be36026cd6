// Package templates holds the descriptors of the three contract templates.
package templates

import (
	_ "embed"
	"fmt"
	"os"

	"FIT-CONTRACTS/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type catalogFile struct {
	Templates []models.TemplateDescriptor `yaml:"templates"`
}

// Catalog maps each document kind to its descriptor.
type Catalog struct {
	byKind map[models.DocumentKind]models.TemplateDescriptor
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template catalog: %w", err)
	}
	return Parse(data)
}

// Parse validates that every document kind is described exactly once and
// that field kinds are known.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template catalog: %w", err)
	}

	c := &Catalog{byKind: make(map[models.DocumentKind]models.TemplateDescriptor)}
	for _, d := range file.Templates {
		kind, err := models.ParseDocumentKind(string(d.Kind))
		if err != nil {
			return nil, err
		}
		if _, dup := c.byKind[kind]; dup {
			return nil, fmt.Errorf("template catalog: %s described twice", kind)
		}
		if d.Name == "" {
			return nil, fmt.Errorf("template catalog: %s has no name", kind)
		}
		seen := make(map[string]bool)
		for i, f := range d.Fields {
			switch f.Kind {
			case models.FieldText, models.FieldCheckbox, models.FieldSignature:
			case "":
				d.Fields[i].Kind = models.FieldText
			default:
				return nil, fmt.Errorf("template catalog: %s field %q has unknown kind %q", d.Name, f.Name, f.Kind)
			}
			if seen[f.Name] {
				return nil, fmt.Errorf("template catalog: %s declares %q twice", d.Name, f.Name)
			}
			seen[f.Name] = true
		}
		d.Kind = kind
		c.byKind[kind] = d
	}

	for _, kind := range models.DocumentKinds {
		if _, ok := c.byKind[kind]; !ok {
			return nil, fmt.Errorf("template catalog: no template for %s", kind)
		}
	}
	return c, nil
}

func (c *Catalog) Get(kind models.DocumentKind) (models.TemplateDescriptor, bool) {
	d, ok := c.byKind[kind]
	return d, ok
}

// All returns descriptors in models.DocumentKinds order.
func (c *Catalog) All() []models.TemplateDescriptor {
	out := make([]models.TemplateDescriptor, 0, len(c.byKind))
	for _, kind := range models.DocumentKinds {
		out = append(out, c.byKind[kind])
	}
	return out
}
