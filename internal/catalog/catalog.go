// Package catalog holds the tool schemas a client statically trusts for each
// tool server, and computes drift against the tool set a server actually
// exposes.
package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Descriptor is one trusted tool schema entry. InputSchema is required; an
// entry without one is structurally invalid and shows up as a malformed
// finding during reconciliation.
type Descriptor struct {
	Description string         `yaml:"description" validate:"omitempty,min=1"`
	InputSchema map[string]any `yaml:"inputSchema" validate:"required"`
}

// Valid reports structural validity without raising.
func (d Descriptor) Valid() bool {
	return validate.Struct(d) == nil
}

// Catalog maps tool names to trusted descriptors for a single server.
type Catalog struct {
	Server string                `yaml:"server" validate:"required,min=1"`
	Tools  map[string]Descriptor `yaml:"tools"`
}

// New builds a catalog, enforcing descriptor validity at construction time.
// Use this for programmatic catalogs; file-loaded catalogs go through Load,
// which preserves malformed entries so the audit can report them.
func New(server string, tools map[string]Descriptor) (*Catalog, error) {
	c := &Catalog{Server: server, Tools: tools}
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("catalog for %q: %w", server, err)
	}
	for name, d := range tools {
		if !d.Valid() {
			return nil, fmt.Errorf("catalog for %q: tool %q has no input schema", server, name)
		}
	}
	return c, nil
}

// Load reads a catalog YAML file. Malformed descriptors are kept as-is:
// rejecting them here would hide exactly the drift the reconciler exists to
// surface.
func Load(fsys afero.Fs, path string) (*Catalog, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if c.Server == "" {
		return nil, fmt.Errorf("catalog %s: missing server name", path)
	}
	return &c, nil
}

// Names returns the cataloged tool names, unsorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Tools))
	for name := range c.Tools {
		names = append(names, name)
	}
	return names
}
