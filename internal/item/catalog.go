package item

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// WashSpec gives the per-unit cost of washing a soiled item and the clean
// kind it turns into.
type WashSpec struct {
	Water    float64 `json:"water" yaml:"water"`
	Cleanser float64 `json:"cleanser" yaml:"cleanser"`
	Moves    int     `json:"moves" yaml:"moves"`
	Becomes  ID      `json:"becomes" yaml:"becomes"`
}

// Definition describes an item kind.
type Definition struct {
	ID   ID        `json:"id" yaml:"id"`
	Name string    `json:"name" yaml:"name"`
	Wash *WashSpec `json:"wash,omitempty" yaml:"wash,omitempty"`
}

// Validate checks the definition for consistency.
func (d *Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("item id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("item %q: name is required", d.ID)
	}
	if w := d.Wash; w != nil {
		if w.Becomes == "" {
			return fmt.Errorf("item %q: wash.becomes is required", d.ID)
		}
		if w.Becomes == d.ID {
			return fmt.Errorf("item %q: cannot wash into itself", d.ID)
		}
		if w.Water < 0 || w.Cleanser < 0 {
			return fmt.Errorf("item %q: wash costs cannot be negative", d.ID)
		}
		if w.Moves <= 0 {
			return fmt.Errorf("item %q: wash.moves must be positive", d.ID)
		}
	}
	return nil
}

// Catalog holds the item definitions known to a simulation.
type Catalog struct {
	defs map[ID]*Definition
}

// NewCatalog creates an empty item catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		defs: make(map[ID]*Definition),
	}
}

// Register adds a definition to the catalog.
func (c *Catalog) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, exists := c.defs[def.ID]; exists {
		return fmt.Errorf("item %q already registered", def.ID)
	}
	c.defs[def.ID] = def
	return nil
}

// Get returns the definition with the given id, or nil.
func (c *Catalog) Get(id ID) *Definition {
	return c.defs[id]
}

// Name returns the display name for id, falling back to the raw id when
// the catalog does not know it.
func (c *Catalog) Name(id ID) string {
	if def := c.defs[id]; def != nil {
		return def.Name
	}
	return string(id)
}

// Washable returns the wash spec for id, or nil when the item cannot be
// washed.
func (c *Catalog) Washable(id ID) *WashSpec {
	if def := c.defs[id]; def != nil {
		return def.Wash
	}
	return nil
}

// IDs returns all registered item ids sorted alphabetically.
func (c *Catalog) IDs() []ID {
	ids := make([]ID, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Validate checks cross-references: every wash.becomes must resolve to a
// registered item.
func (c *Catalog) Validate() error {
	for id, def := range c.defs {
		if def.Wash == nil {
			continue
		}
		if _, ok := c.defs[def.Wash.Becomes]; !ok {
			return fmt.Errorf("item %q: wash.becomes %q is not in the catalog", id, def.Wash.Becomes)
		}
	}
	return nil
}

// catalogFile is the on-disk shape of a catalog YAML document.
type catalogFile struct {
	Items []*Definition `yaml:"items"`
}

// LoadDir scans a directory for *.yaml item files and registers their
// definitions. Files that fail to parse are skipped with a warning.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("items directory not found, skipping", "dir", dir)
			return nil
		}
		return fmt.Errorf("read items dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read item file", "path", path, "error", err)
			continue
		}

		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			slog.Warn("failed to parse item file", "path", path, "error", err)
			continue
		}

		for _, def := range file.Items {
			if err := c.Register(def); err != nil {
				slog.Warn("failed to register item", "path", path, "error", err)
			}
		}
	}

	return nil
}

// Default returns a catalog with the built-in item kinds. Data directories
// loaded on top of it may extend but not redefine these.
func Default() *Catalog {
	c := NewCatalog()
	for _, def := range []*Definition{
		{ID: "water", Name: "water"},
		{ID: "detergent", Name: "detergent"},
		{ID: "rag", Name: "rag"},
		{ID: "rag_soiled", Name: "soiled rag", Wash: &WashSpec{Water: 1, Cleanser: 0.5, Moves: 5, Becomes: "rag"}},
		{ID: "shirt", Name: "shirt"},
		{ID: "shirt_soiled", Name: "soiled shirt", Wash: &WashSpec{Water: 2, Cleanser: 1, Moves: 10, Becomes: "shirt"}},
		{ID: "trousers", Name: "trousers"},
		{ID: "trousers_soiled", Name: "soiled trousers", Wash: &WashSpec{Water: 3, Cleanser: 1.5, Moves: 12, Becomes: "trousers"}},
		{ID: "earth", Name: "pile of earth"},
		{ID: "stone", Name: "stone"},
	} {
		if err := c.Register(def); err != nil {
			// Built-ins are fixed at compile time; a failure here is a
			// programming error.
			panic(err)
		}
	}
	return c
}
