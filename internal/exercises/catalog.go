package exercises

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed catalog.toml
var defaultCatalogTOML []byte

const maxSearchResults = 50

type catalogFile struct {
	MuscleGroups []MuscleGroup `toml:"muscle_groups"`
}

// Catalog is the immutable set of muscle groups and exercises.
type Catalog struct {
	groups    []MuscleGroup
	byID      map[string]Exercise
	groupName map[string]string
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogTOML)
}

// ParseCatalog decodes a TOML catalog. Blank or duplicate ids are rejected.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, fmt.Errorf("decode exercise catalog: %w", err)
	}

	c := &Catalog{
		groups:    make([]MuscleGroup, 0, len(file.MuscleGroups)),
		byID:      make(map[string]Exercise),
		groupName: make(map[string]string),
	}

	for _, g := range file.MuscleGroups {
		g.ID = strings.TrimSpace(g.ID)
		if g.ID == "" {
			return nil, fmt.Errorf("muscle group %q has no id", g.Name)
		}
		if _, dup := c.groupName[g.ID]; dup {
			return nil, fmt.Errorf("duplicate muscle group id %q", g.ID)
		}
		c.groupName[g.ID] = g.Name

		exercises := make([]Exercise, 0, len(g.Exercises))
		for _, ex := range g.Exercises {
			ex.ID = strings.TrimSpace(ex.ID)
			if ex.ID == "" {
				return nil, fmt.Errorf("exercise %q in group %q has no id", ex.Name, g.ID)
			}
			if _, dup := c.byID[ex.ID]; dup {
				return nil, fmt.Errorf("duplicate exercise id %q", ex.ID)
			}
			ex.MuscleGroupID = g.ID
			c.byID[ex.ID] = ex
			exercises = append(exercises, ex)
		}
		g.Exercises = exercises
		c.groups = append(c.groups, g)
	}

	return c, nil
}

// MuscleGroups returns a copy of the groups in catalog order.
func (c *Catalog) MuscleGroups() []MuscleGroup {
	out := make([]MuscleGroup, len(c.groups))
	for i, g := range c.groups {
		g.Exercises = append([]Exercise(nil), g.Exercises...)
		out[i] = g
	}
	return out
}

// Exercise looks an exercise up by id.
func (c *Catalog) Exercise(id string) (Exercise, bool) {
	ex, ok := c.byID[id]
	return ex, ok
}

// Len returns the number of exercises.
func (c *Catalog) Len() int {
	return len(c.byID)
}

// Search matches the query as a case-insensitive substring of the exercise
// name or its muscle group name. Results are sorted by name.
func (c *Catalog) Search(query string) []Exercise {
	q := NormalizeQuery(query)
	if q == "" {
		return []Exercise{}
	}

	results := []Exercise{}
	for _, ex := range c.byID {
		if strings.Contains(strings.ToLower(ex.Name), q) ||
			strings.Contains(strings.ToLower(c.groupName[ex.MuscleGroupID]), q) {
			results = append(results, ex)
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results
}

// NormalizeQuery lower-cases and collapses whitespace.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}
