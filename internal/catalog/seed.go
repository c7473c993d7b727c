// internal/catalog/seed.go
//
// Seed loading for the association catalog.
//
// Source selection (LoadSeed):
//   1. If a path is given (CATALOG_FILE), read that YAML file.
//   2. Otherwise fall back to the embedded assets/catalog.yaml.
//
// File shape:
//
//	associations:
//	  - number: 7
//	    hero: Pirate
//	    action: digging
//	    object: treasure
//	    explanation: "7 is a pirate's shovel."
//	    primary: true

package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/numberhero/assets"
)

type seedFile struct {
	Associations []Association `yaml:"associations"`
}

// LoadSeed reads associations from path, or from the embedded default
// catalog when path is empty.
func LoadSeed(path string) ([]Association, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = assets.DefaultCatalog()
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(data []byte) ([]Association, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog seed: %w", err)
	}
	for i := range f.Associations {
		a := &f.Associations[i]
		a.Hero = strings.TrimSpace(a.Hero)
		a.Action = strings.TrimSpace(a.Action)
		a.Object = strings.TrimSpace(a.Object)
		a.Explanation = strings.TrimSpace(a.Explanation)
		if a.Number < 0 || a.Number > 99 {
			return nil, fmt.Errorf("catalog seed entry %d: number %d out of range 0-99", i, a.Number)
		}
		if a.Hero == "" || a.Action == "" || a.Object == "" {
			return nil, fmt.Errorf("catalog seed entry %d: hero, action and object are required", i)
		}
	}
	return f.Associations, nil
}

// Seed upserts every association into c and returns how many were written.
func Seed(ctx context.Context, c Catalog, list []Association) (int, error) {
	for i, a := range list {
		if _, err := c.Upsert(ctx, a); err != nil {
			return i, fmt.Errorf("seed number %d: %w", a.Number, err)
		}
	}
	return len(list), nil
}
