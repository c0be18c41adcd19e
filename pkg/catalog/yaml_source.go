package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSource loads product definitions from a YAML file. Deployments ship
// the catalog alongside the binary and reload it by restarting, the same
// way plan lists are bootstrapped elsewhere in the platform.
type yamlSource struct {
	path string
}

// NewYAMLSource returns a Source reading product definitions from path.
func NewYAMLSource(path string) Source {
	return &yamlSource{path: path}
}

func (s *yamlSource) Load(ctx context.Context) (map[string]Product, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	var defs struct {
		Products []Product `yaml:"products"`
	}
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}

	products := make(map[string]Product, len(defs.Products))
	for _, p := range defs.Products {
		if err := p.Validate(); err != nil {
			return nil, errors.Join(ErrFailedToLoadCatalog, err)
		}
		if _, dup := products[p.Code]; dup {
			return nil, errors.Join(ErrFailedToLoadCatalog, fmt.Errorf("duplicate product code %q", p.Code))
		}
		products[p.Code] = p
	}
	return products, nil
}
