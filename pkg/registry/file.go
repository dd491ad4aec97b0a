package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// catalogFile is the on-disk layout of an extra node-type catalog.
type catalogFile struct {
	NodeTypes []domain.NodeTypeDefinition `yaml:"node_types"`
}

// Parse decodes a YAML catalog and returns its definitions.
func Parse(data []byte) ([]domain.NodeTypeDefinition, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	for i := range cf.NodeTypes {
		def := &cf.NodeTypes[i]
		if def.Category == "" {
			def.Category = domain.CategoryContent
		}
		if def.Inputs == nil {
			def.Inputs = []string{}
		}
		if def.Outputs == nil {
			def.Outputs = []string{}
		}
	}
	return cf.NodeTypes, nil
}

// Load builds a registry from the built-in catalog extended (or overridden) by the YAML file at path.
// An empty path yields the built-in catalog.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	extra, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(append(Builtin(), extra...)...)
}
