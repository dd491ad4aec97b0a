package registry

import (
	"fmt"
	"sort"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/schema"
)

// Registry is the catalog of node types. It is immutable once built and safe for concurrent reads.
type Registry struct {
	defs  map[string]domain.NodeTypeDefinition
	order []string
}

// Group is one palette section: every definition sharing a category.
type Group struct {
	Category domain.Category             `json:"category"`
	Types    []domain.NodeTypeDefinition `json:"types"`
}

var categoryOrder = []domain.Category{
	domain.CategoryControl,
	domain.CategoryContent,
	domain.CategoryPackage,
}

// New builds a registry from definitions. Later definitions replace earlier ones with the same id,
// keeping the original position in the listing. A replacement without a role keeps the replaced role.
func New(defs ...domain.NodeTypeDefinition) (*Registry, error) {
	r := &Registry{defs: make(map[string]domain.NodeTypeDefinition, len(defs))}
	for _, def := range defs {
		prev, exists := r.defs[def.ID]
		if exists && def.Role == "" {
			def.Role = prev.Role
		}
		if err := check(def); err != nil {
			return nil, err
		}
		if !exists {
			r.order = append(r.order, def.ID)
		}
		r.defs[def.ID] = clone(def)
	}
	return r, nil
}

// Default returns the built-in catalog.
func Default() *Registry {
	r, err := New(Builtin()...)
	if err != nil {
		panic(fmt.Sprintf("registry: builtin catalog is invalid: %v", err))
	}
	return r
}

// Get looks up a node type by id.
func (r *Registry) Get(typeID string) (domain.NodeTypeDefinition, bool) {
	def, ok := r.defs[typeID]
	if !ok {
		return domain.NodeTypeDefinition{}, false
	}
	return clone(def), true
}

// Lookup is Get returning domain.ErrUnknownNodeType for unknown ids.
func (r *Registry) Lookup(typeID string) (domain.NodeTypeDefinition, error) {
	def, ok := r.Get(typeID)
	if !ok {
		return def, fmt.Errorf("%w: %s", domain.ErrUnknownNodeType, typeID)
	}
	return def, nil
}

// RoleOf returns the traversal role of a node type. Unknown types are content.
func (r *Registry) RoleOf(typeID string) domain.Role {
	def, ok := r.defs[typeID]
	if !ok {
		return domain.RoleContent
	}
	return def.Behavior()
}

// Definitions returns every definition in registration order.
func (r *Registry) Definitions() []domain.NodeTypeDefinition {
	out := make([]domain.NodeTypeDefinition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, clone(r.defs[id]))
	}
	return out
}

// List returns all definitions grouped by category, for palette rendering.
// Known categories come first in a fixed order, unknown ones follow alphabetically.
func (r *Registry) List() []Group {
	byCat := make(map[domain.Category][]domain.NodeTypeDefinition)
	for _, def := range r.Definitions() {
		byCat[def.Category] = append(byCat[def.Category], def)
	}

	var groups []Group
	for _, cat := range categoryOrder {
		if types, ok := byCat[cat]; ok {
			groups = append(groups, Group{Category: cat, Types: types})
			delete(byCat, cat)
		}
	}

	var extra []string
	for cat := range byCat {
		extra = append(extra, string(cat))
	}
	sort.Strings(extra)
	for _, cat := range extra {
		groups = append(groups, Group{Category: domain.Category(cat), Types: byCat[domain.Category(cat)]})
	}
	return groups
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.order)
}

func check(def domain.NodeTypeDefinition) error {
	if def.ID == "" {
		return fmt.Errorf("node type without id")
	}
	if def.MaxInstances < 0 {
		return fmt.Errorf("node type %s: negative max instances", def.ID)
	}
	if !def.Role.Valid() {
		return fmt.Errorf("node type %s: unknown role %q", def.ID, def.Role)
	}
	if def.Role == domain.RoleBranch && len(def.Outputs) < 2 {
		return fmt.Errorf("node type %s: a branch needs at least two outputs", def.ID)
	}
	seen := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		if f.Name == "" {
			return fmt.Errorf("node type %s: field without name", def.ID)
		}
		if seen[f.Name] {
			return fmt.Errorf("node type %s: duplicate field %s", def.ID, f.Name)
		}
		seen[f.Name] = true
	}
	s, err := schema.FromFields(def.Fields)
	if err != nil {
		return fmt.Errorf("node type %s: %w", def.ID, err)
	}
	if err := schema.Validate(s, def.DefaultData()); err != nil {
		return fmt.Errorf("node type %s: invalid default: %w", def.ID, err)
	}
	return nil
}

func clone(def domain.NodeTypeDefinition) domain.NodeTypeDefinition {
	def.Inputs = append([]string{}, def.Inputs...)
	def.Outputs = append([]string{}, def.Outputs...)
	fields := make([]domain.FieldDefinition, len(def.Fields))
	for i, f := range def.Fields {
		f.Options = append([]string(nil), f.Options...)
		fields[i] = f
	}
	def.Fields = fields
	return def
}
