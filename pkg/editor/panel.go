package editor

import (
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

// PanelField is one editable row of the property panel.
type PanelField struct {
	domain.FieldDefinition
	Value any `json:"value"`
	// Missing marks a required field that is still empty.
	Missing bool `json:"missing,omitempty"`
}

// PropertyPanel describes the side panel for the selected node.
type PropertyPanel struct {
	NodeID    string       `json:"nodeId"`
	TypeID    string       `json:"typeId"`
	TypeLabel string       `json:"typeLabel"`
	Title     string       `json:"title"`
	Color     string       `json:"color,omitempty"`
	Fields    []PanelField `json:"fields"`
	// Unknown is set when the node's type is missing from the catalog.
	Unknown bool `json:"unknown,omitempty"`
}

// Panel returns the property panel of the selected node, or false when no node is selected.
func (s *Session) Panel() (PropertyPanel, bool) {
	if s.sel.NodeID == "" {
		return PropertyPanel{}, false
	}
	n, ok := s.model.Node(s.sel.NodeID)
	if !ok {
		return PropertyPanel{}, false
	}
	def, known := s.model.Registry().Get(n.Type)
	panel := PropertyPanel{
		NodeID:    n.ID,
		TypeID:    n.Type,
		TypeLabel: def.Label,
		Title:     n.DisplayTitle(&def),
		Color:     def.Color,
		Fields:    make([]PanelField, 0, len(def.Fields)),
		Unknown:   !known,
	}
	if !known {
		panel.TypeLabel = n.Type
		panel.Title = n.DisplayTitle(nil)
	}
	for _, f := range def.Fields {
		v := n.Data[f.Name]
		panel.Fields = append(panel.Fields, PanelField{
			FieldDefinition: f,
			Value:           v,
			Missing:         f.Required && isEmpty(v),
		})
	}
	return panel, true
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	default:
		return false
	}
}

// PaletteItem is a draggable node type.
type PaletteItem struct {
	TypeID string `json:"typeId"`
	Label  string `json:"label"`
	Color  string `json:"color,omitempty"`
	Icon   string `json:"icon,omitempty"`
	// Disabled is set when the path already holds the type's maximum number of instances.
	Disabled bool `json:"disabled,omitempty"`
}

// PaletteGroup is one category of the palette.
type PaletteGroup struct {
	Category domain.Category `json:"category"`
	Items    []PaletteItem   `json:"items"`
}

// Palette lists the node types grouped by category, in catalog order.
func (s *Session) Palette() []PaletteGroup {
	return BuildPalette(s.model.Registry(), s.model.Path())
}

// BuildPalette groups reg's types for display; types at capacity in path are disabled.
func BuildPalette(reg *registry.Registry, path *domain.LearningPath) []PaletteGroup {
	groups := reg.List()
	out := make([]PaletteGroup, 0, len(groups))
	for _, g := range groups {
		pg := PaletteGroup{Category: g.Category, Items: make([]PaletteItem, 0, len(g.Types))}
		for _, def := range g.Types {
			pg.Items = append(pg.Items, PaletteItem{
				TypeID:   def.ID,
				Label:    def.Label,
				Color:    def.Color,
				Icon:     def.Icon,
				Disabled: path != nil && def.MaxInstances > 0 && path.CountType(def.ID) >= def.MaxInstances,
			})
		}
		out = append(out, pg)
	}
	return out
}
