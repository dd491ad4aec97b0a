package domain

// Built-in node type identifiers.
const (
	// NodeTypeStart is the single entry point of a path.
	NodeTypeStart = "start"
	// NodeTypeEnd renders the completion message and closes the path.
	NodeTypeEnd = "end"
	// NodeTypeGate requires an acknowledgement before continuing.
	NodeTypeGate = "gate"
	// NodeTypeBranch offers two alternative downstream paths.
	NodeTypeBranch = "branch"

	NodeTypeTheory     = "theory"
	NodeTypeVideo      = "video"
	NodeTypeQuiz       = "quiz"
	NodeTypeAssignment = "assignment"
	NodeTypeResource   = "resource"

	// NodeTypeH5P embeds an interactive content package by reference.
	NodeTypeH5P = "h5p"
)

// Well-known port names.
const (
	PortNext  = "next"
	PortPrev  = "prev"
	PortPathA = "pathA"
	PortPathB = "pathB"
)

// Category groups node types in the editor palette.
type Category string

const (
	CategoryControl Category = "control"
	CategoryContent Category = "content"
	CategoryPackage Category = "package"
)

// FieldKind tells clients how a field is edited. It implies, but does not enforce, a value type.
type FieldKind string

const (
	FieldText       FieldKind = "text"
	FieldTextarea   FieldKind = "textarea"
	FieldRichText   FieldKind = "richtext"
	FieldURL        FieldKind = "url"
	FieldNumber     FieldKind = "number"
	FieldCheckbox   FieldKind = "checkbox"
	FieldSelect     FieldKind = "select"
	FieldContentRef FieldKind = "content-reference"
)

// FieldDefinition describes one entry of a node's data map.
type FieldDefinition struct {
	Name     string    `json:"name" yaml:"name"`
	Label    string    `json:"label,omitempty" yaml:"label,omitempty"`
	Kind     FieldKind `json:"type" yaml:"type"`
	Required bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any       `json:"default,omitempty" yaml:"default,omitempty"`
	// Options enumerates the allowed values of a select field.
	Options []string `json:"options,omitempty" yaml:"options,omitempty"`
}

// Role is what a node type does during traversal.
type Role string

const (
	// RoleContent is a step the learner reads or does, then continues. It is the default.
	RoleContent Role = "content"
	// RoleStart marks the single entry point of a path.
	RoleStart Role = "start"
	// RoleEnd completes the path when entered.
	RoleEnd Role = "end"
	// RoleGate needs an acknowledgement; leaving it marks the node passed.
	RoleGate Role = "gate"
	// RoleBranch offers a choice between its output ports.
	RoleBranch Role = "branch"
)

// Valid reports whether r is a known role. The empty role is valid and means RoleContent.
func (r Role) Valid() bool {
	switch r {
	case "", RoleContent, RoleStart, RoleEnd, RoleGate, RoleBranch:
		return true
	}
	return false
}

// NodeTypeDefinition is the schema of a category of learning-path step.
// All editor, validator and traversal logic consults this schema instead of switching on type ids.
type NodeTypeDefinition struct {
	ID       string   `json:"id" yaml:"id"`
	Label    string   `json:"label" yaml:"label"`
	Category Category `json:"category" yaml:"category"`
	Color    string   `json:"color,omitempty" yaml:"color,omitempty"`
	Icon     string   `json:"icon,omitempty" yaml:"icon,omitempty"`
	Role     Role     `json:"role,omitempty" yaml:"role,omitempty"`

	// MaxInstances caps how many nodes of this type a path may hold. Zero means unlimited.
	MaxInstances int `json:"maxInstances,omitempty" yaml:"max_instances,omitempty"`

	Inputs  []string          `json:"inputs" yaml:"inputs"`
	Outputs []string          `json:"outputs" yaml:"outputs"`
	Fields  []FieldDefinition `json:"fields" yaml:"fields"`
}

// Behavior returns the traversal role, RoleContent when none is declared.
func (d NodeTypeDefinition) Behavior() Role {
	if d.Role == "" {
		return RoleContent
	}
	return d.Role
}

// HasInput reports whether port is one of the declared input ports.
func (d NodeTypeDefinition) HasInput(port string) bool {
	return contains(d.Inputs, port)
}

// HasOutput reports whether port is one of the declared output ports.
func (d NodeTypeDefinition) HasOutput(port string) bool {
	return contains(d.Outputs, port)
}

// Field looks up a field definition by name.
func (d NodeTypeDefinition) Field(name string) (FieldDefinition, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDefinition{}, false
}

// PrimaryOutput returns the default forward port: "next" when declared,
// otherwise the first declared output. Empty for sink types.
func (d NodeTypeDefinition) PrimaryOutput() string {
	if d.HasOutput(PortNext) {
		return PortNext
	}
	if len(d.Outputs) > 0 {
		return d.Outputs[0]
	}
	return ""
}

// DefaultData builds a fresh data map from each field's default value.
func (d NodeTypeDefinition) DefaultData() map[string]any {
	data := make(map[string]any, len(d.Fields))
	for _, f := range d.Fields {
		if f.Default != nil {
			data[f.Name] = f.Default
			continue
		}
		data[f.Name] = zeroValue(f.Kind)
	}
	return data
}

func zeroValue(kind FieldKind) any {
	switch kind {
	case FieldCheckbox:
		return false
	case FieldNumber:
		return nil
	default:
		return ""
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
