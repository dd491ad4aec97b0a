package schema

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// Type defines the contract for field validation.
// Implementations determine how values are validated against a type.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType validates numeric values.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// URLType validates absolute http(s) URLs. The empty string is accepted.
type URLType struct{}

func (t *URLType) Name() string { return "url" }

func (t *URLType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected url string, got %T", value)
	}
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("expected absolute http(s) url, got %q", s)
	}
	return nil
}

// OneOfType validates that a string is one of a fixed option set. The empty string is accepted.
type OneOfType struct {
	options []string
}

func (t *OneOfType) Name() string {
	return fmt.Sprintf("oneof(%s)", strings.Join(t.options, "|"))
}

func (t *OneOfType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if s == "" {
		return nil
	}
	for _, opt := range t.options {
		if opt == s {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %v", s, t.options)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a numeric type validator.
func Number() Type { return &NumberType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// URL creates an absolute URL validator.
func URL() Type { return &URLType{} }

// OneOf creates an enumerated string validator.
func OneOf(options ...string) Type {
	return &OneOfType{options: append([]string(nil), options...)}
}

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ForField returns the Type implied by a field definition's kind.
func ForField(f domain.FieldDefinition) (Type, error) {
	switch f.Kind {
	case domain.FieldText, domain.FieldTextarea, domain.FieldRichText, domain.FieldContentRef:
		return String(), nil
	case domain.FieldURL:
		return URL(), nil
	case domain.FieldNumber:
		return Number(), nil
	case domain.FieldCheckbox:
		return Bool(), nil
	case domain.FieldSelect:
		if len(f.Options) == 0 {
			return nil, fmt.Errorf("select field %s declares no options", f.Name)
		}
		return OneOf(f.Options...), nil
	default:
		return nil, fmt.Errorf("unsupported field kind: %s", f.Kind)
	}
}
