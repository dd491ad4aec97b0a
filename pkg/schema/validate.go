package schema

import (
	"sort"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// Schema is a map of field names to their expected types.
type Schema map[string]Type

// FromFields builds a schema covering every field that declares a default value.
func FromFields(fields []domain.FieldDefinition) (Schema, error) {
	s := make(Schema)
	for _, f := range fields {
		if f.Default == nil {
			continue
		}
		t, err := ForField(f)
		if err != nil {
			return nil, err
		}
		s[f.Name] = t
	}
	return s, nil
}

// Validate checks if data conforms to the schema.
// Returns an error with all validation failures found.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	names := make([]string, 0, len(schema))
	for name := range schema {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, fieldName := range names {
		fieldType := schema[fieldName]
		value, exists := data[fieldName]
		if !exists {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
				Value:  nil,
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

// ValidateValue checks a single value against the kind of a field definition.
func ValidateValue(f domain.FieldDefinition, value any) error {
	t, err := ForField(f)
	if err != nil {
		return err
	}
	if err := t.Validate(value); err != nil {
		return &ValidationError{Key: f.Name, Reason: err.Error(), Value: value}
	}
	return nil
}

// NumberValue reads a numeric field as float64.
func NumberValue(data map[string]any, name string) (float64, bool) {
	switch v := data[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	default:
		return 0, false
	}
}
