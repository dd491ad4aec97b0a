// Package schema provides the value types behind node field kinds.
//
// Every domain.FieldKind maps to a Type that knows how to check a value:
// text-like kinds expect strings, "url" expects an absolute http(s) URL, "number"
// accepts any numeric value (including JSON floats), "checkbox" expects a bool and
// "select" expects one of the declared options.
//
//	s := schema.FromFields(def.Fields)
//	if err := schema.Validate(s, def.DefaultData()); err != nil {
//	    // a default does not match its field kind
//	}
//
// Values are never coerced. The editor writes free-form values into node data;
// this package is used where a value must be trusted, such as catalog defaults
// and typed reads of node settings.
package schema
