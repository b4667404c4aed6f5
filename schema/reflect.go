package schema

import (
	"reflect"
	"strings"
	"time"
)

// For generates a JSON Schema from a Go type using reflection.
//
// Supports primitives, pointers, structs, slices, maps, time.Time and
// time.Duration. Struct fields follow `json` tags: a field is required
// unless it is a pointer or tagged omitempty, and a `description` tag
// becomes the property description.
//
//	type Order struct {
//	    OrderID string   `json:"order_id"`
//	    Items   []string `json:"items"`
//	    Total   float64  `json:"total" description:"Total in USD"`
//	    Note    *string  `json:"note"` // optional
//	}
//
//	raw := schema.For[Order]()
func For[T any]() map[string]any {
	var zero T
	return FromType(reflect.TypeOf(zero))
}

// FromType is the non-generic form of [For].
func FromType(t reflect.Type) map[string]any {
	if t == nil {
		return map[string]any{"type": "null"}
	}

	// Pointers are nullable.
	if t.Kind() == reflect.Ptr {
		s := FromType(t.Elem())
		if typeVal, ok := s["type"].(string); ok {
			s["type"] = []string{typeVal, "null"}
		}
		return s
	}

	if t == reflect.TypeFor[time.Time]() {
		return map[string]any{
			"type":   "string",
			"format": "date-time",
		}
	}

	if t == reflect.TypeFor[time.Duration]() {
		return map[string]any{
			"type":        "string",
			"description": "Duration string (e.g., '1h30m', '2s')",
		}
	}

	switch t.Kind() {
	case reflect.String:
		return map[string]any{"type": "string"}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"type": "integer"}

	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}

	case reflect.Bool:
		return map[string]any{"type": "boolean"}

	case reflect.Slice, reflect.Array:
		return map[string]any{
			"type":  "array",
			"items": FromType(t.Elem()),
		}

	case reflect.Map:
		return map[string]any{
			"type":                 "object",
			"additionalProperties": FromType(t.Elem()),
		}

	case reflect.Struct:
		return structSchema(t)

	default:
		return map[string]any{}
	}
}

func structSchema(t reflect.Type) map[string]any {
	properties := make(map[string]any)
	required := make([]string, 0)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		fieldName := field.Name
		omitempty := false

		if jsonTag != "" {
			parts := strings.Split(jsonTag, ",")
			if parts[0] != "" {
				fieldName = parts[0]
			}
			for _, part := range parts[1:] {
				if part == "omitempty" {
					omitempty = true
				}
			}
		}

		fieldSchema := FromType(field.Type)
		if desc := field.Tag.Get("description"); desc != "" {
			fieldSchema["description"] = desc
		}

		properties[fieldName] = fieldSchema

		if !omitempty && field.Type.Kind() != reflect.Ptr {
			required = append(required, fieldName)
		}
	}

	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}

	if len(required) > 0 {
		s["required"] = required
	}

	return s
}
