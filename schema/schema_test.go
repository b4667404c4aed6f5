package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	type input struct {
		raw map[string]any
	}

	type expected struct {
		isNil  bool
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "nil schema compiles to nil",
			input: input{raw: nil},
			expected: expected{
				isNil: true,
			},
		},
		{
			name: "valid schema compiles",
			input: input{
				raw: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
				},
			},
			expected: expected{},
		},
		{
			name: "invalid type keyword fails",
			input: input{
				raw: map[string]any{"type": "not-a-type"},
			},
			expected: expected{
				hasErr: true,
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Compile(tc.input.raw)

			if tc.expected.hasErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			if tc.expected.isNil {
				assert.Nil(t, s)
			} else {
				require.NotNil(t, s)
				assert.Equal(t, tc.input.raw, s.Raw())
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	type input struct {
		schema map[string]any
		data   any
	}

	type expected struct {
		hasErr bool
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name: "valid data passes",
			input: input{
				schema: Object(map[string]*Property{
					"name": String("User name"),
					"age":  Integer("Age in years"),
				}, "name"),
				data: map[string]any{"name": "John", "age": 30},
			},
			expected: expected{},
		},
		{
			name: "missing required field fails",
			input: input{
				schema: Object(map[string]*Property{
					"name": String("User name"),
				}, "name"),
				data: map[string]any{},
			},
			expected: expected{hasErr: true},
		},
		{
			name: "wrong type fails",
			input: input{
				schema: Object(map[string]*Property{
					"age": Integer("Age"),
				}, "age"),
				data: map[string]any{"age": "thirty"},
			},
			expected: expected{hasErr: true},
		},
		{
			name: "extension field accepted by open schema",
			input: input{
				schema: Object(map[string]*Property{
					"city": String("City"),
				}, "city"),
				data: map[string]any{"city": "Paris", "unexpected": true},
			},
			expected: expected{},
		},
		{
			name: "extension field rejected by closed schema",
			input: input{
				schema: Closed(Object(map[string]*Property{
					"city": String("City"),
				}, "city")),
				data: map[string]any{"city": "Paris", "unexpected": true},
			},
			expected: expected{hasErr: true},
		},
		{
			name: "enum constraint enforced",
			input: input{
				schema: Object(map[string]*Property{
					"status": String("Status").Enum("pending", "active"),
				}, "status"),
				data: map[string]any{"status": "closed"},
			},
			expected: expected{hasErr: true},
		},
		{
			name: "numeric range enforced",
			input: input{
				schema: Object(map[string]*Property{
					"limit": Integer("Max results").Min(1).Max(100),
				}, "limit"),
				data: map[string]any{"limit": float64(500)},
			},
			expected: expected{hasErr: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s, err := Compile(tc.input.schema)
			require.NoError(t, err)

			err = s.Validate(tc.input.data)

			if tc.expected.hasErr {
				require.Error(t, err)
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSchema_ValidateNilAcceptsEverything(t *testing.T) {
	var s *Schema
	assert.NoError(t, s.Validate(map[string]any{"anything": "goes"}))
}

func TestObject(t *testing.T) {
	s := Object(map[string]*Property{
		"query": String("Search query").MinLength(1),
		"tags":  Array("Tags", map[string]any{"type": "string"}),
	}, "query")

	assert.Equal(t, "object", s["type"])
	assert.Equal(t, []string{"query"}, s["required"])

	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "query")
	assert.Contains(t, props, "tags")
}

func TestMustCompile_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		MustCompile(map[string]any{"type": "not-a-type"})
	})
}
