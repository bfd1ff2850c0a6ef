// Package tableschema validates delimited files against a Frictionless-style
// Table Schema: field names and types, per-field constraints, uniqueness and
// primary keys.
package tableschema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/jsonschema"
)

//go:embed metaschema.json
var metaSchemaJSON []byte

const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeAny     = "any"
)

var (
	defaultTrueValues  = []string{"true", "True", "TRUE", "1"}
	defaultFalseValues = []string{"false", "False", "FALSE", "0"}
)

type Constraints struct {
	Required  bool     `json:"required,omitempty"`
	Unique    bool     `json:"unique,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`
	Minimum   *float64 `json:"minimum,omitempty"`
	Maximum   *float64 `json:"maximum,omitempty"`
	Pattern   string   `json:"pattern,omitempty"`
	Enum      []any    `json:"enum,omitempty"`
}

type Field struct {
	Name        string      `json:"name"`
	Title       string      `json:"title,omitempty"`
	Description string      `json:"description,omitempty"`
	Type        string      `json:"type,omitempty"`
	Format      string      `json:"format,omitempty"`
	TrueValues  []string    `json:"trueValues,omitempty"`
	FalseValues []string    `json:"falseValues,omitempty"`
	Constraints Constraints `json:"constraints,omitempty"`
}

// Keys accepts a single field name or a list of names.
type Keys []string

func (k *Keys) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*k = Keys{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("primaryKey: %w", err)
	}
	*k = many
	return nil
}

type Schema struct {
	Fields        []Field  `json:"fields"`
	MissingValues []string `json:"missingValues,omitempty"`
	PrimaryKey    Keys     `json:"primaryKey,omitempty"`
}

// FieldNames returns the declared field names in order.
func (s *Schema) FieldNames() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Load reads a schema from a .json, .yaml or .yml file.
func Load(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		s, err := ParseYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	default:
		s, err := ParseJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	}
}

// ParseYAML converts a YAML schema document to JSON and parses it.
func ParseYAML(data []byte) (*Schema, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml schema: %w", err)
	}
	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml schema: %w", err)
	}
	return ParseJSON(js)
}

// ParseJSON checks data against the Table Schema meta-schema and decodes it.
func ParseJSON(data []byte) (*Schema, error) {
	meta, err := compile(metaSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile meta-schema: %w", err)
	}
	result := meta.ValidateJSON(data)
	if !result.IsValid() {
		return nil, fmt.Errorf("invalid table schema: %s", formatErrors(result))
	}

	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode table schema: %w", err)
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) normalize() error {
	if s.MissingValues == nil {
		s.MissingValues = []string{""}
	}
	seen := make(map[string]int, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("invalid table schema: duplicate field %q", f.Name)
		}
		seen[f.Name] = i
		if f.Type == "" {
			f.Type = TypeString
		}
		if f.TrueValues == nil {
			f.TrueValues = defaultTrueValues
		}
		if f.FalseValues == nil {
			f.FalseValues = defaultFalseValues
		}
	}
	for _, k := range s.PrimaryKey {
		i, ok := seen[k]
		if !ok {
			return fmt.Errorf("invalid table schema: primaryKey field %q not declared", k)
		}
		s.Fields[i].Constraints.Required = true
	}
	return nil
}

func compile(schema []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	return compiler.Compile(schema)
}

// formatErrors renders the evaluation errors of result as "keyword: message"
// pairs in keyword order.
func formatErrors(result *jsonschema.EvaluationResult) string {
	keys := make([]string, 0, len(result.Errors))
	for k := range result.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, result.Errors[k]))
	}
	return strings.Join(parts, "; ")
}
