// Copyright 2025 KrakLabs
// SPDX-License-Identifier: AGPL-3.0-or-later

package inspect

import (
	"fmt"
	"strings"

	"github.com/kraklabs/siginspect/pkg/signature"
)

// Schema is an object schema describing a callable's parameters.
type Schema struct {
	Type                 string               `json:"type" yaml:"type"`
	Description          string               `json:"description,omitempty" yaml:"description,omitempty"`
	Properties           map[string]*Property `json:"properties" yaml:"properties"`
	Required             []string             `json:"required" yaml:"required"`
	AdditionalProperties bool                 `json:"additionalProperties" yaml:"additionalProperties"`
	Metadata             *FunctionMetadata    `json:"x-function-metadata,omitempty" yaml:"x-function-metadata,omitempty"`

	// Order lists property names in declaration order.
	Order []string `json:"-" yaml:"-"`
}

// Property is the schema of a single parameter.
type Property struct {
	Type        string    `json:"type,omitempty" yaml:"type,omitempty"`
	Items       *Property `json:"items,omitempty" yaml:"items,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Default     *string   `json:"default,omitempty" yaml:"default,omitempty"`
}

// FunctionMetadata carries the classification alongside the schema.
type FunctionMetadata struct {
	Awaitable           bool   `json:"awaitable" yaml:"awaitable"`
	ReturnAnnotation    string `json:"return_annotation" yaml:"return_annotation"`
	IsMethod            bool   `json:"is_method" yaml:"is_method"`
	IsClassMethod       bool   `json:"is_classmethod" yaml:"is_classmethod"`
	IsCoroutineFunction bool   `json:"is_coroutine_function" yaml:"is_coroutine_function"`
}

// DefaultSkipParams are receiver names left out of schemas.
var DefaultSkipParams = []string{"self", "cls"}

type schemaConfig struct {
	fallback string
	skip     map[string]bool
	metadata bool
}

// SchemaOption configures JSONSchema.
type SchemaOption func(*schemaConfig)

// WithFallbackType sets the type used for unrecognized or missing
// annotations. By default such properties carry no type.
func WithFallbackType(t string) SchemaOption {
	return func(c *schemaConfig) { c.fallback = t }
}

// WithSkipParams replaces DefaultSkipParams.
func WithSkipParams(names ...string) SchemaOption {
	return func(c *schemaConfig) {
		c.skip = make(map[string]bool, len(names))
		for _, n := range names {
			c.skip[n] = true
		}
	}
}

// WithoutMetadata omits the x-function-metadata block.
func WithoutMetadata() SchemaOption {
	return func(c *schemaConfig) { c.metadata = false }
}

// JSONSchema builds the object schema of the callable's parameters.
// Variadic parameters never become properties; a "**kwargs" parameter
// turns additionalProperties on.
func (fi *FunctionInspection) JSONSchema(opts ...SchemaOption) *Schema {
	cfg := schemaConfig{metadata: true}
	WithSkipParams(DefaultSkipParams...)(&cfg)
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Schema{
		Type:        "object",
		Description: fi.schemaDescription(),
		Properties:  make(map[string]*Property),
		Required:    []string{},
	}
	for _, p := range fi.params {
		switch p.Kind {
		case signature.KindVarKeyword:
			s.AdditionalProperties = true
			continue
		case signature.KindVarPositional:
			continue
		}
		if cfg.skip[p.Name] {
			continue
		}

		prop := propertyFor(p.Annotation, cfg.fallback)
		prop.Description = fmt.Sprintf("Parameter '%s' of kind %s", p.Name, p.Kind)
		if p.Default != nil {
			d := *p.Default
			prop.Default = &d
		} else {
			s.Required = append(s.Required, p.Name)
		}
		s.Properties[p.Name] = prop
		s.Order = append(s.Order, p.Name)
	}

	if cfg.metadata {
		s.Metadata = &FunctionMetadata{
			Awaitable:           fi.awaitable,
			ReturnAnnotation:    fi.returnAnnotation,
			IsMethod:            fi.IsMethod(),
			IsClassMethod:       fi.IsClassMethod(),
			IsCoroutineFunction: fi.IsCoroutineFunction(),
		}
	}
	return s
}

func (fi *FunctionInspection) schemaDescription() string {
	switch {
	case fi.IsMethod():
		return "Parameters for instance method"
	case fi.IsClassMethod():
		return "Parameters for class method"
	case fi.IsCoroutineFunction():
		return "Parameters for async function"
	default:
		return "Parameters for function"
	}
}

func propertyFor(annotation, fallback string) *Property {
	t, items := TypeFor(annotation)
	if t == "" {
		return &Property{Type: fallback}
	}
	p := &Property{Type: t}
	if items != "" {
		p.Items = &Property{Type: items}
	}
	return p
}

// =============================================================================
// TYPE MAPPING
// =============================================================================

var scalarTypes = map[string]string{
	"str":      "string",
	"string":   "string",
	"int":      "integer",
	"int8":     "integer",
	"int16":    "integer",
	"int32":    "integer",
	"int64":    "integer",
	"uint":     "integer",
	"uint8":    "integer",
	"uint16":   "integer",
	"uint32":   "integer",
	"uint64":   "integer",
	"uintptr":  "integer",
	"bool":     "boolean",
	"float":    "number",
	"float32":  "number",
	"float64":  "number",
	"None":     "null",
	"NoneType": "null",
}

var arrayTypes = map[string]bool{
	"list": true, "List": true, "Sequence": true, "MutableSequence": true,
	"tuple": true, "Tuple": true, "set": true, "Set": true,
	"frozenset": true, "FrozenSet": true, "Iterable": true,
}

var objectTypes = map[string]bool{
	"dict": true, "Dict": true, "Mapping": true, "MutableMapping": true,
	"map": true,
}

// TypeFor maps an annotation to a JSON schema type, plus the item type for
// arrays when the element annotation maps too. Unrecognized annotations
// return "".
func TypeFor(annotation string) (typ, items string) {
	a := strings.TrimSpace(annotation)
	if a == "" || a == NoAnnotation {
		return "", ""
	}
	if s, err := signature.UnquoteString(a); err == nil {
		a = strings.TrimSpace(s)
	}

	// X | None and Optional[X] map as X
	if alts := splitTop(a, '|'); len(alts) > 1 {
		return unionType(alts)
	}
	a = strings.TrimPrefix(a, "typing.")
	a = strings.TrimPrefix(a, "*")

	// Go slices and arrays: []T, [N]T
	if strings.HasPrefix(a, "[") {
		if end := strings.IndexByte(a, ']'); end > 0 {
			elem, _ := TypeFor(a[end+1:])
			return "array", elem
		}
	}

	base, args := a, ""
	if i := strings.IndexByte(a, '['); i > 0 && strings.HasSuffix(a, "]") {
		base, args = a[:i], a[i+1:len(a)-1]
	} else if i > 0 {
		base = a[:i]
	}

	switch base {
	case "Optional":
		return TypeFor(args)
	case "Union":
		return unionType(splitTop(args, ','))
	}
	if t, ok := scalarTypes[base]; ok {
		return t, ""
	}
	if arrayTypes[base] {
		if args == "" {
			return "array", ""
		}
		elem, _ := TypeFor(splitTop(args, ',')[0])
		return "array", elem
	}
	if objectTypes[base] {
		return "object", ""
	}
	return "", ""
}

func unionType(alts []string) (string, string) {
	var rest []string
	for _, alt := range alts {
		alt = strings.TrimSpace(alt)
		if alt == "None" || alt == "NoneType" {
			continue
		}
		rest = append(rest, alt)
	}
	if len(rest) != 1 {
		return "", ""
	}
	return TypeFor(rest[0])
}

// splitTop splits s on sep at bracket depth zero.
func splitTop(s string, sep byte) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
