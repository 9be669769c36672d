// Package schema provides JSON Schema parsing and conversion to C# class
// declarations, sharing the dedup/naming/emission pipeline with the
// document analyzer.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/pastecs/internal/analyzer"
	"github.com/mcncl/pastecs/internal/errors"
	"github.com/mcncl/pastecs/internal/models"
)

// SchemaType handles JSON Schema type field which can be string or array of strings
type SchemaType struct {
	Types []string
}

// UnmarshalJSON handles both string and array forms of type
func (st *SchemaType) UnmarshalJSON(data []byte) error {
	// Try string first
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		st.Types = []string{s}
		return nil
	}

	// Try array of strings
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		st.Types = arr
		return nil
	}

	return fmt.Errorf("type must be string or array of strings")
}

// Primary returns the primary (first) type, or empty string if none
func (st SchemaType) Primary() string {
	if len(st.Types) > 0 {
		return st.Types[0]
	}
	return ""
}

// IsNullable returns true if "null" is one of the allowed types
func (st SchemaType) IsNullable() bool {
	for _, t := range st.Types {
		if t == "null" {
			return true
		}
	}
	return false
}

// Schema represents the subset of a JSON Schema document this tool maps
// onto class declarations. Validation-only constraints are ignored.
type Schema struct {
	// Meta
	Schema      string `json:"$schema,omitempty"`
	ID          string `json:"$id,omitempty"`
	Ref         string `json:"$ref,omitempty"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	// Type - can be string or array of strings in JSON Schema
	Type SchemaType `json:"type,omitempty"`

	// Object properties
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`

	// Array items
	Items *Schema `json:"items,omitempty"`

	// String format ("date-time", "uuid", ...)
	Format string `json:"format,omitempty"`

	// Nullable (OpenAPI-style)
	Nullable bool `json:"nullable,omitempty"`

	// Composition (allOf merges; anyOf/oneOf fall back to object)
	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`

	// Definitions for $ref resolution
	Definitions map[string]*Schema `json:"definitions,omitempty"`
	Defs        map[string]*Schema `json:"$defs,omitempty"` // JSON Schema draft 2019-09+
}

// ParseFile reads and parses a JSON Schema from a file
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	return ParseBytes(data)
}

// ParseBytes parses JSON Schema from bytes
func ParseBytes(data []byte) (*Schema, error) {
	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse JSON Schema: %w", err)
	}

	return &schema, nil
}

// ParseString parses JSON Schema from a string
func ParseString(s string) (*Schema, error) {
	return ParseBytes([]byte(s))
}

// Converter converts a JSON Schema into a class forest
type Converter struct {
	schema       *Schema
	forest       *models.ClassForest
	definitions  map[string]*Schema          // Merged definitions for $ref resolution
	resolvedRefs map[string]models.FieldType // Cache for already resolved $refs
}

// NewConverter creates a new schema converter
func NewConverter(schema *Schema) *Converter {
	// Merge definitions and $defs
	definitions := make(map[string]*Schema)
	for k, v := range schema.Definitions {
		definitions[k] = v
	}
	for k, v := range schema.Defs {
		definitions[k] = v
	}

	return &Converter{
		schema:       schema,
		definitions:  definitions,
		resolvedRefs: make(map[string]models.FieldType),
	}
}

// Convert processes the schema and returns the deduplicated, named forest.
// The root schema must describe an object.
func (c *Converter) Convert(rootName string) (*models.ClassForest, error) {
	root := c.resolveShallow(c.schema)
	if !describesObject(root) {
		return nil, errors.NewAnalysisError(
			"schema root does not describe an object", errors.ErrUnsupportedRoot)
	}
	if len(root.AllOf) > 0 {
		root = c.mergeAllOf(root.AllOf)
	}

	c.forest = models.NewClassForest()
	if _, err := c.convertObject(root, ""); err != nil {
		return nil, err
	}

	analyzer.Deduplicate(c.forest)

	if rootName == "" && c.schema.Title != "" {
		rootName = strcase.ToCamel(c.schema.Title)
	}
	analyzer.AssignNames(c.forest, rootName)

	return c.forest, nil
}

// convertSchema recursively converts a schema to a field type, creating
// class nodes for nested objects.
func (c *Converter) convertSchema(schema *Schema, key string) (models.FieldType, error) {
	// Handle $ref
	if schema.Ref != "" {
		return c.resolveRef(schema.Ref, key)
	}

	// Handle allOf by merging schemas
	if len(schema.AllOf) > 0 {
		merged := c.mergeAllOf(schema.AllOf)
		return c.convertSchema(merged, key)
	}

	nullable := schema.Nullable || schema.Type.IsNullable()

	switch primaryType(schema) {
	case "object":
		id, err := c.convertObject(schema, key)
		if err != nil {
			return models.FieldType{}, err
		}
		return models.FieldType{Kind: models.Class, Class: id, Nullable: nullable}, nil
	case "array":
		elem := models.FieldType{Kind: models.Unknown}
		if schema.Items != nil {
			var err error
			elem, err = c.convertSchema(schema.Items, key)
			if err != nil {
				return models.FieldType{}, fmt.Errorf("failed to convert array items: %w", err)
			}
		}
		return models.FieldType{Kind: models.Array, Elem: &elem, Nullable: nullable}, nil
	case "string":
		return c.convertString(schema, nullable), nil
	case "integer":
		return models.FieldType{Kind: models.Int, Nullable: nullable}, nil
	case "number":
		return models.FieldType{Kind: models.Float, Nullable: nullable}, nil
	case "boolean":
		return models.FieldType{Kind: models.Bool, Nullable: nullable}, nil
	case "null":
		return models.FieldType{Kind: models.Null, Nullable: true}, nil
	default:
		// Unknown, untyped, or anyOf/oneOf composition - the open type
		return models.FieldType{Kind: models.Dynamic, Nullable: nullable}, nil
	}
}

// convertObject creates a class node for an object schema. Properties are
// processed in sorted order: unlike a JSON document, a schema's property map
// carries no meaningful order, and sorting keeps output deterministic.
func (c *Converter) convertObject(schema *Schema, key string) (models.ClassID, error) {
	node := c.forest.NewNode(key)

	// Build required field set
	requiredSet := make(map[string]bool)
	for _, r := range schema.Required {
		requiredSet[r] = true
	}

	propNames := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		propNames = append(propNames, name)
	}
	sort.Strings(propNames)

	for _, propName := range propNames {
		fieldType, err := c.convertSchema(schema.Properties[propName], propName)
		if err != nil {
			return 0, fmt.Errorf("failed to convert property %s: %w", propName, err)
		}

		// Optional properties may be absent, which is this model's nullable.
		if !requiredSet[propName] {
			fieldType.Nullable = true
		}

		node.Fields = append(node.Fields, models.Field{Key: propName, Type: fieldType})
	}

	return node.ID, nil
}

// convertString maps string formats onto special C# types
func (c *Converter) convertString(schema *Schema, nullable bool) models.FieldType {
	switch schema.Format {
	case "date-time", "date", "time":
		c.forest.Usings["System"] = struct{}{}
		return models.FieldType{Kind: models.Custom, Custom: "DateTime", Nullable: nullable}
	case "uuid":
		c.forest.Usings["System"] = struct{}{}
		return models.FieldType{Kind: models.Custom, Custom: "Guid", Nullable: nullable}
	default:
		return models.FieldType{Kind: models.String, Nullable: nullable}
	}
}

// resolveRef resolves a local $ref to a field type, creating the referenced
// class at most once.
func (c *Converter) resolveRef(ref string, key string) (models.FieldType, error) {
	// Check cache first to avoid duplicate class generation
	if cached, ok := c.resolvedRefs[ref]; ok {
		return cached, nil
	}

	defName, ok := localRefName(ref)
	if !ok {
		// External refs not supported
		return models.FieldType{}, fmt.Errorf("external $ref not supported: %s", ref)
	}

	defSchema, ok := c.definitions[defName]
	if !ok {
		return models.FieldType{}, fmt.Errorf("unresolved $ref: %s", ref)
	}

	// The definition name, not the referencing key, names the class.
	fieldType, err := c.convertSchema(defSchema, defName)
	if err != nil {
		return models.FieldType{}, err
	}
	c.resolvedRefs[ref] = fieldType // Cache the result
	return fieldType, nil
}

// localRefName extracts the definition name from a local $ref like
// "#/definitions/User" or "#/$defs/User".
func localRefName(ref string) (string, bool) {
	for _, prefix := range []string{"#/definitions/", "#/$defs/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix), true
		}
	}
	return "", false
}

// mergeAllOf merges multiple schemas from allOf
func (c *Converter) mergeAllOf(schemas []*Schema) *Schema {
	merged := &Schema{
		Properties: make(map[string]*Schema),
		Required:   make([]string, 0),
	}

	for _, s := range schemas {
		// Resolve refs first
		resolved := c.resolveShallow(s)

		for k, v := range resolved.Properties {
			merged.Properties[k] = v
		}
		merged.Required = append(merged.Required, resolved.Required...)

		if merged.Title == "" && resolved.Title != "" {
			merged.Title = resolved.Title
		}
	}

	merged.Type = SchemaType{Types: []string{"object"}}
	return merged
}

// resolveShallow follows one level of local $ref, returning the input
// unchanged when it is not a resolvable reference.
func (c *Converter) resolveShallow(s *Schema) *Schema {
	if s.Ref == "" {
		return s
	}
	if defName, ok := localRefName(s.Ref); ok {
		if defSchema, ok := c.definitions[defName]; ok {
			return defSchema
		}
	}
	return s
}

// primaryType determines the effective schema type, inferring object/array
// from the presence of properties/items when type is omitted.
func primaryType(schema *Schema) string {
	schemaType := schema.Type.Primary()
	if schemaType == "" {
		if len(schema.Properties) > 0 {
			return "object"
		}
		if schema.Items != nil {
			return "array"
		}
		return ""
	}

	// Skip "null" if it's the primary type but there are other types
	if schemaType == "null" && len(schema.Type.Types) > 1 {
		for _, t := range schema.Type.Types {
			if t != "null" {
				return t
			}
		}
	}

	return schemaType
}

// describesObject reports whether the schema can head a class declaration.
func describesObject(schema *Schema) bool {
	if len(schema.AllOf) > 0 {
		return true
	}
	return primaryType(schema) == "object"
}
