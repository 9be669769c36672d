// Package generator renders a class forest as C# class declarations.
package generator

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/mcncl/pastecs/internal/config"
	"github.com/mcncl/pastecs/internal/errors"
	"github.com/mcncl/pastecs/internal/models"
)

// Generator is responsible for rendering class declarations from a forest
type Generator struct {
	config *config.Config
}

// NewGenerator creates a new Generator instance with default configuration
func NewGenerator() *Generator {
	return NewGeneratorWithConfig(config.NewConfig())
}

// NewGeneratorWithConfig creates a new Generator instance with custom configuration
func NewGeneratorWithConfig(cfg *config.Config) *Generator {
	return &Generator{config: cfg}
}

// Generate renders every surviving class node as a C# declaration, root
// first, then in the order the builder first created them. Field order
// mirrors the source document's key order.
func (g *Generator) Generate(forest *models.ClassForest) (string, error) {
	classes := forest.Classes()
	if len(classes) == 0 {
		return "", errors.NewGenerateError("class forest is empty", nil)
	}
	for _, node := range classes {
		if node.Name == "" {
			return "", errors.NewGenerateError(
				fmt.Sprintf("class discovered under key %q has no assigned name", node.Key), nil)
		}
	}

	var buf bytes.Buffer

	if header := g.config.Output.FileHeader; header != "" {
		buf.WriteString(header)
		if !strings.HasSuffix(header, "\n") {
			buf.WriteByte('\n')
		}
		buf.WriteByte('\n')
	}

	if len(forest.Usings) > 0 {
		usings := make([]string, 0, len(forest.Usings))
		for u := range forest.Usings {
			usings = append(usings, u)
		}
		sort.Strings(usings)
		for _, u := range usings {
			fmt.Fprintf(&buf, "using %s;\n", u)
		}
		buf.WriteByte('\n')
	}

	indent := g.config.Output.Indent
	if indent == "" {
		indent = "    "
	}

	// Declarations move one level right inside a namespace block.
	outer := ""
	if g.config.Output.Namespace != "" {
		fmt.Fprintf(&buf, "namespace %s\n{\n", g.config.Output.Namespace)
		outer = indent
	}

	for i, node := range classes {
		if i > 0 {
			buf.WriteByte('\n')
		}
		fmt.Fprintf(&buf, "%spublic class %s\n%s{\n", outer, node.Name, outer)
		for _, field := range node.Fields {
			fmt.Fprintf(&buf, "%s%spublic %s %s { get; set; }\n",
				outer, indent,
				typeString(forest, field.Type),
				g.config.GetMemberName(field.Key))
		}
		fmt.Fprintf(&buf, "%s}\n", outer)
	}

	if g.config.Output.Namespace != "" {
		buf.WriteString("}\n")
	}

	return buf.String(), nil
}

// typeString renders a FieldType in C# notation.
//
// The nullable marker is emitted for value types only; strings, classes,
// arrays and object are reference types and already admit null. A field
// observed only as null renders as string, the closest nullable scalar.
func typeString(forest *models.ClassForest, t models.FieldType) string {
	var name string
	switch t.Kind {
	case models.Bool:
		name = "bool"
	case models.Int:
		name = "int"
	case models.Float:
		name = "float"
	case models.String:
		name = "string"
	case models.Null:
		name = "string"
	case models.Custom:
		name = t.Custom
	case models.Class:
		name = forest.Node(t.Class).Name
	case models.Array:
		name = typeString(forest, *t.Elem) + "[]"
	default:
		// Unknown (empty arrays) and Dynamic (conflicting shapes) render as
		// the catch-all object marker and never get a declaration.
		name = "object"
	}

	if t.Nullable && isValueType(t) {
		return name + "?"
	}
	return name
}

// isValueType reports whether the rendered C# type is a value type that
// needs an explicit nullable marker. Custom types (DateTime, Guid) are
// structs in C#, so they count.
func isValueType(t models.FieldType) bool {
	switch t.Kind {
	case models.Bool, models.Int, models.Float, models.Custom:
		return true
	default:
		return false
	}
}
