// Package analyzer infers a class forest from a parsed JSON document.
//
// The work happens in three stages: a recursive build pass that creates one
// candidate class node per observed object (unifying array element shapes as
// it goes), a deduplication pass that collapses structurally identical nodes,
// and a naming pass that assigns unique declared names.
package analyzer

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/mcncl/pastecs/internal/config"
	"github.com/mcncl/pastecs/internal/errors"
	"github.com/mcncl/pastecs/internal/models"
)

// Regex patterns for special string types
var (
	uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

	// Time format patterns (ordered by specificity - most specific first)
	rfc3339NanoRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{9}(Z|[+-]\d{2}:\d{2})$`)
	rfc3339Regex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`)
	iso8601Regex     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?([+-]\d{2}:\d{2}|Z|[+-]\d{4})?$`)
	dateOnlyRegex    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRegex    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`)
)

// Analyzer walks a JSON value tree and builds the class forest.
type Analyzer struct {
	// config holds configuration settings for analysis
	config *config.Config
	// forest accumulates class nodes for the current document
	forest *models.ClassForest
}

// NewAnalyzer creates a new Analyzer instance with default configuration.
func NewAnalyzer() *Analyzer {
	return NewAnalyzerWithConfig(config.NewConfig())
}

// NewAnalyzerWithConfig creates a new Analyzer instance with custom configuration.
func NewAnalyzerWithConfig(cfg *config.Config) *Analyzer {
	return &Analyzer{config: cfg}
}

// Analyze runs the full inference pipeline over one parsed document and
// returns the canonical, named class forest. The pipeline is all-or-nothing:
// on error no forest is returned.
func (a *Analyzer) Analyze(root models.JSONValue) (*models.ClassForest, error) {
	forest, err := a.Build(root)
	if err != nil {
		return nil, err
	}
	Deduplicate(forest)
	AssignNames(forest, a.config.RootName)
	return forest, nil
}

// Build runs only the construction pass, producing an unnamed,
// undeduplicated forest. Most callers want Analyze.
func (a *Analyzer) Build(root models.JSONValue) (*models.ClassForest, error) {
	obj, ok := root.(*models.JSONObject)
	if !ok {
		// Arrays and scalars have no field name to derive a class name
		// from; the tool's contract is to describe an object's shape.
		return nil, errors.NewAnalysisError(
			fmt.Sprintf("cannot derive classes from a top-level %s", describeValue(root)),
			errors.ErrUnsupportedRoot,
		)
	}

	a.forest = models.NewClassForest()
	if _, err := a.buildObject(obj, ""); err != nil {
		return nil, err
	}
	return a.forest, nil
}

// buildObject creates a class node for one observed object. The node's field
// order mirrors the object's key order.
func (a *Analyzer) buildObject(obj *models.JSONObject, key string) (models.ClassID, error) {
	node := a.forest.NewNode(key)
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		fieldType, err := a.buildValue(pair.Value, pair.Key)
		if err != nil {
			return 0, err
		}
		node.Fields = append(node.Fields, models.Field{Key: pair.Key, Type: fieldType})
	}
	return node.ID, nil
}

// buildValue infers the FieldType of a single JSON value found under the
// given key, recursing into nested objects and arrays.
func (a *Analyzer) buildValue(value models.JSONValue, key string) (models.FieldType, error) {
	// Configured type mappings override inference for matching keys.
	if mapping, found := a.config.FindTypeMapping(key); found {
		if mapping.Using != "" {
			a.forest.Usings[mapping.Using] = struct{}{}
		}
		return models.FieldType{
			Kind:     models.Custom,
			Custom:   mapping.Type,
			Nullable: value == nil,
		}, nil
	}

	switch v := value.(type) {
	case nil:
		// A lone null carries no type information beyond nullability; a
		// sibling occurrence may resolve it during unification.
		return models.FieldType{Kind: models.Null, Nullable: true}, nil
	case bool:
		return models.FieldType{Kind: models.Bool}, nil
	case string:
		return a.analyzeString(v), nil
	case json.Number:
		return analyzeNumber(v), nil
	case *models.JSONObject:
		id, err := a.buildObject(v, key)
		if err != nil {
			return models.FieldType{}, err
		}
		return models.FieldType{Kind: models.Class, Class: id}, nil
	case models.JSONArray:
		return a.buildArray(v, key)
	default:
		return models.FieldType{}, errors.NewAnalysisError(
			fmt.Sprintf("unexpected json value type: %T", v), nil)
	}
}

// buildArray folds the element types of an array into one unified element
// type. An empty array yields an explicit unknown placeholder rather than
// guessing a concrete type.
func (a *Analyzer) buildArray(arr models.JSONArray, key string) (models.FieldType, error) {
	elem := models.FieldType{Kind: models.Unknown}
	for i, value := range arr {
		observed, err := a.buildValue(value, key)
		if err != nil {
			return models.FieldType{}, err
		}
		if i == 0 {
			elem = observed
			continue
		}
		elem = a.unify(elem, observed)
	}
	return models.FieldType{Kind: models.Array, Elem: &elem}, nil
}

// analyzeString infers Guid and DateTime for specially shaped strings when
// enabled, falling back to plain string.
func (a *Analyzer) analyzeString(s string) models.FieldType {
	if !a.config.Types.DetectSpecialStrings {
		return models.FieldType{Kind: models.String}
	}

	if uuidRegex.MatchString(s) {
		a.forest.Usings["System"] = struct{}{}
		return models.FieldType{Kind: models.Custom, Custom: "Guid"}
	}

	if rfc3339NanoRegex.MatchString(s) ||
		rfc3339Regex.MatchString(s) ||
		iso8601Regex.MatchString(s) ||
		dateOnlyRegex.MatchString(s) ||
		dateTimeRegex.MatchString(s) {
		a.forest.Usings["System"] = struct{}{}
		return models.FieldType{Kind: models.Custom, Custom: "DateTime"}
	}

	return models.FieldType{Kind: models.String}
}

// analyzeNumber distinguishes integers from floats by literal shape: a
// fractional or exponent part makes Int64 parsing fail. Integers beyond the
// int64 range also land on float.
func analyzeNumber(num json.Number) models.FieldType {
	if _, err := num.Int64(); err == nil {
		return models.FieldType{Kind: models.Int}
	}
	return models.FieldType{Kind: models.Float}
}

// describeValue names a JSON value's category for error messages.
func describeValue(value models.JSONValue) string {
	switch value.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case json.Number:
		return "number"
	case models.JSONArray:
		return "array"
	case *models.JSONObject:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}
