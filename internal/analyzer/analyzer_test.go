package analyzer

import (
	"testing"

	stderrors "errors"

	"github.com/mcncl/pastecs/internal/config"
	"github.com/mcncl/pastecs/internal/errors"
	"github.com/mcncl/pastecs/internal/models"
	"github.com/mcncl/pastecs/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, jsonInput string) *models.ClassForest {
	t.Helper()
	root, err := parser.ParseString(jsonInput)
	require.NoError(t, err)

	forest, err := NewAnalyzer().Analyze(root)
	require.NoError(t, err)
	return forest
}

func fieldKeys(node *models.ClassNode) []string {
	keys := make([]string, 0, len(node.Fields))
	for _, f := range node.Fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func TestAnalyze_SimpleObject(t *testing.T) {
	forest := analyze(t, `{"name": "John Doe", "age": 30, "is_student": false, "score": 99.5}`)

	classes := forest.Classes()
	require.Len(t, classes, 1, "should infer one class")

	root := classes[0]
	assert.Equal(t, "Root", root.Name)
	assert.Equal(t, []string{"name", "age", "is_student", "score"}, fieldKeys(root),
		"field order must mirror the document's key order")

	assert.Equal(t, models.FieldType{Kind: models.String}, root.Fields[0].Type)
	assert.Equal(t, models.FieldType{Kind: models.Int}, root.Fields[1].Type)
	assert.Equal(t, models.FieldType{Kind: models.Bool}, root.Fields[2].Type)
	assert.Equal(t, models.FieldType{Kind: models.Float}, root.Fields[3].Type)
}

func TestAnalyze_MenuScenario(t *testing.T) {
	forest := analyze(t, `{"menu":{"header":"SVG Viewer","items":[{"id":"Open","label":"Open"},{"id":"OpenNew","label":"Open New"}]}}`)

	classes := forest.Classes()
	require.Len(t, classes, 3, "exactly three classes: Root, Menu, Items")

	root, menu, items := classes[0], classes[1], classes[2]
	assert.Equal(t, "Root", root.Name)
	assert.Equal(t, "Menu", menu.Name)
	assert.Equal(t, "Items", items.Name)

	require.Len(t, root.Fields, 1)
	assert.Equal(t, "menu", root.Fields[0].Key)
	assert.Equal(t, models.FieldType{Kind: models.Class, Class: menu.ID}, root.Fields[0].Type)

	assert.Equal(t, []string{"header", "items"}, fieldKeys(menu))
	assert.Equal(t, models.FieldType{Kind: models.String}, menu.Fields[0].Type)
	itemsType := menu.Fields[1].Type
	require.Equal(t, models.Array, itemsType.Kind)
	require.NotNil(t, itemsType.Elem)
	assert.Equal(t, models.FieldType{Kind: models.Class, Class: items.ID}, *itemsType.Elem)

	assert.Equal(t, []string{"id", "label"}, fieldKeys(items))
	assert.Equal(t, models.FieldType{Kind: models.String}, items.Fields[0].Type)
	assert.Equal(t, models.FieldType{Kind: models.String}, items.Fields[1].Type)
}

func TestAnalyze_UnsupportedRoot(t *testing.T) {
	cases := []string{
		`[{"id": 1}]`,
		`[1, 2, 3]`,
		`"just a string"`,
		`42`,
		`true`,
		`null`,
	}
	for _, input := range cases {
		root, err := parser.ParseString(input)
		require.NoError(t, err)

		forest, err := NewAnalyzer().Analyze(root)
		require.Error(t, err, "input %q should be rejected", input)
		assert.True(t, stderrors.Is(err, errors.ErrUnsupportedRoot), "input %q should map to ErrUnsupportedRoot", input)
		assert.Nil(t, forest, "no partial output on failure")
	}
}

func TestAnalyze_NestedObjects(t *testing.T) {
	forest := analyze(t, `{
		"username": "johndoe",
		"profile": {
			"email": "john@example.com",
			"address": {"street": "123 Main St", "city": "Anytown"}
		}
	}`)

	classes := forest.Classes()
	require.Len(t, classes, 3)

	assert.Equal(t, "Root", classes[0].Name)
	assert.Equal(t, "Profile", classes[1].Name, "nested classes are named after their key")
	assert.Equal(t, "Address", classes[2].Name)

	profileType := classes[0].Fields[1].Type
	require.Equal(t, models.Class, profileType.Kind)
	assert.Equal(t, classes[1].ID, profileType.Class)

	addressType := classes[1].Fields[1].Type
	require.Equal(t, models.Class, addressType.Kind)
	assert.Equal(t, classes[2].ID, addressType.Class)
}

func TestAnalyze_ArrayElementUnion(t *testing.T) {
	// Elements with differing key sets merge into one class holding the
	// union, with one-sided keys marked nullable.
	forest := analyze(t, `{"items": [
		{"id": 1, "name": "Apple"},
		{"id": 2, "price": 0.5}
	]}`)

	classes := forest.Classes()
	require.Len(t, classes, 2)

	items := classes[1]
	assert.Equal(t, "Items", items.Name)
	assert.Equal(t, []string{"id", "name", "price"}, fieldKeys(items),
		"union keeps first-element order, then appends new keys")

	assert.Equal(t, models.FieldType{Kind: models.Int}, items.Fields[0].Type)
	assert.Equal(t, models.FieldType{Kind: models.String, Nullable: true}, items.Fields[1].Type)
	assert.Equal(t, models.FieldType{Kind: models.Float, Nullable: true}, items.Fields[2].Type)
}

func TestAnalyze_NullResolvedBySibling(t *testing.T) {
	forest := analyze(t, `{"values": [null, 7, null]}`)

	root := forest.Classes()[0]
	valuesType := root.Fields[0].Type
	require.Equal(t, models.Array, valuesType.Kind)
	assert.Equal(t, models.FieldType{Kind: models.Int, Nullable: true}, *valuesType.Elem,
		"a null element makes the unified type nullable, not dynamic")
}

func TestAnalyze_NullNeverResolved(t *testing.T) {
	forest := analyze(t, `{"maybe": null}`)

	root := forest.Classes()[0]
	assert.Equal(t, models.FieldType{Kind: models.Null, Nullable: true}, root.Fields[0].Type)
}

func TestAnalyze_NumericWidening(t *testing.T) {
	forest := analyze(t, `{"mixed": [1, 2.5, 3]}`)

	root := forest.Classes()[0]
	assert.Equal(t, models.FieldType{Kind: models.Float}, *root.Fields[0].Type.Elem)
}

func TestAnalyze_IntegerVsFloatLiterals(t *testing.T) {
	forest := analyze(t, `{"count": 3, "ratio": 3.0, "huge": 1e3, "big": 9223372036854775807}`)

	root := forest.Classes()[0]
	assert.Equal(t, models.Int, root.Fields[0].Type.Kind)
	assert.Equal(t, models.Float, root.Fields[1].Type.Kind, "a fractional part makes it a float")
	assert.Equal(t, models.Float, root.Fields[2].Type.Kind, "an exponent part makes it a float")
	assert.Equal(t, models.Int, root.Fields[3].Type.Kind)
}

func TestAnalyze_MismatchedElements(t *testing.T) {
	forest := analyze(t, `{"mixed": [1, "two", true]}`)

	root := forest.Classes()[0]
	assert.Equal(t, models.FieldType{Kind: models.Dynamic}, *root.Fields[0].Type.Elem,
		"incompatible element types fall back to the open placeholder")
}

func TestAnalyze_EmptyArray(t *testing.T) {
	forest := analyze(t, `{"empty": []}`)

	root := forest.Classes()[0]
	emptyType := root.Fields[0].Type
	require.Equal(t, models.Array, emptyType.Kind)
	assert.Equal(t, models.FieldType{Kind: models.Unknown}, *emptyType.Elem)
	require.Len(t, forest.Classes(), 1, "the unknown placeholder produces no declaration")
}

func TestAnalyze_NestedEmptyArrayRefinedBySibling(t *testing.T) {
	// [[], [1]] : the empty inner array contributes nothing, so the
	// element type comes from the sibling.
	forest := analyze(t, `{"matrix": [[], [1, 2]]}`)

	root := forest.Classes()[0]
	matrixType := root.Fields[0].Type
	require.Equal(t, models.Array, matrixType.Kind)
	require.Equal(t, models.Array, matrixType.Elem.Kind)
	assert.Equal(t, models.FieldType{Kind: models.Int}, *matrixType.Elem.Elem)
}

func TestAnalyze_SpecialStrings(t *testing.T) {
	forest := analyze(t, `{
		"event_id": "a1b2c3d4-e5f6-7777-8888-99990000aaaa",
		"created_at": "2023-01-15T10:30:00Z",
		"birthday": "1990-06-02",
		"note": "not a timestamp"
	}`)

	root := forest.Classes()[0]
	assert.Equal(t, models.FieldType{Kind: models.Custom, Custom: "Guid"}, root.Fields[0].Type)
	assert.Equal(t, models.FieldType{Kind: models.Custom, Custom: "DateTime"}, root.Fields[1].Type)
	assert.Equal(t, models.FieldType{Kind: models.Custom, Custom: "DateTime"}, root.Fields[2].Type)
	assert.Equal(t, models.FieldType{Kind: models.String}, root.Fields[3].Type)

	assert.Contains(t, forest.Usings, "System")
}

func TestAnalyze_SpecialStringsDisabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Types.DetectSpecialStrings = false

	root, err := parser.ParseString(`{"created_at": "2023-01-15T10:30:00Z"}`)
	require.NoError(t, err)

	forest, err := NewAnalyzerWithConfig(cfg).Analyze(root)
	require.NoError(t, err)

	assert.Equal(t, models.FieldType{Kind: models.String}, forest.Classes()[0].Fields[0].Type)
	assert.Empty(t, forest.Usings)
}

func TestAnalyze_ConfiguredTypeMapping(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Types.Mappings = []config.TypeMapping{
		{Pattern: "_cents$", Type: "decimal"},
		{Pattern: "^id$", Type: "long"},
	}

	root, err := parser.ParseString(`{"id": 1, "price_cents": 100, "name": "x"}`)
	require.NoError(t, err)

	forest, err := NewAnalyzerWithConfig(cfg).Analyze(root)
	require.NoError(t, err)

	fields := forest.Classes()[0].Fields
	assert.Equal(t, models.FieldType{Kind: models.Custom, Custom: "long"}, fields[0].Type)
	assert.Equal(t, models.FieldType{Kind: models.Custom, Custom: "decimal"}, fields[1].Type)
	assert.Equal(t, models.FieldType{Kind: models.String}, fields[2].Type)
}

func TestAnalyze_AbsorbedElementClassPruned(t *testing.T) {
	// The object element's candidate class loses its only reference when
	// the array unifies down to the open placeholder; it must not be emitted.
	forest := analyze(t, `{"mixed": [{"nested": 1}, "x"]}`)

	classes := forest.Classes()
	require.Len(t, classes, 1)
	assert.Equal(t, models.FieldType{Kind: models.Dynamic}, *classes[0].Fields[0].Type.Elem)
}

func TestAnalyze_EmptyObject(t *testing.T) {
	forest := analyze(t, `{"empty": {}}`)

	classes := forest.Classes()
	require.Len(t, classes, 2)
	assert.Equal(t, "Empty", classes[1].Name)
	assert.Empty(t, classes[1].Fields)
}

func TestAnalyze_RootNameFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.RootName = "Weather"

	root, err := parser.ParseString(`{"temp": 21.5}`)
	require.NoError(t, err)

	forest, err := NewAnalyzerWithConfig(cfg).Analyze(root)
	require.NoError(t, err)
	assert.Equal(t, "Weather", forest.Root().Name)
}

func TestAnalyze_Determinism(t *testing.T) {
	input := `{"menu":{"header":"SVG Viewer","items":[{"id":"Open"},{"id":"OpenNew","label":"Open New"}]},"tags":["a","b"]}`

	first := analyze(t, input)
	second := analyze(t, input)

	firstClasses := first.Classes()
	secondClasses := second.Classes()
	require.Equal(t, len(firstClasses), len(secondClasses))
	for i := range firstClasses {
		assert.Equal(t, firstClasses[i].Name, secondClasses[i].Name)
		assert.Equal(t, firstClasses[i].Fields, secondClasses[i].Fields)
	}
}
