package analyzer

import (
	"testing"

	"github.com/mcncl/pastecs/internal/models"
	"github.com/stretchr/testify/assert"
)

func classNames(forest *models.ClassForest) []string {
	names := make([]string, 0)
	for _, node := range forest.Classes() {
		names = append(names, node.Name)
	}
	return names
}

func TestAssignNames_PascalCase(t *testing.T) {
	forest := analyze(t, `{
		"user_profile": {"a": 1},
		"orderItems": {"b": 1},
		"kebab-case-key": {"c": 1}
	}`)

	assert.Equal(t, []string{"Root", "UserProfile", "OrderItems", "KebabCaseKey"}, classNames(forest))
}

func TestAssignNames_CollisionSuffix(t *testing.T) {
	// Two structurally different objects under the same key: the later one
	// gets a numeric suffix starting at 2.
	forest := analyze(t, `{
		"outer": {"items": {"id": 1}},
		"items": {"name": "x"}
	}`)

	assert.Equal(t, []string{"Root", "Outer", "Items", "Items2"}, classNames(forest))
}

func TestAssignNames_CollisionWithRootName(t *testing.T) {
	// A key that PascalCases to the root's name must not shadow it.
	forest := analyze(t, `{"root": {"a": 1}}`)

	assert.Equal(t, []string{"Root", "Root2"}, classNames(forest))
}

func TestAssignNames_SymbolicKeyFallback(t *testing.T) {
	forest := analyze(t, `{"_": {"a": 1}, "__": {"b": 1}}`)

	assert.Equal(t, []string{"Root", "Class", "Class2"}, classNames(forest))
}

func TestAssignNames_CustomRootName(t *testing.T) {
	forest := models.NewClassForest()
	forest.NewNode("")
	AssignNames(forest, "Payload")
	assert.Equal(t, "Payload", forest.Root().Name)

	forest = models.NewClassForest()
	forest.NewNode("")
	AssignNames(forest, "")
	assert.Equal(t, "Root", forest.Root().Name, "empty root name falls back to the default")
}
