package analyzer

import (
	"fmt"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/pastecs/internal/config"
	"github.com/mcncl/pastecs/internal/models"
)

// AssignNames gives every surviving class node a unique declared name.
//
// The root gets rootName (default "Root"). Every other node gets the
// PascalCase form of the JSON key it was first discovered under; when that
// name is already taken by a structurally different node, numeric suffixes
// are tried from 2 upward until a free name is found. Walking the forest in
// creation order makes the result deterministic for a given document.
func AssignNames(forest *models.ClassForest, rootName string) {
	if rootName == "" {
		rootName = config.DefaultRootName
	}

	used := make(map[string]struct{})
	for _, node := range forest.Classes() {
		base := rootName
		if node.ID != 0 {
			base = classBaseName(node.Key)
		}

		name := base
		for suffix := 2; ; suffix++ {
			if _, taken := used[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s%d", base, suffix)
		}

		used[name] = struct{}{}
		node.Name = name
	}
}

// classBaseName converts a JSON key to a PascalCase class name.
func classBaseName(key string) string {
	name := strcase.ToCamel(key)
	// Purely symbolic keys like "_" convert to nothing; fall back to a
	// valid identifier.
	if name == "" {
		return "Class"
	}
	return name
}
