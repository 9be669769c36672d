package analyzer

import (
	"fmt"
	"strings"

	"github.com/mcncl/pastecs/internal/models"
)

// Deduplicate collapses structurally identical class nodes into one
// canonical node and rewrites every reference to a superseded node.
//
// Structural equality is tested via signatures computed bottom-up: a class
// reference contributes the signature of the referenced node, so equality
// holds up to renaming. JSON nesting is acyclic and children are always
// created after their parents, which makes a single reverse-order pass
// sufficient with no fixed-point iteration.
//
// Within a signature group the first-created node survives. The root node
// never joins a group: it keeps its identity even when a nested node is
// structurally identical to it.
func Deduplicate(forest *models.ClassForest) {
	pruneUnreachable(forest)

	signatures := make(map[models.ClassID]string, len(forest.Nodes))

	// References always point at higher ids, so walking ids downward
	// resolves every referenced signature before it is needed.
	for i := len(forest.Nodes) - 1; i >= 0; i-- {
		node := forest.Nodes[i]
		if !forest.Alive(node.ID) {
			continue
		}
		signatures[node.ID] = signature(node, signatures)
	}

	canonical := make(map[models.ClassID]models.ClassID)
	group := make(map[string]models.ClassID)
	for _, node := range forest.Nodes {
		if !forest.Alive(node.ID) {
			continue
		}
		if node.ID == 0 {
			continue // the root is always retained as its own identity
		}
		sig := signatures[node.ID]
		if keep, ok := group[sig]; ok {
			canonical[node.ID] = keep
			forest.Discard(node.ID)
			continue
		}
		group[sig] = node.ID
	}

	if len(canonical) == 0 {
		return
	}

	// Rewrite references from superseded nodes to their group's canonical.
	for _, node := range forest.Classes() {
		for i := range node.Fields {
			node.Fields[i].Type = rewriteRefs(node.Fields[i].Type, canonical)
		}
	}
}

// pruneUnreachable discards nodes no field can reach from the root. The
// builder creates a node for every observed object, but a node loses its
// only reference when its array slot unifies down to the dynamic placeholder.
func pruneUnreachable(forest *models.ClassForest) {
	reachable := make(map[models.ClassID]struct{}, len(forest.Nodes))
	var markNode func(models.ClassID)
	var markType func(models.FieldType)
	markNode = func(id models.ClassID) {
		if _, seen := reachable[id]; seen {
			return
		}
		reachable[id] = struct{}{}
		for _, field := range forest.Node(id).Fields {
			markType(field.Type)
		}
	}
	markType = func(t models.FieldType) {
		switch t.Kind {
		case models.Class:
			markNode(t.Class)
		case models.Array:
			markType(*t.Elem)
		}
	}
	markNode(0)

	for _, node := range forest.Nodes {
		if _, seen := reachable[node.ID]; !seen && forest.Alive(node.ID) {
			forest.Discard(node.ID)
		}
	}
}

// signature renders a node's field-key/type sequence into a canonical string.
func signature(node *models.ClassNode, signatures map[models.ClassID]string) string {
	var b strings.Builder
	for i, field := range node.Fields {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(field.Key)
		b.WriteByte('=')
		writeTypeSignature(&b, field.Type, signatures)
	}
	return b.String()
}

func writeTypeSignature(b *strings.Builder, t models.FieldType, signatures map[models.ClassID]string) {
	if t.Nullable {
		b.WriteByte('?')
	}
	switch t.Kind {
	case models.Class:
		b.WriteByte('{')
		b.WriteString(signatures[t.Class])
		b.WriteByte('}')
	case models.Array:
		b.WriteByte('[')
		writeTypeSignature(b, *t.Elem, signatures)
		b.WriteByte(']')
	case models.Custom:
		b.WriteString("custom:")
		b.WriteString(t.Custom)
	default:
		fmt.Fprintf(b, "k%d", t.Kind)
	}
}

// rewriteRefs replaces references to superseded nodes, recursing through
// array element types.
func rewriteRefs(t models.FieldType, canonical map[models.ClassID]models.ClassID) models.FieldType {
	switch t.Kind {
	case models.Class:
		if keep, ok := canonical[t.Class]; ok {
			t.Class = keep
		}
	case models.Array:
		elem := rewriteRefs(*t.Elem, canonical)
		t.Elem = &elem
	}
	return t
}
