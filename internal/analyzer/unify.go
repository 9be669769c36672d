package analyzer

import (
	"github.com/mcncl/pastecs/internal/models"
)

// unify merges two observed types for the same logical field into a single
// consistent type. It is applied pairwise while folding over array elements,
// and recursively when two object shapes merge.
//
// Priority order: identical types keep themselves; null and unknown defer to
// the other side; int widens with float; class and array shapes merge
// recursively; anything else falls back to the dynamic placeholder so the
// tool produces output instead of rejecting malformed-but-parseable data.
func (a *Analyzer) unify(x, y models.FieldType) models.FieldType {
	nullable := x.Nullable || y.Nullable

	// A null observation contributes nothing but nullability.
	if x.Kind == models.Null {
		return withNullable(y, true)
	}
	if y.Kind == models.Null {
		return withNullable(x, true)
	}

	// Unknown means "no observations yet", so the other side wins outright.
	if x.Kind == models.Unknown {
		return withNullable(y, nullable)
	}
	if y.Kind == models.Unknown {
		return withNullable(x, nullable)
	}

	if x.Kind == y.Kind {
		switch x.Kind {
		case models.Bool, models.Int, models.Float, models.String, models.Dynamic:
			return models.FieldType{Kind: x.Kind, Nullable: nullable}
		case models.Custom:
			if x.Custom == y.Custom {
				return models.FieldType{Kind: models.Custom, Custom: x.Custom, Nullable: nullable}
			}
			// Two different named types for one field: no common shape.
			return models.FieldType{Kind: models.Dynamic, Nullable: nullable}
		case models.Array:
			elem := a.unify(*x.Elem, *y.Elem)
			return models.FieldType{Kind: models.Array, Elem: &elem, Nullable: nullable}
		case models.Class:
			id := a.mergeClasses(x.Class, y.Class)
			return models.FieldType{Kind: models.Class, Class: id, Nullable: nullable}
		}
	}

	// Numeric widening: integer + float = float.
	if isNumeric(x.Kind) && isNumeric(y.Kind) {
		return models.FieldType{Kind: models.Float, Nullable: nullable}
	}

	// Special string types (Guid, DateTime) widen with plain strings.
	if isStringLike(x) && isStringLike(y) {
		return models.FieldType{Kind: models.String, Nullable: nullable}
	}

	// Incompatible shapes (string vs int, object vs scalar, ...).
	return models.FieldType{Kind: models.Dynamic, Nullable: nullable}
}

// mergeClasses folds the src node into dst over the union of their field
// keys: keys present in both unify; keys present in only one side become
// nullable in the merged shape. The src node is discarded and dst keeps its
// first-encountered field order, with src-only keys appended in src order.
func (a *Analyzer) mergeClasses(dstID, srcID models.ClassID) models.ClassID {
	if dstID == srcID {
		return dstID
	}

	dst := a.forest.Node(dstID)
	src := a.forest.Node(srcID)

	for i := range dst.Fields {
		if j := src.FieldIndex(dst.Fields[i].Key); j >= 0 {
			dst.Fields[i].Type = a.unify(dst.Fields[i].Type, src.Fields[j].Type)
		} else {
			dst.Fields[i].Type.Nullable = true
		}
	}

	for _, field := range src.Fields {
		if dst.FieldIndex(field.Key) < 0 {
			field.Type.Nullable = true
			dst.Fields = append(dst.Fields, field)
		}
	}

	a.forest.Discard(srcID)
	return dstID
}

func withNullable(t models.FieldType, nullable bool) models.FieldType {
	t.Nullable = t.Nullable || nullable
	return t
}

func isNumeric(k models.Kind) bool {
	return k == models.Int || k == models.Float
}

func isStringLike(t models.FieldType) bool {
	return t.Kind == models.String || t.Kind == models.Custom
}
