// Package models holds the JSON value tree consumed by the analyzer and the
// class forest produced by it.
package models

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// JSONValue is a generic type to represent any JSON value.
// This can be a string, json.Number, boolean, null, object, or array.
type JSONValue any

// JSONObject represents a JSON object. Key order mirrors the source document,
// which is why this is an ordered map rather than a plain Go map.
type JSONObject = orderedmap.OrderedMap[string, JSONValue]

// JSONArray represents a JSON array.
type JSONArray []JSONValue

// NewJSONObject creates an empty ordered JSON object.
func NewJSONObject() *JSONObject {
	return orderedmap.New[string, JSONValue]()
}

// Kind enumerates the inferred type categories.
type Kind int

const (
	// Unknown marks a type with no observations behind it, such as the
	// element type of an empty array. It is an identity under unification.
	Unknown Kind = iota
	// Dynamic marks a type with conflicting observations behind it
	// (string vs int, object vs scalar). It absorbs under unification.
	Dynamic
	// Null marks a field seen only as JSON null so far.
	Null
	Bool
	Int
	Float
	String
	// Custom is a named C# type coming from special string detection
	// (DateTime, Guid) or a configured type mapping.
	Custom
	// Class is a reference to a ClassNode in the forest.
	Class
	// Array wraps an element type.
	Array
)

// ClassID identifies a ClassNode within its forest.
type ClassID int

// FieldType describes the inferred type of one field.
//
// Nullable is a flag rather than a wrapper type, so a type can never be
// doubly nullable by construction.
type FieldType struct {
	Kind     Kind
	Nullable bool
	Elem     *FieldType // set when Kind == Array
	Class    ClassID    // set when Kind == Class
	Custom   string     // set when Kind == Custom
}

// Field is one (key, type) pair of a class node.
type Field struct {
	Key  string
	Type FieldType
}

// ClassNode is a candidate class declaration derived from one observed JSON
// object. Fields keep the key order of the first instance encountered.
type ClassNode struct {
	ID     ClassID
	Key    string // JSON key the node was first discovered under, "" for the root
	Name   string // declared name, assigned by the namer
	Fields []Field

	dead bool // superseded during unification or deduplication
}

// FieldIndex returns the position of key in the node's field list, or -1.
func (n *ClassNode) FieldIndex(key string) int {
	for i, f := range n.Fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

// ClassForest owns every class node created while analyzing one document.
// Node IDs index into Nodes and stay valid for the forest's lifetime;
// superseded nodes are tombstoned, not removed.
type ClassForest struct {
	Nodes []*ClassNode
	// Usings collects C# namespaces required by the declarations,
	// e.g. "System" for DateTime and Guid.
	Usings map[string]struct{}
}

// NewClassForest creates an empty forest.
func NewClassForest() *ClassForest {
	return &ClassForest{
		Nodes:  make([]*ClassNode, 0),
		Usings: make(map[string]struct{}),
	}
}

// NewNode appends a fresh node discovered under the given JSON key and
// returns it. The root node is always the first one created.
func (f *ClassForest) NewNode(key string) *ClassNode {
	node := &ClassNode{
		ID:     ClassID(len(f.Nodes)),
		Key:    key,
		Fields: make([]Field, 0),
	}
	f.Nodes = append(f.Nodes, node)
	return node
}

// Node returns the node with the given id.
func (f *ClassForest) Node(id ClassID) *ClassNode {
	return f.Nodes[int(id)]
}

// Root returns the root node.
func (f *ClassForest) Root() *ClassNode {
	return f.Nodes[0]
}

// Discard tombstones a node that was merged into another one.
func (f *ClassForest) Discard(id ClassID) {
	f.Nodes[int(id)].dead = true
}

// Alive reports whether the node has not been merged away.
func (f *ClassForest) Alive(id ClassID) bool {
	return !f.Nodes[int(id)].dead
}

// Classes returns the surviving nodes in creation order, root first.
// Creation order is the pre-order of the document walk, which is also the
// emission order.
func (f *ClassForest) Classes() []*ClassNode {
	live := make([]*ClassNode, 0, len(f.Nodes))
	for _, n := range f.Nodes {
		if !n.dead {
			live = append(live, n)
		}
	}
	return live
}
