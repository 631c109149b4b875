// Package host defines the boundary between the fiber reconciler and the
// drawable tree it mutates. The reconciler only ever touches host nodes
// through an Adapter.
package host

// Node is an opaque drawable primitive owned by an Adapter. Nodes are used
// as map keys by the reconciler so implementations must hand out comparable
// values (pointers are the usual choice).
type Node any

// AttributeChange is one entry of an attribute delta. A nil Value removes
// the attribute. The "style" key carries a map[string]any of style entries
// where an empty string resets that entry.
type AttributeChange struct {
	Key   string
	Value any
}

// Adapter is the set of primitive operations the commit phase applies.
// Every call is synchronous and must only affect the nodes it is given.
type Adapter interface {
	CreateNode(kind string) Node
	CreateText(content string) Node
	AppendChild(parent, child Node)
	// InsertBefore inserts child into parent ahead of before, which must
	// already be a child of parent.
	InsertBefore(parent, child, before Node)
	RemoveChild(parent, child Node)
	SetTextContent(node Node, content string)
	ApplyAttributes(node Node, changes []AttributeChange)
}
