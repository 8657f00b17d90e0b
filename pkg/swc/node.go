package swc

import "fmt"

// Standard SWC structure type codes. Values of 5 and above are
// reconstruction-specific custom types.
const (
	TypeUndefined      = 0
	TypeSoma           = 1
	TypeAxon           = 2
	TypeBasalDendrite  = 3
	TypeApicalDendrite = 4
)

// RootParentID is the parent id that marks a root record in SWC files.
const RootParentID = -1

// typeNames maps the well-known type codes to their display names.
var typeNames = [...]string{
	TypeUndefined:      "undefined",
	TypeSoma:           "soma",
	TypeAxon:           "axon",
	TypeBasalDendrite:  "basal dendrite",
	TypeApicalDendrite: "apical dendrite",
}

// TypeName returns the display name for an SWC type code.
// Custom codes (>= 5) are rendered as "type_N".
func TypeName(code int) string {
	if code >= 0 && code < len(typeNames) {
		return typeNames[code]
	}
	return fmt.Sprintf("type_%d", code)
}

// Node is a single record of a point tree: one traced sample of a neuron,
// positioned in 3D space with a radius and a link to its parent sample.
//
// Nodes are owned by a [Graph]; create them through [Graph.AddNode] or the
// loader rather than sharing one node between graphs.
type Node struct {
	ID       int     // unique, non-negative record id
	Type     int     // structure type code (see Type* constants)
	X, Y, Z  float64 // position, conventionally in micrometres
	Radius   float64 // radius at this sample, same unit as position
	ParentID int     // id of the parent record, or RootParentID for roots

	// FractionAlong is the position along the parent where this node
	// attaches (0.0 = proximal end, 1.0 = distal end). The SWC format has
	// no native notion of partial attachment, so the loader records 1.0;
	// producing pipelines that encode soma-internal 0.0 links may overwrite
	// it before export.
	FractionAlong float64
}

// String returns a compact human-readable description of the node.
func (n *Node) String() string {
	return fmt.Sprintf("node %d (%s) at (%g, %g, %g) r=%g parent=%d",
		n.ID, TypeName(n.Type), n.X, n.Y, n.Z, n.Radius, n.ParentID)
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.ParentID == RootParentID }
