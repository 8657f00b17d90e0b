// Package swc implements the flat point-tree morphology format: a typed
// in-memory graph of traced neuron samples ([Node], [Graph]) and a loader
// that parses the line-based on-disk encoding into it.
//
// A point tree is a forest of samples, one record per line:
//
//	id type x y z radius parent_id
//
// The graph preserves declaration order, resolves parent references into a
// child-adjacency index, and carries the recognized header metadata of the
// source file. It is built once by the loader and read-only afterwards.
package swc

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord is returned by the loader when a line does not
	// have exactly seven fields or a field fails numeric parsing.
	ErrMalformedRecord = errors.New("malformed point-tree record")

	// ErrDuplicateNode is returned by [Graph.AddNode] and the loader when
	// a record id repeats. Record ids must be unique within one file.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrDanglingParent is returned when a non-root record references a
	// parent id that never appears in the file, in any position.
	ErrDanglingParent = errors.New("parent id does not resolve to a node")

	// ErrUnknownNode is returned by lookups for ids not present in the graph.
	ErrUnknownNode = errors.New("unknown node id")
)

// allowedMetadata is the enumerated allow-list of SWC header fields that are
// retained on the graph. Unrecognized keys are silently dropped.
var allowedMetadata = map[string]bool{
	"ORIGINAL_SOURCE":      true,
	"CREATURE":             true,
	"REGION":               true,
	"FIELD/LAYER":          true,
	"TYPE":                 true,
	"CONTRIBUTOR":          true,
	"REFERENCE":            true,
	"RAW":                  true,
	"EXTRAS":               true,
	"SOMA_AREA":            true,
	"SHRINKAGE_CORRECTION": true,
	"VERSION_NUMBER":       true,
	"VERSION_DATE":         true,
	"SCALE":                true,
}

// Graph is the in-memory form of one point-tree file: a mapping from record
// id to [Node] plus the derived child adjacency and the recognized header
// metadata.
//
// Nodes and children are reported in declaration order, which is
// semantically significant downstream (segment ids are assigned in traversal
// order over this graph). The zero value is not usable; use [NewGraph].
// Graph is not safe for concurrent mutation, but a finished graph may be
// read from multiple goroutines.
type Graph struct {
	nodes    map[int]*Node
	order    []int           // ids in declaration order
	children map[int][]*Node // parent id -> children in declaration order
	metadata map[string]string
}

// NewGraph creates an empty point-tree graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[int]*Node),
		children: make(map[int][]*Node),
		metadata: make(map[string]string),
	}
}

// AddNode adds a node to the graph, preserving insertion order.
// Returns ErrDuplicateNode if the id is already present. Child adjacency is
// not updated here; call [Graph.ResolveParents] once all nodes are added.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// ResolveParents verifies every non-root parent reference and rebuilds the
// child-adjacency index in declaration order. Parents may be declared after
// their children in the file, which is why resolution is a separate pass.
// Returns ErrDanglingParent on the first unresolved reference.
func (g *Graph) ResolveParents() error {
	g.children = make(map[int][]*Node, len(g.nodes))
	for _, id := range g.order {
		n := g.nodes[id]
		if n.IsRoot() {
			continue
		}
		if _, ok := g.nodes[n.ParentID]; !ok {
			return fmt.Errorf("%w: node %d references parent %d", ErrDanglingParent, n.ID, n.ParentID)
		}
		g.children[n.ParentID] = append(g.children[n.ParentID], n)
	}
	return nil
}

// AddMetadata records a header field if the key is on the SWC header
// allow-list. Unrecognized keys are dropped without error, matching how
// permissive real-world SWC headers are.
func (g *Graph) AddMetadata(key, value string) {
	if allowedMetadata[key] {
		g.metadata[key] = value
	}
}

// Metadata returns the recognized header fields of the source file.
// The returned map is the live metadata map; treat it as read-only.
func (g *Graph) Metadata() map[string]string { return g.metadata }

// Node returns the node with the given id and true, or nil and false.
func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes in declaration order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Children returns the children of the node in declaration order.
// The returned slice is a read-only view; do not modify it.
func (g *Graph) Children(id int) []*Node { return g.children[id] }

// Parent returns the parent node, or nil for roots.
// Returns ErrUnknownNode if id is not in the graph.
func (g *Graph) Parent(id int) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNode, id)
	}
	if n.IsRoot() {
		return nil, nil
	}
	return g.nodes[n.ParentID], nil
}

// Root returns the designated traversal root: the first soma-typed node in
// declaration order, or the first node if none is typed soma. Returns nil
// for an empty graph.
func (g *Graph) Root() *Node {
	for _, id := range g.order {
		if g.nodes[id].Type == TypeSoma {
			return g.nodes[id]
		}
	}
	if len(g.order) == 0 {
		return nil
	}
	return g.nodes[g.order[0]]
}

// SomaNodes returns the soma-typed nodes in declaration order.
func (g *Graph) SomaNodes() []*Node {
	var soma []*Node
	for _, id := range g.order {
		if g.nodes[id].Type == TypeSoma {
			soma = append(soma, g.nodes[id])
		}
	}
	return soma
}

// TypeCounts returns the number of nodes per structure type code.
func (g *Graph) TypeCounts() map[int]int {
	counts := make(map[int]int)
	for _, n := range g.nodes {
		counts[n.Type]++
	}
	return counts
}
