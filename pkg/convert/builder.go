// Package convert implements the bidirectional structural converter between
// the flat point-tree format ([swc.Graph]) and the segment-based morphology
// model ([morph.Cell]).
//
// The forward direction ([Builder]) walks the point tree depth-first from
// the soma root, emits segments with monotonically assigned ids, normalizes
// the five soma encodings ([SomaClass]) to a canonical multi-segment soma,
// tags segments into the canonical topological groups, and derives
// unbranched-chain groups over the finished tree. The reverse direction
// ([Exporter]) flattens a segment model back into point-tree lines.
//
// Both directions are per-call objects with no shared state; independent
// conversions may run in parallel, one Builder or Exporter each.
package convert

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/AdityaBITMESRA/neurotree/pkg/morph"
	"github.com/AdityaBITMESRA/neurotree/pkg/swc"
)

var (
	// ErrEmptyGraph is returned by [Builder.Build] for a point tree with no
	// nodes.
	ErrEmptyGraph = errors.New("point tree has no nodes")

	// ErrNoSomaFound is returned by the unbranched-group derivation step
	// when the model contains no soma segment. Segment and group
	// construction up to that point still succeeds: Build returns the
	// partially finished cell alongside this error so callers can inspect
	// it.
	ErrNoSomaFound = errors.New("no soma segment found")
)

// canonicalGroupOrder fixes the declaration order of the canonical groups in
// the finished morphology.
var canonicalGroupOrder = [...]string{
	morph.GroupAll,
	morph.GroupSoma,
	morph.GroupAxon,
	morph.GroupDendrite,
	morph.GroupBasalDendrite,
	morph.GroupApicalDendrite,
}

// Builder transforms one point tree into a segment-based morphology.
// All counters and lookup tables are per-builder state; construct one
// Builder per conversion and discard it afterwards. A Builder must not be
// reused or shared between goroutines.
type Builder struct {
	graph *swc.Graph
	class SomaClass
	soma  []*swc.Node // soma nodes in declaration order

	segments      []morph.Segment
	nextSegmentID int
	segmentByNode map[int]int      // point-node id -> owning segment id
	segmentTypes  map[int]int      // segment id -> source type code
	groups        map[string][]int // group name -> member segment ids, insertion order
	visited       map[int]bool     // point-node id -> processed
}

// NewBuilder creates a builder for the given point tree. The soma encoding
// class is decided here, once, not re-derived per node.
func NewBuilder(g *swc.Graph) *Builder {
	class, soma := ClassifySoma(g)
	return &Builder{
		graph:         g,
		class:         class,
		soma:          soma,
		segmentByNode: make(map[int]int),
		segmentTypes:  make(map[int]int),
		groups:        make(map[string][]int),
		visited:       make(map[int]bool),
	}
}

// SomaClass returns the soma encoding class decided for the input tree.
func (b *Builder) SomaClass() SomaClass { return b.class }

// Build runs the conversion and returns the finished cell.
//
// If the tree has no soma, Build returns the structurally complete cell
// together with ErrNoSomaFound: segments and canonical groups are valid and
// inspectable, but the derived unbranched groups are missing. Any other
// error means no usable cell was produced.
func (b *Builder) Build() (*morph.Cell, error) {
	root := b.graph.Root()
	if root == nil {
		return nil, ErrEmptyGraph
	}

	b.traverse(root)

	cell := b.assembleCell()
	if err := b.deriveUnbranchedGroups(cell.Morphology); err != nil {
		return cell, err
	}
	return cell, nil
}

// BuildDocument runs Build and wraps the cell in a single-cell document.
func (b *Builder) BuildDocument() (*morph.Document, error) {
	cell, err := b.Build()
	if cell == nil {
		return nil, err
	}
	return &morph.Document{ID: cell.ID, Cells: []morph.Cell{*cell}}, err
}

// frame is one work-list entry of the depth-first walk.
type frame struct {
	node, parent *swc.Node
}

// traverse walks the tree pre-order from root using an explicit stack, so
// deep reconstructions cannot exhaust the call stack. The parent of a node
// is always processed before the node itself; the root is its own parent,
// which keeps the per-node rules uniform.
func (b *Builder) traverse(root *swc.Node) {
	stack := []frame{{node: root, parent: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// Reached again through an independent parent path in malformed
		// but connected input: skip silently, stay idempotent.
		if b.visited[f.node.ID] {
			continue
		}
		b.processNode(f.node, f.parent)
		b.visited[f.node.ID] = true

		children := b.graph.Children(f.node.ID)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: children[i], parent: f.node})
		}
	}
}

// processNode applies the per-node transition: soma nodes of classes that
// need canonicalization route to the soma handler, everything else follows
// the general segment-creation rule. Multi-cylinder somas are already valid
// connected structures and deliberately take the general rule.
func (b *Builder) processNode(node, parent *swc.Node) {
	if node.Type == swc.TypeSoma {
		switch b.class {
		case SomaSinglePoint:
			b.somaSinglePoint(node)
			return
		case SomaThreePoint:
			b.somaThreePoint(node)
			return
		case SomaMultiContour:
			b.somaMultiContour(node)
			return
		}
	}
	b.createSegment(node, parent)
}

// createSegment emits one segment for a point node under the general rule:
// a proximal point is set only when the node starts a new branch (parent has
// several children) or crosses a type boundary; otherwise the segment
// inherits its proximal point from the parent segment's distal end.
//
// At a type boundary the distal point is stretched to the first child's
// position, so the new type's conductive cable begins exactly at the
// transition point.
func (b *Builder) createSegment(node, parent *swc.Node) {
	seg := morph.Segment{
		ID:   b.nextSegmentID,
		Name: fmt.Sprintf("%s_Seg_%d", segmentTypeName(node.Type), b.nextSegmentID),
	}
	b.nextSegmentID++

	if parentSeg, ok := b.segmentByNode[parent.ID]; ok && node.ID != parent.ID {
		seg.Parent = &morph.SegmentParent{Segment: parentSeg, FractionAlong: node.FractionAlong}
	}

	typeChange := node.Type != parent.Type
	newBranch := len(b.graph.Children(parent.ID)) > 1

	switch {
	case typeChange:
		seg.Proximal = pointOf(node)
		if children := b.graph.Children(node.ID); len(children) > 0 {
			seg.Distal = pointOf(children[0])
		} else {
			seg.Distal = pointOf(node)
		}
	case newBranch:
		seg.Proximal = pointOf(parent)
		seg.Distal = pointOf(node)
	default:
		seg.Distal = pointOf(node)
	}

	b.register(seg, node.ID, node.Type)
}

// somaSinglePoint canonicalizes a sphere-encoded soma into one degenerate
// cylinder whose proximal and distal ends are both the node's own point.
func (b *Builder) somaSinglePoint(node *swc.Node) {
	seg := morph.Segment{
		ID:       b.nextSegmentID,
		Name:     fmt.Sprintf("soma_Seg_%d", b.nextSegmentID),
		Proximal: pointOf(node),
		Distal:   pointOf(node),
	}
	b.nextSegmentID++
	b.register(seg, node.ID, swc.TypeSoma)
}

// somaThreePoint canonicalizes the three-point soma into two segments: the
// first spans from the middle point to the center point, the second extends
// from there to the end point, inheriting its proximal end. Only the first
// soma node's invocation does the work; the other two are no-ops whose
// subtrees are still traversed normally.
//
// All three node ids are mapped to a segment so that descendants attached to
// any of them can resolve their parent segment.
func (b *Builder) somaThreePoint(node *swc.Node) {
	first, middle, end := b.soma[0], b.soma[1], b.soma[2]
	if node.ID != first.ID {
		return
	}

	segA := morph.Segment{
		ID:       b.nextSegmentID,
		Name:     fmt.Sprintf("soma_Seg_%d", b.nextSegmentID),
		Proximal: pointOf(middle),
		Distal:   pointOf(first),
	}
	b.nextSegmentID++
	b.register(segA, first.ID, swc.TypeSoma)
	b.segmentByNode[middle.ID] = segA.ID

	segB := morph.Segment{
		ID:     b.nextSegmentID,
		Name:   fmt.Sprintf("soma_Seg_%d", b.nextSegmentID),
		Parent: &morph.SegmentParent{Segment: segA.ID, FractionAlong: 1.0},
		Distal: pointOf(end),
	}
	b.nextSegmentID++
	b.register(segB, end.ID, swc.TypeSoma)
}

// somaMultiContour canonicalizes an irregular multi-point contour into a
// connected chain of N-1 segments over the nodes sorted by ascending x.
// Only the lowest-x node's invocation does the work; invocations for the
// other contour nodes are no-ops.
func (b *Builder) somaMultiContour(node *swc.Node) {
	sorted := sortedByX(b.soma)
	if node.ID != sorted[0].ID {
		return
	}

	prev := -1
	for i := 0; i+1 < len(sorted); i++ {
		seg := morph.Segment{
			ID:     b.nextSegmentID,
			Name:   fmt.Sprintf("soma_Seg_%d", b.nextSegmentID),
			Distal: pointOf(sorted[i+1]),
		}
		b.nextSegmentID++
		if i == 0 {
			seg.Proximal = pointOf(sorted[0])
			// The lowest-x node owns the first chain segment.
			b.segmentByNode[sorted[0].ID] = seg.ID
		} else {
			seg.Parent = &morph.SegmentParent{Segment: prev, FractionAlong: 1.0}
		}
		b.register(seg, sorted[i+1].ID, swc.TypeSoma)
		prev = seg.ID
	}
}

// register appends a finished segment and indexes it: id mapping from its
// source point node, source type tag, and membership in every group its
// type qualifies for.
func (b *Builder) register(seg morph.Segment, nodeID, typeCode int) {
	b.segments = append(b.segments, seg)
	b.segmentByNode[nodeID] = seg.ID
	b.segmentTypes[seg.ID] = typeCode
	for _, group := range groupsForType(typeCode) {
		b.groups[group] = append(b.groups[group], seg.ID)
	}
}

// groupsForType returns the canonical groups a segment of the given source
// type belongs to. Every segment belongs to "all"; custom types (>= 5) are
// conventionally treated as dendritic; undefined (0) belongs to "all" only.
func groupsForType(typeCode int) []string {
	groups := []string{morph.GroupAll}
	switch {
	case typeCode == swc.TypeSoma:
		groups = append(groups, morph.GroupSoma)
	case typeCode == swc.TypeAxon:
		groups = append(groups, morph.GroupAxon)
	case typeCode == swc.TypeBasalDendrite:
		groups = append(groups, morph.GroupBasalDendrite, morph.GroupDendrite)
	case typeCode == swc.TypeApicalDendrite:
		groups = append(groups, morph.GroupApicalDendrite, morph.GroupDendrite)
	case typeCode >= 5:
		groups = append(groups, morph.GroupDendrite)
	}
	return groups
}

// assembleCell wraps the collected segments and groups into a cell with its
// identity and provenance annotations.
func (b *Builder) assembleCell() *morph.Cell {
	origin := b.graph.Metadata()["ORIGINAL_SOURCE"]
	name := cellName(origin)

	m := &morph.Morphology{
		ID:       "morphology_" + name,
		Segments: b.segments,
	}
	for _, groupName := range canonicalGroupOrder {
		members := b.groups[groupName]
		if len(members) == 0 {
			continue
		}
		sg := morph.SegmentGroup{ID: groupName}
		for _, id := range members {
			sg.Members = append(sg.Members, morph.Member{Segment: id})
		}
		m.SegmentGroups = append(m.SegmentGroups, sg)
	}

	if origin == "" {
		origin = "unknown"
	}
	return &morph.Cell{
		ID:    name,
		Notes: fmt.Sprintf("Neuronal morphology converted from point-tree format. Original file: %s", origin),
		Properties: []morph.Property{
			{Tag: "cell_type", Value: "converted_from_swc"},
		},
		Morphology: m,
	}
}

// cellName derives a cell identifier from the source path recorded in the
// tree metadata. Files like "pyr-4.swc" become "pyr_4"; names that would
// start with a digit are prefixed with "Cell_". Without provenance a random
// short id keeps independently converted cells distinguishable.
func cellName(origin string) string {
	if origin == "" {
		return "cell_" + uuid.NewString()[:8]
	}
	name := filepath.Base(origin)
	name = strings.TrimSuffix(name, ".swc")
	name = strings.NewReplacer(".", "_", "-", "_").Replace(name)
	if name == "" {
		return "cell_" + uuid.NewString()[:8]
	}
	if unicode.IsDigit(rune(name[0])) {
		name = "Cell_" + name
	}
	return name
}

// segmentTypeName returns the type label used in segment names, with spaces
// collapsed so names stay single tokens.
func segmentTypeName(typeCode int) string {
	return strings.ReplaceAll(swc.TypeName(typeCode), " ", "_")
}

// pointOf converts a point node to a model point, translating the node
// radius to a cable diameter.
func pointOf(n *swc.Node) *morph.Point3DWithDiam {
	return &morph.Point3DWithDiam{X: n.X, Y: n.Y, Z: n.Z, Diameter: 2 * n.Radius}
}
