package convert

import (
	"sort"

	"github.com/AdityaBITMESRA/neurotree/pkg/swc"
)

// SomaClass identifies which of the five recognized on-disk soma encodings a
// point tree uses. It is decided once, before traversal begins, by counting
// and inspecting the soma-typed nodes of the whole tree; the builder then
// dispatches each soma node to the handler for the decided class.
type SomaClass int

const (
	// SomaNone: the tree has no soma-typed nodes. Valid, but model
	// construction cannot finish the unbranched-group step (ErrNoSomaFound).
	SomaNone SomaClass = iota

	// SomaSinglePoint: one soma node encoding a sphere by its radius.
	// Canonicalized to a single degenerate segment (proximal == distal).
	SomaSinglePoint

	// SomaThreePoint: the canonical three-point soma. Canonicalized to two
	// segments spanning the middle and end points.
	SomaThreePoint

	// SomaMultiCylinder: four or more soma nodes forming a parent-linked
	// chain of cylinders. Already a valid connected structure, so it is
	// left to the general segment-creation rule unmodified.
	SomaMultiCylinder

	// SomaMultiContour: more than three soma nodes in an irregular contour.
	// Canonicalized to a chain of segments over the nodes sorted by
	// ascending x-coordinate.
	SomaMultiContour
)

// String returns a short display name for the soma class.
func (c SomaClass) String() string {
	switch c {
	case SomaNone:
		return "none"
	case SomaSinglePoint:
		return "single point"
	case SomaThreePoint:
		return "three point"
	case SomaMultiCylinder:
		return "multiple cylinders"
	case SomaMultiContour:
		return "multiple contours"
	}
	return "unknown"
}

// ClassifySoma inspects a point tree and returns its soma encoding class
// together with the soma nodes in declaration order.
func ClassifySoma(g *swc.Graph) (SomaClass, []*swc.Node) {
	soma := g.SomaNodes()
	switch {
	case len(soma) == 0:
		return SomaNone, nil
	case len(soma) == 1:
		return SomaSinglePoint, soma
	case len(soma) == 3:
		return SomaThreePoint, soma
	case isCylinderChain(soma):
		return SomaMultiCylinder, soma
	default:
		return SomaMultiContour, soma
	}
}

// isCylinderChain reports whether the soma nodes form one unbranched
// parent-linked chain in declaration order. Such somas are already connected
// cylinder stacks and need no canonicalization.
func isCylinderChain(soma []*swc.Node) bool {
	for i := 1; i < len(soma); i++ {
		if soma[i].ParentID != soma[i-1].ID {
			return false
		}
	}
	return true
}

// sortedByX returns the soma nodes ordered by ascending x-coordinate, the
// deterministic tie-break for irregular contour ordering. Declaration order
// is preserved among equal x values.
func sortedByX(soma []*swc.Node) []*swc.Node {
	sorted := make([]*swc.Node, len(soma))
	copy(sorted, soma)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	return sorted
}
