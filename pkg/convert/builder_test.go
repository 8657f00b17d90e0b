package convert

import (
	"errors"
	"strings"
	"testing"

	"github.com/AdityaBITMESRA/neurotree/pkg/morph"
	"github.com/AdityaBITMESRA/neurotree/pkg/swc"
)

// threePointGraph is the smallest realistic cell: a three-point soma with one
// dendrite attached to the center point.
func threePointGraph(t *testing.T) *swc.Graph {
	t.Helper()
	return graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, Radius: 5, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeSoma, Y: -5, Radius: 5, ParentID: 1},
		&swc.Node{ID: 3, Type: swc.TypeSoma, Y: 5, Radius: 5, ParentID: 1},
		&swc.Node{ID: 4, Type: swc.TypeBasalDendrite, X: 10, Radius: 1, ParentID: 1},
	)
}

func TestBuildThreePointSoma(t *testing.T) {
	b := NewBuilder(threePointGraph(t))
	if b.SomaClass() != SomaThreePoint {
		t.Fatalf("SomaClass = %v, want three point", b.SomaClass())
	}

	cell, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	segs := cell.Morphology.Segments
	if len(segs) != 3 {
		t.Fatalf("len(segments) = %d, want 3", len(segs))
	}

	// Two soma segments spanning middle -> first -> end.
	segA := segs[0]
	if segA.Proximal == nil || segA.Proximal.Y != -5 {
		t.Errorf("soma segment 0 proximal = %v, want middle point y=-5", segA.Proximal)
	}
	if segA.Distal.Y != 0 {
		t.Errorf("soma segment 0 distal y = %g, want 0", segA.Distal.Y)
	}
	if segA.Proximal.Diameter != 10 {
		t.Errorf("soma diameter = %g, want 10 (twice the radius)", segA.Proximal.Diameter)
	}

	segB := segs[1]
	if segB.Parent == nil || segB.Parent.Segment != 0 || segB.Parent.FractionAlong != 1.0 {
		t.Errorf("soma segment 1 parent = %v, want segment 0 at fraction 1", segB.Parent)
	}
	if segB.Proximal != nil {
		t.Error("soma segment 1 should inherit its proximal point")
	}
	if segB.Distal.Y != 5 {
		t.Errorf("soma segment 1 distal y = %g, want 5", segB.Distal.Y)
	}

	// The dendrite crosses a type boundary: explicit proximal at its own
	// point, attached to the segment owning the center soma node.
	dend := segs[2]
	if dend.Parent == nil || dend.Parent.Segment != 0 {
		t.Errorf("dendrite parent = %v, want segment 0", dend.Parent)
	}
	if dend.Proximal == nil || dend.Proximal.X != 10 {
		t.Errorf("dendrite proximal = %v, want its own point x=10", dend.Proximal)
	}
}

func TestBuildSegmentIDsMonotonic(t *testing.T) {
	cell, err := NewBuilder(threePointGraph(t)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for i, seg := range cell.Morphology.Segments {
		if seg.ID != i {
			t.Errorf("segment at index %d has id %d", i, seg.ID)
		}
		if seg.Parent != nil && seg.Parent.Segment >= seg.ID {
			t.Errorf("segment %d references parent %d, want strictly smaller", seg.ID, seg.Parent.Segment)
		}
	}
}

func TestBuildSinglePointSoma(t *testing.T) {
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, Radius: 7, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeAxon, X: 4, Radius: 1, ParentID: 1},
		&swc.Node{ID: 3, Type: swc.TypeAxon, X: 8, Radius: 1, ParentID: 2},
	)
	cell, err := NewBuilder(g).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	soma := cell.Morphology.Segments[0]
	if soma.Proximal == nil || *soma.Proximal != *soma.Distal {
		t.Errorf("single-point soma should be degenerate, got proximal %v distal %v", soma.Proximal, soma.Distal)
	}
	if soma.Proximal.Diameter != 14 {
		t.Errorf("soma diameter = %g, want 14", soma.Proximal.Diameter)
	}

	// First axon point crosses the type boundary: its distal point is
	// stretched to the next axon point.
	axon := cell.Morphology.Segments[1]
	if axon.Proximal == nil || axon.Proximal.X != 4 {
		t.Errorf("axon proximal = %v, want x=4", axon.Proximal)
	}
	if axon.Distal.X != 8 {
		t.Errorf("axon distal x = %g, want 8 (stretched to first child)", axon.Distal.X)
	}
}

func TestBuildMultiCylinderSoma(t *testing.T) {
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, Radius: 4, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeSoma, Y: 2, Radius: 4, ParentID: 1},
		&swc.Node{ID: 3, Type: swc.TypeSoma, Y: 4, Radius: 4, ParentID: 2},
		&swc.Node{ID: 4, Type: swc.TypeSoma, Y: 6, Radius: 4, ParentID: 3},
	)
	b := NewBuilder(g)
	if b.SomaClass() != SomaMultiCylinder {
		t.Fatalf("SomaClass = %v, want multiple cylinders", b.SomaClass())
	}

	cell, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Cylinder stacks pass through the general rule: one segment per node,
	// each chained to the previous.
	segs := cell.Morphology.Segments
	if len(segs) != 4 {
		t.Fatalf("len(segments) = %d, want 4", len(segs))
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].Parent == nil || segs[i].Parent.Segment != i-1 {
			t.Errorf("segment %d parent = %v, want segment %d", i, segs[i].Parent, i-1)
		}
	}
}

func TestBuildMultiContourSoma(t *testing.T) {
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, X: 0, Radius: 3, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeSoma, X: 5, Radius: 3, ParentID: 1},
		&swc.Node{ID: 3, Type: swc.TypeSoma, X: -3, Radius: 3, ParentID: 1},
		&swc.Node{ID: 4, Type: swc.TypeSoma, X: 2, Radius: 3, ParentID: 1},
	)
	b := NewBuilder(g)
	if b.SomaClass() != SomaMultiContour {
		t.Fatalf("SomaClass = %v, want multiple contours", b.SomaClass())
	}

	cell, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Four contour points collapse into a chain of three segments ordered by
	// ascending x: -3 -> 0 -> 2 -> 5.
	segs := cell.Morphology.Segments
	if len(segs) != 3 {
		t.Fatalf("len(segments) = %d, want 3", len(segs))
	}
	if segs[0].Proximal == nil || segs[0].Proximal.X != -3 {
		t.Errorf("chain proximal = %v, want lowest x", segs[0].Proximal)
	}
	wantDistalX := []float64{0, 2, 5}
	for i, want := range wantDistalX {
		if segs[i].Distal.X != want {
			t.Errorf("segment %d distal x = %g, want %g", i, segs[i].Distal.X, want)
		}
	}

	// Every soma node resolves to a segment.
	for _, id := range []int{1, 2, 3, 4} {
		if _, ok := b.segmentByNode[id]; !ok {
			t.Errorf("soma node %d has no owning segment", id)
		}
	}
}

func TestBuildBranchPoint(t *testing.T) {
	// Two dendrites branch off the same dendrite node: both children carry an
	// explicit proximal point at the branch position.
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, Radius: 5, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeBasalDendrite, X: 10, Radius: 1, ParentID: 1},
		&swc.Node{ID: 3, Type: swc.TypeBasalDendrite, X: 20, Y: 5, Radius: 1, ParentID: 2},
		&swc.Node{ID: 4, Type: swc.TypeBasalDendrite, X: 20, Y: -5, Radius: 1, ParentID: 2},
	)
	cell, err := NewBuilder(g).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	branchSeg := b2seg(t, cell, 2) // segment owning node 3
	if branchSeg.Proximal == nil || branchSeg.Proximal.X != 10 {
		t.Errorf("branch child proximal = %v, want branch point x=10", branchSeg.Proximal)
	}
	otherSeg := b2seg(t, cell, 3) // segment owning node 4
	if otherSeg.Proximal == nil || otherSeg.Proximal.X != 10 {
		t.Errorf("branch child proximal = %v, want branch point x=10", otherSeg.Proximal)
	}
}

func b2seg(t *testing.T, cell *morph.Cell, id int) *morph.Segment {
	t.Helper()
	seg, ok := cell.Morphology.Segment(id)
	if !ok {
		t.Fatalf("segment %d missing", id)
	}
	return seg
}

func TestBuildCanonicalGroups(t *testing.T) {
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, Radius: 5, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeAxon, X: 5, Radius: 1, ParentID: 1},
		&swc.Node{ID: 3, Type: swc.TypeBasalDendrite, X: -5, Radius: 1, ParentID: 1},
		&swc.Node{ID: 4, Type: swc.TypeApicalDendrite, Y: 5, Radius: 1, ParentID: 1},
	)
	cell, err := NewBuilder(g).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	wantGroups := map[string]int{
		morph.GroupAll:            4,
		morph.GroupSoma:           1,
		morph.GroupAxon:           1,
		morph.GroupDendrite:       2,
		morph.GroupBasalDendrite:  1,
		morph.GroupApicalDendrite: 1,
	}
	for name, wantLen := range wantGroups {
		grp, ok := cell.Morphology.Group(name)
		if !ok {
			t.Errorf("group %q missing", name)
			continue
		}
		if len(grp.Members) != wantLen {
			t.Errorf("group %q has %d members, want %d", name, len(grp.Members), wantLen)
		}
	}

	// Soma + dendrite + axon must cover the whole morphology.
	covered := len(cell.OrderedSegmentsInGroup(morph.GroupSoma)) +
		len(cell.OrderedSegmentsInGroup(morph.GroupDendrite)) +
		len(cell.OrderedSegmentsInGroup(morph.GroupAxon))
	if covered != len(cell.Morphology.Segments) {
		t.Errorf("soma+dendrite+axon cover %d of %d segments", covered, len(cell.Morphology.Segments))
	}
}

func TestBuildCustomTypeIsDendritic(t *testing.T) {
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, Radius: 5, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: 6, X: 5, Radius: 1, ParentID: 1},
	)
	cell, err := NewBuilder(g).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	dend, ok := cell.Morphology.Group(morph.GroupDendrite)
	if !ok || !dend.Contains(1) {
		t.Errorf("custom-typed segment should be in %s", morph.GroupDendrite)
	}
	if _, ok := cell.Morphology.Group(morph.GroupBasalDendrite); ok {
		t.Error("basal_dendrite group should be absent when empty")
	}
	if seg := b2seg(t, cell, 1); !strings.HasPrefix(seg.Name, "type_6_Seg_") {
		t.Errorf("segment name = %q, want type_6_Seg_ prefix", seg.Name)
	}
}

func TestBuildNoSoma(t *testing.T) {
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeAxon, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeAxon, X: 5, ParentID: 1},
	)
	cell, err := NewBuilder(g).Build()
	if !errors.Is(err, ErrNoSomaFound) {
		t.Fatalf("Build error = %v, want ErrNoSomaFound", err)
	}
	// The partial cell is still inspectable.
	if cell == nil || len(cell.Morphology.Segments) != 2 {
		t.Fatalf("partial cell = %v, want 2 segments", cell)
	}
	if _, ok := cell.Morphology.Group(morph.GroupAxon); !ok {
		t.Error("canonical groups should be present on the partial cell")
	}
}

func TestBuildEmptyGraph(t *testing.T) {
	_, err := NewBuilder(swc.NewGraph()).Build()
	if !errors.Is(err, ErrEmptyGraph) {
		t.Errorf("Build error = %v, want ErrEmptyGraph", err)
	}
}

func TestBuildDocumentWrapsCell(t *testing.T) {
	doc, err := NewBuilder(threePointGraph(t)).BuildDocument()
	if err != nil {
		t.Fatalf("BuildDocument: %v", err)
	}
	if len(doc.Cells) != 1 {
		t.Fatalf("len(Cells) = %d, want 1", len(doc.Cells))
	}
	if doc.ID != doc.Cells[0].ID {
		t.Errorf("document id %q != cell id %q", doc.ID, doc.Cells[0].ID)
	}
}

func TestBuildCellProvenance(t *testing.T) {
	g := threePointGraph(t)
	g.AddMetadata("ORIGINAL_SOURCE", "/data/traces/pyr-4.swc")

	cell, err := NewBuilder(g).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if cell.ID != "pyr_4" {
		t.Errorf("cell id = %q, want pyr_4", cell.ID)
	}
	if !strings.Contains(cell.Notes, "/data/traces/pyr-4.swc") {
		t.Errorf("notes = %q, want mention of the source file", cell.Notes)
	}
	if len(cell.Properties) != 1 || cell.Properties[0].Tag != "cell_type" {
		t.Errorf("properties = %v, want cell_type annotation", cell.Properties)
	}
}

func TestCellName(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"/data/pyr-4.swc", "pyr_4"},
		{"simple.swc", "simple"},
		{"v1.2.swc", "v1_2"},
		{"42cell.swc", "Cell_42cell"},
	}
	for _, tt := range tests {
		if got := cellName(tt.origin); got != tt.want {
			t.Errorf("cellName(%q) = %q, want %q", tt.origin, got, tt.want)
		}
	}

	// Without provenance the name is random but prefixed and non-empty.
	anon := cellName("")
	if !strings.HasPrefix(anon, "cell_") || len(anon) <= len("cell_") {
		t.Errorf("cellName(\"\") = %q, want random cell_ id", anon)
	}
	if cellName("") == anon {
		t.Error("anonymous cell names should be distinguishable")
	}
}

func TestDeriveUnbranchedGroups(t *testing.T) {
	// Soma, then a dendrite run of three points that forks into two tips.
	g := graphOf(t,
		&swc.Node{ID: 1, Type: swc.TypeSoma, Radius: 5, ParentID: swc.RootParentID},
		&swc.Node{ID: 2, Type: swc.TypeBasalDendrite, X: 10, Radius: 1, ParentID: 1},
		&swc.Node{ID: 3, Type: swc.TypeBasalDendrite, X: 20, Radius: 1, ParentID: 2},
		&swc.Node{ID: 4, Type: swc.TypeBasalDendrite, X: 30, Y: 5, Radius: 1, ParentID: 3},
		&swc.Node{ID: 5, Type: swc.TypeBasalDendrite, X: 30, Y: -5, Radius: 1, ParentID: 3},
	)
	cell, err := NewBuilder(g).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var unbranched []morph.SegmentGroup
	for _, sg := range cell.Morphology.SegmentGroups {
		if strings.HasPrefix(sg.ID, "unbranched_seg_") {
			unbranched = append(unbranched, sg)
		}
	}

	// Chains: soma alone, dendrite run 1..2, and one chain per fork tip.
	if len(unbranched) != 4 {
		t.Fatalf("unbranched groups = %d, want 4: %v", len(unbranched), unbranched)
	}
	if unbranched[0].ID != "unbranched_seg_0" || len(unbranched[0].Members) != 1 {
		t.Errorf("first chain = %v, want soma segment alone", unbranched[0])
	}
	if unbranched[1].ID != "unbranched_seg_1" || len(unbranched[1].Members) != 2 {
		t.Errorf("second chain = %v, want the two-segment dendrite run", unbranched[1])
	}

	// Chains partition the morphology.
	seen := make(map[int]bool)
	for _, sg := range unbranched {
		for _, m := range sg.Members {
			if seen[m.Segment] {
				t.Errorf("segment %d appears in more than one chain", m.Segment)
			}
			seen[m.Segment] = true
		}
	}
	if len(seen) != len(cell.Morphology.Segments) {
		t.Errorf("chains cover %d of %d segments", len(seen), len(cell.Morphology.Segments))
	}
}

func TestTraverseIdempotentOnRevisit(t *testing.T) {
	b := NewBuilder(threePointGraph(t))
	root := b.graph.Root()
	b.traverse(root)
	before := len(b.segments)
	b.traverse(root)
	if len(b.segments) != before {
		t.Errorf("re-traversal added segments: %d -> %d", before, len(b.segments))
	}
}
