package convert

import (
	"fmt"
	"sort"

	"github.com/AdityaBITMESRA/neurotree/pkg/morph"
	"github.com/AdityaBITMESRA/neurotree/pkg/swc"
)

// deriveUnbranchedGroups partitions the finished segment tree into maximal
// chains with no branching and no type change, and appends one derived group
// per chain. The walk starts at the lowest-numbered soma segment; consumers
// use these groups for efficient path queries.
//
// Trees without a soma segment cannot complete this step and fail with
// ErrNoSomaFound, even though the soma handlers themselves tolerate the
// no-soma case. Callers must handle that error separately from
// soma normalization failures.
func (b *Builder) deriveUnbranchedGroups(m *morph.Morphology) error {
	root := -1
	for segID, typeCode := range b.segmentTypes {
		if typeCode != swc.TypeSoma {
			continue
		}
		if root == -1 || segID < root {
			root = segID
		}
	}
	if root == -1 {
		return ErrNoSomaFound
	}

	// Children of each segment, ascending: the segment list is already in
	// id order, so one pass suffices.
	children := make(map[int][]int, len(b.segments))
	for _, seg := range b.segments {
		if seg.Parent != nil {
			children[seg.Parent.Segment] = append(children[seg.Parent.Segment], seg.ID)
		}
	}

	covered := make(map[int]bool, len(b.segments))
	var chains [][]int

	walk := func(root int) {
		stack := []int{root}
		for len(stack) > 0 {
			start := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if covered[start] {
				continue
			}

			chain := []int{start}
			covered[start] = true
			current := start
			for {
				next := children[current]
				if len(next) != 1 || covered[next[0]] {
					break
				}
				if b.segmentTypes[next[0]] != b.segmentTypes[current] {
					break
				}
				current = next[0]
				chain = append(chain, current)
				covered[current] = true
			}
			chains = append(chains, chain)

			// Whatever ended the chain (branch point or type change),
			// the children start chains of their own.
			stack = append(stack, children[current]...)
		}
	}
	walk(root)

	// Segments not reachable from the soma root (secondary roots in
	// degraded input) still get deterministic chains, in id order.
	for _, seg := range b.segments {
		if !covered[seg.ID] {
			walk(seg.ID)
		}
	}

	sort.Slice(chains, func(i, j int) bool { return chains[i][0] < chains[j][0] })
	for _, chain := range chains {
		sg := morph.SegmentGroup{ID: fmt.Sprintf("unbranched_seg_%d", chain[0])}
		for _, id := range chain {
			sg.Members = append(sg.Members, morph.Member{Segment: id})
		}
		m.SegmentGroups = append(m.SegmentGroups, sg)
	}
	return nil
}
