package convert

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AdityaBITMESRA/neurotree/pkg/morph"
	"github.com/AdityaBITMESRA/neurotree/pkg/swc"
)

var (
	// ErrUnsupportedAttachment is returned by [Exporter.Export] when a
	// segment attaches to its parent at a fractional position. The
	// point-tree format can only express attachment at the parent's
	// proximal (0.0) or distal (1.0) end.
	ErrUnsupportedAttachment = errors.New("cannot represent fractional attachment in point-tree format")

	// ErrIncompleteGroupCoverage is returned by [Exporter.Export] when the
	// soma, dendrite, and axon groups together do not account for every
	// segment of the morphology. Export aborts before emitting any line.
	ErrIncompleteGroupCoverage = errors.New("segment groups do not cover all segments")
)

// fractionTolerance is the tolerance within which an attachment fraction is
// snapped to exactly 0.0 or 1.0.
const fractionTolerance = 1e-4

// exportOrder fixes the group emission order and the type code written for
// each group's records.
var exportOrder = [...]struct {
	group    string
	typeCode int
}{
	{morph.GroupSoma, swc.TypeSoma},
	{morph.GroupDendrite, swc.TypeBasalDendrite},
	{morph.GroupAxon, swc.TypeAxon},
}

// Exporter flattens a segment-based morphology back into point-tree lines.
//
// Line numbering and the line-index lookup tables are fields of the
// exporter and are reinitialized at the start of every Export call, so an
// Exporter never leaks state across cells and independent cells may be
// exported in parallel, one Exporter each.
type Exporter struct {
	lineCount     int
	proximalLines map[int]int // segment id -> line index of its proximal record
	distalLines   map[int]int // segment id -> line index of its distal record
}

// NewExporter creates an exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export emits the point-tree lines for one cell, processing the soma,
// dendrite, and axon groups in that fixed order. Lines are numbered from 1
// in emission order.
//
// Export returns ErrIncompleteGroupCoverage before emitting anything if the
// three groups do not cover the morphology exactly, and
// ErrUnsupportedAttachment if any segment attaches to its parent at a
// fraction other than 0.0 or 1.0 (tolerance 1e-4). On error no lines are
// returned: export is all-or-nothing.
func (e *Exporter) Export(cell *morph.Cell) ([]string, error) {
	if cell.Morphology == nil {
		return nil, fmt.Errorf("cell %s has no morphology", cell.ID)
	}

	e.lineCount = 1
	e.proximalLines = make(map[int]int)
	e.distalLines = make(map[int]int)

	visited := 0
	for _, ord := range exportOrder {
		visited += len(cell.OrderedSegmentsInGroup(ord.group))
	}
	if total := len(cell.Morphology.Segments); visited != total {
		return nil, fmt.Errorf("%w: soma+dendrite+axon cover %d of %d segments",
			ErrIncompleteGroupCoverage, visited, total)
	}

	var lines []string
	for _, ord := range exportOrder {
		groupLines, err := e.linesForGroup(cell, ord.group, ord.typeCode)
		if err != nil {
			return nil, err
		}
		lines = append(lines, groupLines...)
	}
	return lines, nil
}

// ExportString is a convenience wrapper joining the exported lines with
// trailing newlines.
func (e *Exporter) ExportString(cell *morph.Cell) (string, error) {
	lines, err := e.Export(cell)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// linesForGroup emits the records for one group in its declared segment
// order. Each segment contributes a proximal record when it carries an
// explicit proximal point, and always a distal record; the distal record's
// parent is the proximal record when one was just written.
func (e *Exporter) linesForGroup(cell *morph.Cell, group string, typeCode int) ([]string, error) {
	var lines []string
	for _, seg := range cell.OrderedSegmentsInGroup(group) {
		parentLine, err := e.parentLine(seg)
		if err != nil {
			return nil, err
		}

		if seg.Proximal != nil {
			lines = append(lines, formatRecord(e.lineCount, typeCode, seg.Proximal, parentLine))
			e.proximalLines[seg.ID] = e.lineCount
			parentLine = e.lineCount
			e.lineCount++
		}

		if seg.Distal == nil {
			return nil, fmt.Errorf("segment %d has no distal point", seg.ID)
		}
		lines = append(lines, formatRecord(e.lineCount, typeCode, seg.Distal, parentLine))
		e.distalLines[seg.ID] = e.lineCount
		e.lineCount++
	}
	return lines, nil
}

// parentLine resolves the record a segment's first line points at: the
// parent segment's distal record for attachment fraction 1.0, its proximal
// record for 0.0, and the root marker for parentless segments.
func (e *Exporter) parentLine(seg *morph.Segment) (int, error) {
	if seg.Parent == nil {
		return swc.RootParentID, nil
	}

	fraction := seg.Parent.FractionAlong
	switch {
	case math.Abs(fraction-1) < fractionTolerance:
		line, ok := e.distalLines[seg.Parent.Segment]
		if !ok {
			return 0, fmt.Errorf("segment %d: parent segment %d not yet emitted", seg.ID, seg.Parent.Segment)
		}
		return line, nil
	case math.Abs(fraction) < fractionTolerance:
		line, ok := e.proximalLines[seg.Parent.Segment]
		if !ok {
			return 0, fmt.Errorf("segment %d: parent segment %d has no proximal record", seg.ID, seg.Parent.Segment)
		}
		return line, nil
	default:
		return 0, fmt.Errorf("%w: segment %d attaches at %g along parent %d",
			ErrUnsupportedAttachment, seg.ID, fraction, seg.Parent.Segment)
	}
}

// formatRecord renders one point-tree line, converting the model diameter
// back to a radius.
func formatRecord(line, typeCode int, p *morph.Point3DWithDiam, parentLine int) string {
	return fmt.Sprintf("%d %d %s %s %s %s %d",
		line, typeCode,
		formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z),
		formatFloat(p.Diameter/2),
		parentLine)
}

// formatFloat renders a coordinate without a forced decimal point or
// exponent notation.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
