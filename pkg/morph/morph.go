// Package morph defines the structured segment/segment-group morphology
// model and its native XML linearization.
//
// A morphology is a directed forest of tapered cylinders ([Segment]), each
// running from an optional proximal point to a required distal point. A
// segment without a proximal point inherits its parent's distal point, the
// standard cable-segment convention. Named [SegmentGroup]s tag segments into
// topological classes (soma, axon, dendrite) and derived unbranched chains.
//
// The model is constructed incrementally by a builder and is immutable once
// finished; consumers only read segment ids, group membership, and geometry.
package morph

import "encoding/xml"

// Canonical segment-group names. Groups are only present when non-empty.
const (
	GroupAll            = "all"
	GroupSoma           = "soma_group"
	GroupAxon           = "axon_group"
	GroupDendrite       = "dendrite_group"
	GroupBasalDendrite  = "basal_dendrite"
	GroupApicalDendrite = "apical_dendrite"
)

// Point3DWithDiam is a position in 3D space with the cable diameter at that
// point. Note diameter, not radius: twice the point-tree radius.
type Point3DWithDiam struct {
	X        float64 `xml:"x,attr"`
	Y        float64 `xml:"y,attr"`
	Z        float64 `xml:"z,attr"`
	Diameter float64 `xml:"diameter,attr"`
}

// SegmentParent links a segment to an earlier segment it grows from.
// FractionAlong is the attachment position on the parent: 0.0 for the
// proximal end, 1.0 (the default) for the distal end.
type SegmentParent struct {
	Segment       int     `xml:"segment,attr"`
	FractionAlong float64 `xml:"fractionAlong,attr"`
}

// UnmarshalXML decodes a parent reference, defaulting FractionAlong to 1.0
// when the attribute is absent.
func (p *SegmentParent) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	type parent SegmentParent
	raw := parent{FractionAlong: 1.0}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*p = SegmentParent(raw)
	return nil
}

// Segment is the atomic geometric unit of a morphology: a tapered cylinder
// between a proximal and a distal point. Ids are assigned sequentially from
// zero in creation order and never reused; a segment's parent id, when set,
// is always strictly smaller than its own id.
type Segment struct {
	ID       int              `xml:"id,attr"`
	Name     string           `xml:"name,attr,omitempty"`
	Parent   *SegmentParent   `xml:"parent,omitempty"`
	Proximal *Point3DWithDiam `xml:"proximal,omitempty"`
	Distal   *Point3DWithDiam `xml:"distal"`
}

// HasProximal reports whether the segment carries an explicit proximal
// point. Without one, the proximal point is inherited from the parent's
// distal point.
func (s *Segment) HasProximal() bool { return s.Proximal != nil }

// Member references a segment from inside a group.
type Member struct {
	Segment int `xml:"segment,attr"`
}

// SegmentGroup is a named set of segments. Member order is the insertion
// order chosen by the builder (ascending segment id for canonical groups,
// chain order for unbranched groups); membership itself is semantically a
// set.
type SegmentGroup struct {
	ID      string   `xml:"id,attr"`
	Members []Member `xml:"member"`
}

// Contains reports whether the group references the segment id.
func (sg *SegmentGroup) Contains(id int) bool {
	for _, m := range sg.Members {
		if m.Segment == id {
			return true
		}
	}
	return false
}

// Morphology owns the segment list and the segment groups of one cell.
// Segment list order is creation order and is semantically significant.
type Morphology struct {
	ID            string         `xml:"id,attr"`
	Segments      []Segment      `xml:"segment"`
	SegmentGroups []SegmentGroup `xml:"segmentGroup"`
}

// Segment returns the segment with the given id and true, or nil and false.
func (m *Morphology) Segment(id int) (*Segment, bool) {
	// Ids are dense and creation-ordered, so try direct indexing first.
	if id >= 0 && id < len(m.Segments) && m.Segments[id].ID == id {
		return &m.Segments[id], true
	}
	for i := range m.Segments {
		if m.Segments[i].ID == id {
			return &m.Segments[i], true
		}
	}
	return nil, false
}

// Group returns the segment group with the given name and true, or nil and
// false.
func (m *Morphology) Group(name string) (*SegmentGroup, bool) {
	for i := range m.SegmentGroups {
		if m.SegmentGroups[i].ID == name {
			return &m.SegmentGroups[i], true
		}
	}
	return nil, false
}

// Property is an arbitrary tag/value annotation on a cell.
type Property struct {
	Tag   string `xml:"tag,attr"`
	Value string `xml:"value,attr"`
}

// Cell is one neuron: identity, free-form notes, annotations, and the
// morphology.
type Cell struct {
	ID         string      `xml:"id,attr"`
	Notes      string      `xml:"notes,omitempty"`
	Properties []Property  `xml:"property"`
	Morphology *Morphology `xml:"morphology"`
}

// OrderedSegmentsInGroup resolves a group's members to segments, in the
// group's declared member order. Returns nil if the group does not exist.
func (c *Cell) OrderedSegmentsInGroup(name string) []*Segment {
	if c.Morphology == nil {
		return nil
	}
	g, ok := c.Morphology.Group(name)
	if !ok {
		return nil
	}
	segs := make([]*Segment, 0, len(g.Members))
	for _, m := range g.Members {
		if s, ok := c.Morphology.Segment(m.Segment); ok {
			segs = append(segs, s)
		}
	}
	return segs
}

// Document is the top-level container of the native textual form. It holds
// one or more cells; converters built from a single point tree produce
// exactly one.
type Document struct {
	XMLName xml.Name `xml:"neuroml"`
	ID      string   `xml:"id,attr"`
	Cells   []Cell   `xml:"cell"`
}
