// Package pkg provides the core libraries for Neurotree morphology conversion.
//
// # Overview
//
// Neurotree converts neuronal morphology reconstructions between the flat
// SWC point-tree format and a structured segment model with named segment
// groups. The pkg directory is organized into four main areas:
//
//  1. [swc] - SWC parsing and the point-tree graph structure
//  2. [morph] - Segment model types and XML serialization
//  3. [convert] - Point-tree to segment conversion and back
//  4. [pipeline] - File-to-file orchestration used by the CLI
//
// # Architecture
//
// The typical data flow through Neurotree:
//
//	SWC reconstruction file
//	         ↓
//	    [swc] package (parse records, resolve parents)
//	         ↓
//	    [convert] package (classify soma, build segments and groups)
//	         ↓
//	    [morph] package (serialize the segment model)
//	         ↓
//	    morphology XML output
//
// The reverse direction reads a morphology document with [morph], walks the
// canonical groups with [convert.Exporter], and emits SWC records.
//
// # Quick Start
//
// Convert a reconstruction to a segment-model document:
//
//	import (
//	    "github.com/AdityaBITMESRA/neurotree/pkg/convert"
//	    "github.com/AdityaBITMESRA/neurotree/pkg/morph"
//	    "github.com/AdityaBITMESRA/neurotree/pkg/swc"
//	)
//
//	// 1. Load the point tree
//	g, _ := swc.LoadFile("cell.swc")
//
//	// 2. Build segments and groups
//	doc, _ := convert.NewBuilder(g).BuildDocument()
//
//	// 3. Serialize
//	_ = morph.WriteFile("cell.cell.nml", doc)
//
// # Main Packages
//
// [swc] - Record-level parser and the Graph type. Nodes keep declaration
// order, parents are resolved in a second pass, and header metadata is kept
// for known keys only.
//
// [morph] - Segment, SegmentGroup, Cell, and Document types with XML
// marshalling. Mirrors the proximal-inheritance convention: a segment
// without an explicit proximal point starts where its parent ends.
//
// [convert] - Builder classifies the soma encoding once, then traverses the
// tree with an explicit work list, creating one segment per point and
// assigning canonical plus unbranched groups. Exporter walks a document's
// groups in fixed order and regenerates SWC lines.
//
// [pipeline] - ToNeuroML and ToSWC tie loading, conversion, and writing
// together for the CLI and for embedding.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/convert/...  # Specific package
//
// [swc]: https://pkg.go.dev/github.com/AdityaBITMESRA/neurotree/pkg/swc
// [morph]: https://pkg.go.dev/github.com/AdityaBITMESRA/neurotree/pkg/morph
// [convert]: https://pkg.go.dev/github.com/AdityaBITMESRA/neurotree/pkg/convert
// [pipeline]: https://pkg.go.dev/github.com/AdityaBITMESRA/neurotree/pkg/pipeline
// [convert.Exporter]: https://pkg.go.dev/github.com/AdityaBITMESRA/neurotree/pkg/convert#Exporter
package pkg
