// Package pipeline provides the conversion pipelines shared by all entry
// points.
//
// Two directions exist:
//
//  1. ToNeuroML: load a point-tree file → build the segment model → write
//     its XML linearization.
//  2. ToSWC: read a segment-model XML file → flatten every cell back into
//     point-tree lines → write one .swc file per cell.
//
// Each call is independent and owns its builder/exporter state, so callers
// may run pipelines for different files in parallel. Output files are only
// written after the conversion has fully succeeded; a failed conversion
// leaves no partial output behind.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/AdityaBITMESRA/neurotree/pkg/convert"
	"github.com/AdityaBITMESRA/neurotree/pkg/morph"
	"github.com/AdityaBITMESRA/neurotree/pkg/swc"
)

// Options configures one pipeline invocation.
type Options struct {
	// Input is the path of the file to convert.
	Input string
	// Output is the target path (ToNeuroML) or target directory (ToSWC).
	// Empty means: derive from the input path next to the input file.
	Output string
	// CellName overrides the cell id derived from the input metadata.
	CellName string
	// Logger receives progress output. Nil disables progress logging.
	Logger *log.Logger
}

// logger returns the configured logger or a discarding fallback.
func (o Options) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	l := log.New(os.Stderr)
	l.SetLevel(log.FatalLevel)
	return l
}

// Result describes a finished conversion.
type Result struct {
	// Outputs are the files written, in emission order.
	Outputs []string
	// Cells is the number of cells converted.
	Cells int
	// Segments is the total number of segments across all cells.
	Segments int
}

// ToNeuroML converts a point-tree file into a segment-model XML file.
//
// A tree without a soma fails with convert.ErrNoSomaFound before anything
// is written; use [Build] directly to inspect the partial model.
func ToNeuroML(opts Options) (*Result, error) {
	logger := opts.logger()
	logger.Infof("Loading %s", opts.Input)

	graph, err := swc.LoadFile(opts.Input)
	if err != nil {
		return nil, err
	}
	logger.Debugf("Loaded %d nodes", graph.NodeCount())

	doc, err := Build(graph, opts.CellName)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == "" {
		out = strings.TrimSuffix(opts.Input, filepath.Ext(opts.Input)) + ".cell.nml"
	}
	if err := morph.WriteFile(doc, out); err != nil {
		return nil, err
	}

	segments := len(doc.Cells[0].Morphology.Segments)
	logger.Infof("Wrote %s (%d segments)", out, segments)
	return &Result{Outputs: []string{out}, Cells: 1, Segments: segments}, nil
}

// Build turns a loaded point tree into a single-cell document. On
// convert.ErrNoSomaFound the partially finished document is returned
// alongside the error.
func Build(graph *swc.Graph, cellName string) (*morph.Document, error) {
	builder := convert.NewBuilder(graph)
	doc, err := builder.BuildDocument()
	if doc != nil && cellName != "" {
		doc.ID = cellName
		doc.Cells[0].ID = cellName
		if doc.Cells[0].Morphology != nil {
			doc.Cells[0].Morphology.ID = "morphology_" + cellName
		}
	}
	if err != nil {
		return doc, fmt.Errorf("build: %w", err)
	}
	return doc, nil
}

// ToSWC converts a segment-model XML file back into point-tree files, one
// per cell, named after the cell id. Output goes to opts.Output if set,
// otherwise next to the input file.
func ToSWC(opts Options) (*Result, error) {
	logger := opts.logger()
	logger.Infof("Reading %s", opts.Input)

	doc, err := morph.ReadFile(opts.Input)
	if err != nil {
		return nil, err
	}
	if len(doc.Cells) == 0 {
		return nil, errors.New("document contains no cells")
	}

	dir := opts.Output
	if dir == "" {
		dir = filepath.Dir(opts.Input)
	}

	result := &Result{}
	for i := range doc.Cells {
		cell := &doc.Cells[i]
		logger.Debugf("Converting cell %s", cell.ID)

		exporter := convert.NewExporter()
		content, err := exporter.ExportString(cell)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", cell.ID, err)
		}

		out := filepath.Join(dir, cell.ID+".swc")
		if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", out, err)
		}

		result.Outputs = append(result.Outputs, out)
		result.Cells++
		result.Segments += len(cell.Morphology.Segments)
		logger.Infof("Wrote %s", out)
	}
	return result, nil
}
