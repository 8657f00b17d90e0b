package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AdityaBITMESRA/neurotree/pkg/convert"
	"github.com/AdityaBITMESRA/neurotree/pkg/pipeline"
)

// convertOpts holds the command-line flags shared by both conversion
// directions.
type convertOpts struct {
	output   string // output file or directory (derived from input if empty)
	cellName string // override for the converted cell id
}

// merge fills unset flags from the loaded config file.
func (o *convertOpts) merge(cfg *Config) {
	if o.output == "" {
		o.output = cfg.Output
	}
	if o.cellName == "" {
		o.cellName = cfg.CellName
	}
}

// newToNMLCmd creates the to-nml command: point-tree file in, segment-model
// XML out.
func newToNMLCmd(cfg *Config) *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "to-nml <file.swc>",
		Short: "Convert an SWC point-tree file to the segment-model form",
		Long: `Convert an SWC point-tree file into the structured segment-model form.

The soma encoding is normalized to the canonical multi-segment
representation, segments are tagged into topological groups, and derived
unbranched-chain groups are added.

Examples:
  neurotree to-nml pyr_4_sym.swc
  neurotree to-nml pyr_4_sym.swc -o out/pyr_4_sym.cell.nml --name pyr4`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			opts.merge(cfg)
			logger := loggerFromContext(c.Context())

			sp := newSpinnerWithContext(c.Context(), fmt.Sprintf("Converting %s", args[0]))
			sp.Start()
			prog := newProgress(logger)
			res, err := pipeline.ToNeuroML(pipeline.Options{
				Input:    args[0],
				Output:   opts.output,
				CellName: opts.cellName,
				Logger:   logger,
			})
			sp.Stop()
			if err != nil {
				if errors.Is(err, convert.ErrNoSomaFound) {
					printWarning("the tree has no soma: segment groups cannot be finalized")
				}
				return err
			}
			prog.done(fmt.Sprintf("Converted %d segments", res.Segments))

			printSuccess("Converted %s", args[0])
			for _, out := range res.Outputs {
				printFile(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: next to input)")
	cmd.Flags().StringVarP(&opts.cellName, "name", "n", "", "cell id (default: derived from source metadata)")
	return cmd
}

// newToSWCCmd creates the to-swc command: segment-model XML in, one SWC
// file per cell out.
func newToSWCCmd(cfg *Config) *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "to-swc <file.nml>",
		Short: "Flatten a segment-model file back into SWC point-tree files",
		Long: `Flatten a segment-model file back into SWC point-tree lines, one output
file per cell, named after the cell id.

Parent links are resolved strictly through the parent segment's proximal
(0.0) or distal (1.0) attachment point; fractional attachments cannot be
represented and abort the export.

Examples:
  neurotree to-swc pyr_4_sym.cell.nml
  neurotree to-swc pyr_4_sym.cell.nml -o out/`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			opts.merge(cfg)
			logger := loggerFromContext(c.Context())

			prog := newProgress(logger)
			res, err := pipeline.ToSWC(pipeline.Options{
				Input:  args[0],
				Output: opts.output,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Exported %d cells (%d segments)", res.Cells, res.Segments))

			printSuccess("Exported %s", args[0])
			for _, out := range res.Outputs {
				printFile(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output directory (default: next to input)")
	return cmd
}
