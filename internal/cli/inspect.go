package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AdityaBITMESRA/neurotree/pkg/convert"
	"github.com/AdityaBITMESRA/neurotree/pkg/swc"
)

// newInspectCmd creates the inspect command, which loads a point-tree file
// and prints its structural statistics without converting it.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.swc>",
		Short: "Show structural statistics of an SWC point-tree file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			graph, err := swc.LoadFile(args[0])
			if err != nil {
				return err
			}
			printInspect(graph)
			return nil
		},
	}
}

// printInspect renders the graph statistics with the shared output styles.
func printInspect(graph *swc.Graph) {
	somaClass, somaNodes := convert.ClassifySoma(graph)

	fmt.Println(StyleTitle.Render("Point tree"))
	if source, ok := graph.Metadata()["ORIGINAL_SOURCE"]; ok {
		printKeyValue("source", source)
	}
	printKeyValue("nodes", fmt.Sprintf("%d", graph.NodeCount()))
	printKeyValue("soma", fmt.Sprintf("%s (%d nodes)", somaClass, len(somaNodes)))
	if root := graph.Root(); root != nil {
		printKeyValue("root", root.String())
	}

	counts := graph.TypeCounts()
	codes := make([]int, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	printNewline()
	fmt.Println(StyleTitle.Render("Nodes by type"))
	for _, code := range codes {
		printKeyValue(swc.TypeName(code), fmt.Sprintf("%d", counts[code]))
	}

	if somaClass == convert.SomaNone {
		printNewline()
		printWarning("no soma: model construction will not complete the group derivation")
	}
}
