package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGraphCmd создаёт команду экспорта графа пайплайна.
func NewGraphCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the pipeline graph in Graphviz DOT format",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()

			dot, err := client.GraphDOT()
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), dot)
			return nil
		},
	}
}
