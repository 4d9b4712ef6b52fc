package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/sniped/internal/domain/region"
)

func (a *App) regionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List supported regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROUTING")
			for _, r := range region.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r, r.Label(), r.Routing())
			}
			return tw.Flush()
		},
	}
}
