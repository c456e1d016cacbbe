package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zoobzio/stmtql"
)

// NewDialectsCommand creates the dialects command.
func NewDialectsCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List supported dialects and how they differ",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			heading.Fprintln(tw, "DIALECT\tQUOTE\tBIND\tLIMIT\tRETURNING\tUPSERT")
			for _, d := range stmtql.Dialects() {
				caps := stmtql.CapabilitiesFor(d)
				fmt.Fprintf(tw, "%s\t%c%c\t%s\t%s\t%s\t%s\n",
					d, caps.QuoteOpen, caps.QuoteClose, caps.Bind, caps.Limit, caps.Returning, yesNo(caps.Upsert != 0))
			}
			return tw.Flush()
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
