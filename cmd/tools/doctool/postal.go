package main

import (
	"fmt"

	resolvepostalcode "document-workflow/internal/workers/address/resolve-postal-code"

	"github.com/spf13/cobra"
)

func postalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "postal",
		Short: "Postal code utilities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "format <input>...",
		Short:   "Format raw input as ####-### and report whether it triggers a lookup",
		Example: "  doctool postal format 1000001 '4000 10'",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, in := range args {
				formatted := resolvepostalcode.FormatPostalCode(in)
				state := "incomplete"
				if resolvepostalcode.ShouldLookup(formatted) {
					state = "complete"
				}
				fmt.Fprintf(out, "%q\t%s\t%s\n", in, formatted, state)
			}
			return nil
		},
	})
	return cmd
}
