package main

import (
	"fmt"

	resolveentity "document-workflow/internal/workers/entity/resolve-entity"

	"github.com/spf13/cobra"
)

func taxIDCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxid",
		Short: "Tax identifier utilities",
	}

	var prefixes string
	validate := &cobra.Command{
		Use:   "validate <taxId>...",
		Short: "Check tax identifiers against the check-digit rule",
		Example: `  doctool taxid validate 123456789 512345678
  doctool taxid validate --prefixes 5 512345678`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			validator := resolveentity.NewTaxIDValidator(prefixes)
			out := cmd.OutOrStdout()

			invalid := 0
			for _, id := range args {
				if validator.Valid(id) {
					fmt.Fprintf(out, "%s\tvalid\n", id)
					continue
				}
				invalid++
				if len(id) == 9 && isDigits(id) {
					fmt.Fprintf(out, "%s\tinvalid (check digit should be %d)\n", id, resolveentity.CheckDigit(id[:8]))
				} else {
					fmt.Fprintf(out, "%s\tinvalid\n", id)
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d tax identifiers invalid", invalid, len(args))
			}
			return nil
		},
	}
	validate.Flags().StringVar(&prefixes, "prefixes", resolveentity.DefaultAllowedPrefixes, "Accepted leading digits")

	cmd.AddCommand(validate)
	return cmd
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
