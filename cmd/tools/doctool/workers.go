package main

import (
	"fmt"
	"text/tabwriter"

	resolvepostalcode "document-workflow/internal/workers/address/resolve-postal-code"
	createdocument "document-workflow/internal/workers/document/create-document"
	loadparameters "document-workflow/internal/workers/document/load-parameters"
	resolveentity "document-workflow/internal/workers/entity/resolve-entity"
	"document-workflow/pkg/registry"

	"github.com/spf13/cobra"
)

// servedTaskTypes are the job types cmd/worker-manager registers.
var servedTaskTypes = []string{
	resolveentity.TaskType,
	resolvepostalcode.TaskType,
	loadparameters.TaskType,
	createdocument.TaskType,
}

func workersCommand() *cobra.Command {
	var registryPath string

	cmd := &cobra.Command{
		Use:   "workers",
		Short: "Maintain the job worker registry",
	}
	cmd.PersistentFlags().StringVar(&registryPath, "path", "configs/worker-registry.json", "Path to registry file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered workers",
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := registry.Load(registryPath)
				if err != nil {
					return fmt.Errorf("failed to load registry: %w", err)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES")
				for _, wk := range reg.Workers {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", wk.TaskType, wk.Category, wk.Status, wk.Timeout, wk.Retries)
				}
				return w.Flush()
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Validate the registry against the served task types",
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := registry.Load(registryPath)
				if err != nil {
					return fmt.Errorf("failed to load registry: %w", err)
				}
				if err := reg.Validate(servedTaskTypes); err != nil {
					return fmt.Errorf("registry validation failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d workers.\n", len(reg.Workers))
				return nil
			},
		},
		&cobra.Command{
			Use:     "set-status <taskType> <status>",
			Short:   "Update a worker's implementation status",
			Example: "  doctool workers set-status create-document verified",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				reg, err := registry.Load(registryPath)
				if err != nil {
					return fmt.Errorf("failed to load registry: %w", err)
				}
				if err := reg.SetStatus(args[0], args[1]); err != nil {
					return err
				}
				if err := registry.Save(reg, registryPath); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s status to %s\n", args[0], args[1])
				return nil
			},
		},
	)
	return cmd
}
