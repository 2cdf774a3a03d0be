package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"document-workflow/internal/catalog"
	"document-workflow/internal/common/logger"
	loadparameters "document-workflow/internal/workers/document/load-parameters"

	"github.com/spf13/cobra"
)

func catalogCommand(open catalogOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect document metadata",
	}

	var (
		configPath string
		typeCode   string
		internal   bool
		asJSON     bool
	)
	show := &cobra.Command{
		Use:   "show",
		Short: "List document types, or the resolved parameters of one type",
		Example: `  doctool catalog show
  doctool catalog show --internal
  doctool catalog show --type LIC --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := open(cmd.Context(), configPath)
			if err != nil {
				return fmt.Errorf("failed to load catalog: %w", err)
			}
			if typeCode == "" {
				return printTypes(cmd, c, internal, asJSON)
			}

			cfg := loadparameters.LoadConfig()
			cfg.PrefillEnabled = false
			service := loadparameters.NewService(loadparameters.ServiceDependencies{
				Catalog: catalog.NewStaticStore(c),
				Logger:  logger.NewNoOpLogger(),
			}, cfg)

			schema, err := service.Load(cmd.Context(), typeCode, "")
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, schema)
			}
			return printSchema(cmd, schema)
		},
	}
	show.Flags().StringVar(&configPath, "config", "", "Path to the service config file")
	show.Flags().StringVar(&typeCode, "type", "", "Document type code to resolve")
	show.Flags().BoolVar(&internal, "internal", false, "List internal document types")
	show.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	cmd.AddCommand(show)
	return cmd
}

func printTypes(cmd *cobra.Command, c *catalog.Catalog, internal, asJSON bool) error {
	types := c.DocumentTypes(internal)
	if asJSON {
		return writeJSON(cmd, types)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME")
	for _, t := range types {
		fmt.Fprintf(w, "%s\t%s\n", t.Code, t.Name)
	}
	return w.Flush()
}

func printSchema(cmd *cobra.Command, schema *loadparameters.Schema) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tKIND\tMANDATORY\tOPTIONS")
	for _, p := range schema.Parameters {
		options := "-"
		switch {
		case p.ListUnavailable:
			options = "list unavailable: " + p.ReferenceList
		case len(p.Options) > 0:
			keys := make([]string, len(p.Options))
			for i, o := range p.Options {
				keys[i] = o.Key
			}
			options = strings.Join(keys, ",")
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", p.ID, p.Name, p.EffectiveKind(), p.Mandatory, options)
	}
	return w.Flush()
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
