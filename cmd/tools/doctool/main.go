// cmd/tools/doctool/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"document-workflow/internal/catalog"
	"document-workflow/internal/common/config"
	"document-workflow/internal/common/database"

	"github.com/spf13/cobra"
)

// catalogOpener loads the document catalog named by a config file; an empty
// path uses the service's default config lookup.
type catalogOpener func(ctx context.Context, configPath string) (*catalog.Catalog, error)

func main() {
	if err := newRootCmd(openCatalog).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(open catalogOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "doctool",
		Short:         "Operator utilities for the document workflow",
		SilenceUsage: true,
	}

	root.AddCommand(
		taxIDCommand(),
		postalCommand(),
		catalogCommand(open),
		workersCommand(),
	)
	return root
}

func openCatalog(ctx context.Context, configPath string) (*catalog.Catalog, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pg.Close()

	return catalog.NewRepository(pg.X).Load(ctx)
}
