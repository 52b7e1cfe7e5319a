package main

import (
	"github.com/spf13/cobra"

	"github.com/olusolaa/catalog-entity-provider/internal/render"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the local catalog store",
	}

	var provider string
	list := &cobra.Command{
		Use:   "list",
		Short: "Print the entities held by the rdb sink as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			entities, err := application.ListCatalog(cmd.Context(), provider)
			if err != nil {
				return reportError(err)
			}
			out, err := render.MarshalAll(entities)
			if err != nil {
				return reportError(err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	list.Flags().StringVarP(&provider, "provider", "p", "", "Only list entities of this provider")
	cmd.AddCommand(list)
	return cmd
}
