package main

import (
	"github.com/spf13/cobra"

	"github.com/olusolaa/catalog-entity-provider/internal/app"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [provider...]",
		Short: "Run providers on their schedules until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()
			return reportError(application.Run(cmd.Context(), app.ProviderSelection(providers, args)))
		},
	}
}

func newOnceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "once [provider...]",
		Short: "Tick each provider once and print a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()
			_, err = application.Once(cmd.Context(), app.ProviderSelection(providers, args))
			return reportError(err)
		},
	}
}
