package main

import (
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/olusolaa/catalog-entity-provider/internal/config"
	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	apperrors "github.com/olusolaa/catalog-entity-provider/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func newRenderCmd() *cobra.Command {
	var (
		file      string
		provider  string
		accountID string
		region    string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one raw JSON record to entity YAML",
		Long: `Render reads a single raw record (as returned by the provider's inventory
client) from a JSON file and prints the entity the provider would submit.
Useful for debugging annotation templates.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return reportError(apperrors.WrapUserFacing(err, apperrors.CodeConfigReadError,
					"failed to read record file", "Pass a JSON object with --file."))
			}
			var rec domain.RawRecord
			if err := json.Unmarshal(data, &rec); err != nil {
				return reportError(apperrors.WrapUserFacing(err, apperrors.CodeConfigParseError,
					"record file is not a JSON object", "Pass a JSON object with --file."))
			}

			application, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			out, err := application.RenderRecord(provider, rec, domain.RenderContext{AccountID: accountID, Region: region})
			if err != nil {
				return reportError(err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding one raw record")
	cmd.Flags().StringVarP(&provider, "provider", "p", config.ProviderEKS, "Provider whose renderer to use")
	cmd.Flags().StringVar(&accountID, "account-id", "", "Account the record came from")
	cmd.Flags().StringVar(&region, "region", "", "Region the record came from")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
