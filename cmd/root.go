package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olusolaa/catalog-entity-provider/internal/app"
	"github.com/olusolaa/catalog-entity-provider/internal/config"
	apperrors "github.com/olusolaa/catalog-entity-provider/internal/errors"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string
	providers string

	v = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "catalog-provider",
	Short: "Keeps a software catalog in sync with external inventories.",
	Long: `Catalog Provider polls external inventories (AWS EKS clusters, AWS accounts
and authenticated JSON APIs), renders each record as a catalog entity and
submits the full snapshot to the catalog on a schedule, removing entities
that disappeared since the previous run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig()
	},
}

// bootstrap builds the application from the loaded configuration and prints
// user-facing details when that fails.
func bootstrap(ctx context.Context) (*app.Application, error) {
	application, err := app.BuildApplicationFromViper(ctx, v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Application initialization failed: %v\n", err)
		if appErr := (*apperrors.AppError)(nil); errors.As(err, &appErr) {
			if appErr.IsUserFacing {
				fmt.Fprintf(os.Stderr, "Error Details: %s\n", appErr.Message)
				if appErr.SuggestedAction != "" {
					fmt.Fprintf(os.Stderr, "Suggestion: %s\n", appErr.SuggestedAction)
				}
			}
		}
		return nil, err
	}
	return application, nil
}

func reportError(err error) error {
	if err == nil {
		return nil
	}
	userMsg, suggestion, _ := apperrors.GetUserFacingMessage(err)
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", userMsg)
	if suggestion != "" {
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", suggestion)
	}
	return err
}

func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default is .catalog-provider.yaml in . or $HOME)")
	flags.StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	flags.StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
	flags.StringVar(&providers, "providers", "", "Comma separated providers to run (default all enabled)")

	_ = v.BindPFlag(config.Key("settings", "log_level"), flags.Lookup("log-level"))
	_ = v.BindPFlag(config.Key("settings", "log_format"), flags.Lookup("log-format"))

	rootCmd.AddCommand(newRunCmd(), newOnceCmd(), newRenderCmd(), newCatalogCmd())
}

func initializeConfig() error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.SetConfigName(".catalog-provider")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using configuration file:", v.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Config file not found, using defaults and environment variables.")
		} else {
			return apperrors.WrapUserFacing(err, apperrors.CodeConfigReadError, "failed to read config file",
				"Check that the file exists and is valid YAML.")
		}
	}
	return nil
}
